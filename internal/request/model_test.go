package request

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    RequestStatus
		to      RequestStatus
		allowed bool
	}{
		{StatusPending, StatusAccepted, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusConfirmed, false},
		{StatusPending, StatusCompleted, false},
		{StatusAccepted, StatusConfirmed, true},
		{StatusAccepted, StatusPending, true},
		{StatusAccepted, StatusCompleted, false},
		{StatusAccepted, StatusRejected, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCompleted, StatusPending, false},
		{StatusCompleted, StatusConfirmed, false},
		{StatusRejected, StatusPending, false},
		{StatusRejected, StatusAccepted, false},
	}

	for _, tt := range tests {
		got := tt.from.CanTransitionTo(tt.to)
		assert.Equal(t, tt.allowed, got, "%s -> %s", tt.from, tt.to)
	}
}

func TestRequestStatus_IsValid(t *testing.T) {
	for _, s := range []RequestStatus{StatusPending, StatusAccepted, StatusConfirmed, StatusCompleted, StatusRejected} {
		assert.True(t, s.IsValid(), "%s should be valid", s)
	}
	assert.False(t, RequestStatus("cancelled").IsValid())
	assert.False(t, RequestStatus("PENDING").IsValid(), "status values are case sensitive")
	assert.False(t, RequestStatus("").IsValid())
}

func TestNormalizeTimeOfDay(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"10:30 AM", "10:30 AM", false},
		{"10:30AM", "10:30 AM", false},
		{"10:30 am", "10:30 AM", false},
		{"10:30pm", "10:30 PM", false},
		{"  2:05 PM ", "2:05 PM", false},
		{"12:00 AM", "12:00 AM", false},
		{"12:00 PM", "12:00 PM", false},
		{"13:00 PM", "", true},
		{"10:30", "", true},
		{"half past ten", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizeTimeOfDay(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestValidateDate(t *testing.T) {
	assert.NoError(t, ValidateDate("2026-09-15"))
	assert.NoError(t, ValidateDate("2026-01-01"))
	assert.Error(t, ValidateDate("15-09-2026"))
	assert.Error(t, ValidateDate("2026/09/15"))
	assert.Error(t, ValidateDate("2026-13-40"))
	assert.Error(t, ValidateDate("tomorrow"))
	assert.Error(t, ValidateDate(""))
}

func TestCombineDateTime(t *testing.T) {
	got, err := CombineDateTime("2026-09-15", "2:30 PM")
	require.NoError(t, err)
	want := time.Date(2026, 9, 15, 14, 30, 0, 0, time.Local)
	assert.True(t, got.Equal(want), "got %v, want %v", got, want)

	// The relaxed meridiem forms combine the same way.
	relaxed, err := CombineDateTime("2026-09-15", "2:30pm")
	require.NoError(t, err)
	assert.True(t, relaxed.Equal(want))

	_, err = CombineDateTime("2026-09-15", "25:00 PM")
	assert.Error(t, err)
}

func TestScheduledAt(t *testing.T) {
	req := &CleaningRequest{Date: "2026-03-01", Time: "9:00 AM"}
	got, err := req.ScheduledAt()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local), got)

	broken := &CleaningRequest{Date: "not-a-date", Time: "9:00 AM"}
	_, err = broken.ScheduledAt()
	assert.Error(t, err)
}
