// File: internal/jobs/request_sweep.go
package jobs

import (
	"context"
	"fmt"
	"time"

	"magic_broom_backend/internal/config"
	"magic_broom_backend/internal/request"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// RequestSweepJob periodically rejects pending cleaning requests whose
// scheduled time has already passed, so the cleaner feed never shows stale
// work.
type RequestSweepJob struct {
	requestService request.Service
	logger         *zap.Logger
	cfg            *config.Config
	cronScheduler  *cron.Cron
}

// NewRequestSweepJob creates a new RequestSweepJob.
func NewRequestSweepJob(
	requestService request.Service,
	logger *zap.Logger,
	cfg *config.Config,
) *RequestSweepJob {
	scheduler := cron.New(cron.WithLogger(NewCronLogger(logger.Named("cron"))))

	return &RequestSweepJob{
		requestService: requestService,
		logger:         logger.Named("RequestSweepJob"),
		cfg:            cfg,
		cronScheduler:  scheduler,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *RequestSweepJob) SetupAndStart() error {
	jobSpec := j.cfg.RequestSweepJobSchedule
	if jobSpec == "" {
		j.logger.Warn("Request sweep job schedule not defined (REQUEST_SWEEP_JOB_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule request sweep job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Request sweep job scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

func (j *RequestSweepJob) runJob() {
	j.logger.Info("Starting request sweep job run...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sweptCount, err := j.requestService.SweepOverdue(ctx, time.Now())
	if err != nil {
		j.logger.Error("Request sweep job run failed", zap.Error(err))
	} else {
		j.logger.Info("Request sweep job run completed", zap.Int("requests_rejected", sweptCount))
	}
}

// Stop gracefully stops the cron scheduler.
func (j *RequestSweepJob) Stop() {
	if j.cronScheduler != nil {
		j.logger.Info("Stopping request sweep job scheduler...")
		stopCtx := j.cronScheduler.Stop()
		select {
		case <-stopCtx.Done():
			j.logger.Info("Request sweep job scheduler stopped gracefully.")
		case <-time.After(10 * time.Second):
			j.logger.Warn("Request sweep job scheduler stop timed out.")
		}
	}
}

// --- Cron Logger Adapter ---

// cronLogger adapts zap.Logger to cron.Logger interface.
type cronLogger struct {
	zl *zap.Logger
}

// NewCronLogger creates a new cronLogger.
func NewCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{zl: zl}
}

// Info logs routine messages from cron.
func (cl *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	cl.zl.Info(msg, cl.parseKeysAndValues(keysAndValues...)...)
}

// Error logs error messages from cron.
func (cl *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := cl.parseKeysAndValues(keysAndValues...)
	fields = append(fields, zap.Error(err))
	cl.zl.Error(msg, fields...)
}

func (cl *cronLogger) parseKeysAndValues(keysAndValues ...interface{}) []zap.Field {
	var fields []zap.Field
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), "MISSING_VALUE"))
		}
	}
	return fields
}
