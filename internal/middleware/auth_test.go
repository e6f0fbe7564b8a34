// File: internal/middleware/auth_test.go
package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"magic_broom_backend/internal/common"
	"magic_broom_backend/internal/shared"
)

type stubVerifier struct {
	token *firebaseauth.Token
	err   error
}

func (s *stubVerifier) VerifyIDToken(_ context.Context, _ string) (*firebaseauth.Token, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.token, nil
}

type stubUserService struct {
	user *shared.User
	err  error
}

func (s *stubUserService) GetUserByID(_ context.Context, _ uuid.UUID) (*shared.User, error) {
	return s.user, s.err
}

func (s *stubUserService) GetUserByEmail(_ context.Context, _ string) (*shared.User, error) {
	return s.user, s.err
}

func (s *stubUserService) GetUserByFirebaseUID(_ context.Context, _ string) (*shared.User, error) {
	return s.user, s.err
}

func (s *stubUserService) GetOrCreateUserFromFirebaseClaims(_ context.Context, _ *firebaseauth.Token) (*shared.User, bool, error) {
	return s.user, false, s.err
}

func verifiedToken(uid, email string) *firebaseauth.Token {
	return &firebaseauth.Token{
		UID: uid,
		Claims: map[string]interface{}{
			"email":          email,
			"email_verified": true,
		},
	}
}

// observedIdentity records what the terminal handler saw in the context.
type observedIdentity struct {
	called bool
	userID uuid.UUID
	role   string
}

func newAuthTestRouter(t *testing.T, verifier *stubVerifier, userService shared.Service, extraMW ...gin.HandlerFunc) (*gin.Engine, *observedIdentity) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	observed := &observedIdentity{}

	router := gin.New()
	handlers := []gin.HandlerFunc{AuthMiddleware(verifier, userService, zap.NewNop())}
	handlers = append(handlers, extraMW...)
	handlers = append(handlers, func(c *gin.Context) {
		observed.called = true
		observed.userID = GetUserIDFromContext(c)
		observed.role = GetUserRoleFromContext(c)
		c.Status(http.StatusOK)
	})
	router.GET("/protected", handlers...)
	return router, observed
}

func performAuthRequest(router *gin.Engine) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_ResolvesProfileBeforeDownstreamHandlers(t *testing.T) {
	email := "cleaner@test.com"
	cleaner := &shared.User{ID: uuid.New(), Email: &email, Role: common.RoleCleaner}
	verifier := &stubVerifier{token: verifiedToken("fb-uid-1", email)}
	userService := &stubUserService{user: cleaner}

	router, observed := newAuthTestRouter(t, verifier, userService)

	w := performAuthRequest(router)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, observed.called)
	assert.Equal(t, cleaner.ID, observed.userID, "handler must see the resolved profile, not uuid.Nil")
	assert.Equal(t, common.RoleCleaner, observed.role)
}

func TestAuthMiddleware_RoleGateSeesResolvedRole(t *testing.T) {
	email := "cleaner@test.com"
	cleaner := &shared.User{ID: uuid.New(), Email: &email, Role: common.RoleCleaner}
	verifier := &stubVerifier{token: verifiedToken("fb-uid-2", email)}
	userService := &stubUserService{user: cleaner}

	router, observed := newAuthTestRouter(t, verifier, userService, RoleAuthMiddleware(common.RoleCleaner))

	w := performAuthRequest(router)

	require.Equal(t, http.StatusOK, w.Code, "a legitimate cleaner must pass the role gate: %s", w.Body.String())
	assert.True(t, observed.called)
	assert.Equal(t, cleaner.ID, observed.userID)
}

func TestAuthMiddleware_RoleGateRejectsWrongRole(t *testing.T) {
	email := "customer@test.com"
	customer := &shared.User{ID: uuid.New(), Email: &email, Role: common.RoleUser}
	verifier := &stubVerifier{token: verifiedToken("fb-uid-3", email)}
	userService := &stubUserService{user: customer}

	router, observed := newAuthTestRouter(t, verifier, userService, RoleAuthMiddleware(common.RoleCleaner))

	w := performAuthRequest(router)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, observed.called, "handler must not run after the role gate rejects")
}

func TestAuthMiddleware_ProfileNotFound(t *testing.T) {
	verifier := &stubVerifier{token: verifiedToken("fb-uid-4", "orphan@test.com")}
	userService := &stubUserService{err: common.ErrNotFound.WithDetails("User not found.")}

	router, observed := newAuthTestRouter(t, verifier, userService)

	w := performAuthRequest(router)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "PROFILE_NOT_FOUND"), "body: %s", w.Body.String())
	assert.False(t, observed.called, "handler must not run when no profile exists")
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	verifier := &stubVerifier{err: common.ErrUnauthorized}
	userService := &stubUserService{}

	router, observed := newAuthTestRouter(t, verifier, userService)

	w := performAuthRequest(router)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, observed.called)
}

func TestTokenAuthMiddleware_StoresClaims(t *testing.T) {
	verifier := &stubVerifier{token: verifiedToken("fb-uid-5", "sync@test.com")}

	gin.SetMode(gin.TestMode)
	router := gin.New()

	var gotUID string
	var gotToken *firebaseauth.Token
	router.POST("/sync", TokenAuthMiddleware(verifier, zap.NewNop()), func(c *gin.Context) {
		gotUID = GetFirebaseUIDFromContext(c)
		gotToken = GetFirebaseTokenFromContext(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fb-uid-5", gotUID)
	require.NotNil(t, gotToken)
	assert.Equal(t, "fb-uid-5", gotToken.UID)
}
