package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KevinKickass/PlantDeck/internal/config"
)

func lightHasher() *PasswordHasher {
	return NewPasswordHasherWithParams(1024, 1, 1)
}

func newService(t *testing.T, enabled bool) *Service {
	t.Helper()
	hash, err := lightHasher().HashPassword("hunter2")
	require.NoError(t, err)

	svc, err := NewServiceWithHasher(config.AuthConfig{
		Enabled:        enabled,
		JWTSecretEnv:   "PLANTDECK_TEST_JWT",
		AccessTokenTTL: time.Hour,
		Users:          []config.UserConfig{{Username: "kim", PasswordHash: hash, DisplayName: "Kim"}},
	}, lightHasher(), zap.NewNop())
	require.NoError(t, err)
	return svc
}

func TestPasswordHashRoundTrip(t *testing.T) {
	h := lightHasher()
	encoded, err := h.HashPassword("correct horse")
	require.NoError(t, err)
	assert.Contains(t, encoded, "$argon2id$v=19$m=1024,t=1,p=1$")

	ok, err := h.VerifyPassword("correct horse", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.VerifyPassword("wrong", encoded)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.VerifyPassword("x", "plain-text")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestLoginAndValidate(t *testing.T) {
	svc := newService(t, true)

	session, err := svc.Login(context.Background(), "kim", "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "Kim", session.User.DisplayName)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	user, err := svc.ValidateToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "kim", user.Username)

	_, err = svc.Login(context.Background(), "kim", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(context.Background(), "lee", "hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateRejectsForeignAndExpiredTokens(t *testing.T) {
	svc := newService(t, true)

	other := NewJWTHandler("another-secret-another-secret-1234", time.Hour)
	forged, _, err := other.GenerateAccessToken(User{Username: "kim"})
	require.NoError(t, err)
	_, err = svc.ValidateToken(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	session, err := svc.Login(context.Background(), "kim", "hunter2")
	require.NoError(t, err)
	svc.jwtHandler.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ValidateToken(session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc := newService(t, true)

	session, err := svc.Login(context.Background(), "kim", "hunter2")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(session.Token))

	_, err = svc.ValidateToken(session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	assert.Error(t, svc.Logout("garbage"))
}

func TestDevelopmentAdminFallback(t *testing.T) {
	t.Setenv("PLANTDECK_ADMIN_PASSWORD", "letmein")
	svc, err := NewServiceWithHasher(config.AuthConfig{Enabled: true}, lightHasher(), zap.NewNop())
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "admin", "letmein")
	assert.NoError(t, err)
}

func TestNewServiceRejectsBadUsers(t *testing.T) {
	_, err := NewServiceWithHasher(config.AuthConfig{
		Users: []config.UserConfig{{Username: "kim"}},
	}, lightHasher(), zap.NewNop())
	assert.Error(t, err)

	_, err = NewServiceWithHasher(config.AuthConfig{
		Users: []config.UserConfig{{Username: "a", PasswordHash: "h"}, {Username: "a", PasswordHash: "h"}},
	}, lightHasher(), zap.NewNop())
	assert.Error(t, err)
}

func sessionRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", svc.RequireSession(), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c))
	})
	return r
}

func TestRequireSession(t *testing.T) {
	svc := newService(t, true)
	r := sessionRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"error"`)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	session, err := svc.Login(context.Background(), "kim", "hunter2")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "kim", w.Body.String())
}

func TestRequireSessionDisabled(t *testing.T) {
	r := sessionRouter(newService(t, false))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, SystemActor, w.Body.String())
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	for _, h := range []string{"", "Bearer", "Bearer ", "Basic abc", "bearer abc"} {
		_, ok := BearerToken(h)
		assert.False(t, ok, h)
	}
}
