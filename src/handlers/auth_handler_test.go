package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/capgains/backend/src/logger"
	"github.com/username/capgains/backend/src/security"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func newTestAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	svc, err := security.NewAuthService("a-test-only-jwt-secret-of-32-bytes!!", "the-key", time.Minute)
	require.NoError(t, err)
	return NewAuthHandler(svc)
}

func TestHandleToken_Success(t *testing.T) {
	h := newTestAuthHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/token", strings.NewReader(`{"access_key": "the-key"}`))
	rec := httptest.NewRecorder()

	h.HandleToken(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["token"])
}

func TestHandleToken_WrongKey(t *testing.T) {
	h := newTestAuthHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/token", strings.NewReader(`{"access_key": "nope"}`))
	rec := httptest.NewRecorder()

	h.HandleToken(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleToken_MissingKey(t *testing.T) {
	h := newTestAuthHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/token", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.HandleToken(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	h := newTestAuthHandler(t)
	protected := h.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	// No header at all.
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/calculations/x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage token.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/calculations/x", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid token issued by the same service.
	token, err := h.authService.GenerateToken()
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/calculations/x", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
