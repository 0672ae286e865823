package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// serveWith runs a GET through mw and returns the recorder.
func serveWith(mw echo.MiddlewareFunc, authorization string) *httptest.ResponseRecorder {
	e := echo.New()
	e.GET("/api/openai/translate", okHandler, mw)

	req := httptest.NewRequest(http.MethodGet, "/api/openai/translate", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	const key = "secret-key-123"
	tests := []struct {
		name       string
		masterKey  string
		header     string
		wantStatus int
		wantError  string
	}{
		{"no key configured", "", "", http.StatusOK, ""},
		{"valid key", key, "Bearer " + key, http.StatusOK, ""},
		{"scheme is case-insensitive", key, "bearer " + key, http.StatusOK, ""},
		{"missing header", key, "", http.StatusUnauthorized, "missing authorization header"},
		{"token without scheme", key, key, http.StatusUnauthorized, "invalid authorization header format, expected 'Bearer <token>'"},
		{"basic scheme", key, "Basic " + key, http.StatusUnauthorized, "invalid authorization header format, expected 'Bearer <token>'"},
		{"wrong key", key, "Bearer wrong-key", http.StatusUnauthorized, "invalid master key"},
		{"empty token", key, "Bearer ", http.StatusUnauthorized, "invalid master key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveWith(AuthMiddleware(tt.masterKey), tt.header)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError == "" {
				assert.Equal(t, "ok", rec.Body.String())
				return
			}
			assert.JSONEq(t,
				`{"error":{"type":"authentication_error","message":`+jsonString(t, tt.wantError)+`}}`,
				rec.Body.String())
		})
	}
}

func TestAdminAuthMiddleware(t *testing.T) {
	rec := serveWith(AdminAuthMiddleware("admin-key"), "Bearer master-key")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":{"type":"authentication_error","message":"invalid admin key"}}`, rec.Body.String())

	rec = serveWith(AdminAuthMiddleware("admin-key"), "Bearer admin-key")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBearerToken(t *testing.T) {
	token, problem := bearerToken("Bearer  padded ")
	assert.Empty(t, problem)
	assert.Equal(t, "padded", token)
}

func jsonString(t *testing.T, s string) string {
	t.Helper()
	raw, err := json.Marshal(s)
	require.NoError(t, err)
	return string(raw)
}
