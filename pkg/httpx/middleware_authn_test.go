package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/comicshelf/comicshelf/pkg/httpx"
	"github.com/comicshelf/comicshelf/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func signTestToken(t *testing.T, secret string, ttl time.Duration) string {
	t.Helper()

	signer, err := jwtx.NewSignerHS256([]byte(secret))
	require.NoError(t, err)

	token, err := signer.Sign(jwtx.NewAccessClaims("user-1", "user", "", ttl, time.Now().UTC()))
	require.NoError(t, err)
	return token
}

func TestAuthnMiddleware(t *testing.T) {
	verifier := jwtx.NewVerifierHS256([]byte("secret"), "")

	var gotUserID, gotRole string
	handler := httpx.Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUserID = httpx.UserIDFromCtx(r.Context())
			gotRole = httpx.RoleFromCtx(r.Context())
			w.WriteHeader(http.StatusOK)
		}),
		httpx.AuthnMiddleware(verifier),
	)

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "No token provided")
	})

	t.Run("expired token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signTestToken(t, "secret", -time.Hour))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "Token expired")
	})

	t.Run("wrong secret", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signTestToken(t, "other-secret", time.Hour))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "Invalid token")
	})

	t.Run("valid token injects identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signTestToken(t, "secret", time.Hour))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "user-1", gotUserID)
		require.Equal(t, "user", gotRole)
	})
}
