package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/comicshelf/comicshelf/pkg/jwtx"
	"github.com/comicshelf/comicshelf/pkg/slogx"
)

// AuthnMiddleware verifies the Bearer access token and injects the subject
// and role into the request context for downstream handlers.
func AuthnMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, "No token provided")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := v.Verify(raw)
			if err != nil {
				if errors.Is(err, jwtx.ErrExpired) {
					writeBearerError(w, "Token expired")
					return
				}
				log.Warn("jwt verify failed", "err", err)
				writeBearerError(w, "Invalid token")
				return
			}

			// Inject into context for downstream handlers.
			ctx = contextWithAuth(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func contextWithAuth(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, c.Subject)
	ctx = context.WithValue(ctx, CtxKeyRole, c.Role)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}

// RFC 6750-style bearer challenge plus a JSON body matching the API's
// error envelope.
func writeBearerError(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+msg+`"`)
	WriteJSON(w, http.StatusUnauthorized, map[string]any{
		"message": msg,
	})
}
