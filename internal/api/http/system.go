package http

import (
	"net/http"
	"time"

	"github.com/comicshelf/comicshelf/internal/api/store"
	"github.com/comicshelf/comicshelf/pkg/httpx"
)

type healthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`

	Database string `json:"database,omitempty"`
}

// WelcomeHandler serves GET / with the API greeting.
func WelcomeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{
			"message": "Welcome to Restful API server",
		})
	}
}

// ProtectedHandler echoes the authenticated caller's identity. Useful as a
// smoke test that a client's bearer token round-trips.
func ProtectedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		httpx.WriteJSON(w, http.StatusOK, map[string]string{
			"message": "This is a protected route",
			"userId":  httpx.UserIDFromCtx(ctx),
			"role":    httpx.RoleFromCtx(ctx),
		})
	}
}

// LivezHandler always reports ok while the process is up.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, healthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler additionally checks database connectivity.
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := healthResponse{
			Status:   "ok",
			Uptime:   time.Since(startTime).String(),
			Version:  version,
			Database: "ok",
		}
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			response.Status = "degraded"
			response.Database = "error: " + err.Error()
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, response)
	}
}

// NotFoundHandler is the fallback for unmatched routes.
func NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{
				"status":  http.StatusBadRequest,
				"message": "Bad request",
			},
		})
	}
}
