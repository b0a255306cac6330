package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/comicshelf/comicshelf/internal/api/service"
	"github.com/comicshelf/comicshelf/internal/api/store"
	"github.com/comicshelf/comicshelf/pkg/httpx"
	"github.com/comicshelf/comicshelf/pkg/jwtx"
	"github.com/comicshelf/comicshelf/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store          store.Store
	AuthService    *service.AuthService
	ProfileService *service.ProfileService
	ComicService   *service.ComicService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerProfile()
	r.registerComics()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}

	// POST /register - strict rate limit by IP (account creation)
	r.Mux.Handle("POST /api/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// GET /verify/{token} - moderate rate limit (clicked from mail, but the
	// secret is brute-forceable in principle)
	r.Mux.Handle("GET /api/verify/{token}",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /login - strict rate limit by IP (authentication attempts)
	r.Mux.Handle("POST /api/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /forgot-password - strict rate limit by IP (each hit rotates a
	// password and sends mail)
	r.Mux.Handle("POST /api/forgot-password",
		httpx.Chain(http.HandlerFunc(h.HandleForgotPassword),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /change-password - strict rate limit by IP (carries the old
	// password, same brute-force surface as login)
	r.Mux.Handle("POST /api/change-password",
		httpx.Chain(http.HandlerFunc(h.HandleChangePassword),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /resend-verification - moderate rate limit by IP
	r.Mux.Handle("POST /api/resend-verification",
		httpx.Chain(http.HandlerFunc(h.HandleResendVerification),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// GET /protected - authenticated echo endpoint
	r.Mux.Handle("GET /api/protected",
		httpx.Chain(ProtectedHandler(),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerProfile() {
	h := &ProfileHandler{ProfileService: r.ProfileService}

	secured := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		)
	}

	r.Mux.Handle("GET /api/profile", secured(h.HandleGet))
	r.Mux.Handle("PUT /api/profile", secured(h.HandleUpdate))
}

func (r *Router) registerComics() {
	h := &ComicHandler{ComicService: r.ComicService}

	secured := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		)
	}

	r.Mux.Handle("GET /api/comic/protected", secured(ProtectedHandler()))
	r.Mux.Handle("GET /api/comic/reading-list", secured(h.HandleReadingList))
	r.Mux.Handle("GET /api/comic/last-chapter/{slug}", secured(h.HandleLastChapter))
	r.Mux.Handle("POST /api/comic/update-progress", secured(h.HandleUpdateProgress))
	r.Mux.Handle("POST /api/comic/favorites", secured(h.HandleAddFavorite))
	r.Mux.Handle("DELETE /api/comic/favorites/{slug}", secured(h.HandleRemoveFavorite))
	r.Mux.Handle("GET /api/comic/favorites", secured(h.HandleListFavorites))
}

func (r *Router) registerSystem() {
	// Welcome message at the exact root; everything unmatched falls through
	// to the shared error envelope.
	r.Mux.Handle("GET /{$}",
		httpx.Chain(WelcomeHandler(),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("/", NotFoundHandler())

	// Health check endpoints - lenient rate limits (monitoring systems may
	// poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
