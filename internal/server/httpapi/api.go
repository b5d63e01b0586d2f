// Package httpapi exposes the auth services over HTTP with a chi router.
// Access tokens travel in the Authorization header; the refresh token is
// returned in the body and also set as an HttpOnly cookie.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/interviewkit/internal/logging"
	"github.com/dmitrijs2005/interviewkit/internal/server/auth"
	"github.com/dmitrijs2005/interviewkit/internal/server/metrics"
	"github.com/dmitrijs2005/interviewkit/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type sessionService interface {
	Signup(ctx context.Context, uid, password, role string) (*models.Principal, error)
	Login(ctx context.Context, uid, password string) (*auth.TokenPair, *models.Principal, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, *models.Principal, error)
	Logout(ctx context.Context, refreshToken string) error
}

type guard interface {
	ResolvePrincipal(ctx context.Context, accessToken string) (*models.Principal, error)
	RequireRole(p *models.Principal, role models.Role) error
}

type profileService interface {
	Progress(ctx context.Context, id int64) (int, error)
}

// API holds the dependencies needed by the REST handlers.
type API struct {
	sessions sessionService
	guard    guard
	profiles profileService
	metrics  *metrics.Metrics
	logger   logging.Logger

	cookieSecure bool
	refreshTTL   time.Duration
}

// Option configures the API instance.
type Option func(*API)

// WithSecureCookie sets the Secure attribute of the refresh cookie.
func WithSecureCookie(secure bool) Option {
	return func(a *API) {
		a.cookieSecure = secure
	}
}

// WithRefreshTTL sets the refresh cookie Max-Age.
func WithRefreshTTL(ttl time.Duration) Option {
	return func(a *API) {
		a.refreshTTL = ttl
	}
}

func New(l logging.Logger, sessions sessionService, g guard, profiles profileService, m *metrics.Metrics, opts ...Option) *API {
	a := &API{
		sessions:   sessions,
		guard:      g,
		profiles:   profiles,
		metrics:    m,
		logger:     l.With("module", "http_server"),
		refreshTTL: auth.DefaultRefreshTTL,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Router returns a chi.Router with all routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(a.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, StatusResponse{Status: "OK"})
	})
	r.Method(http.MethodGet, "/metrics", a.metrics.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", a.Signup)
		r.Post("/login", a.Login)
		r.Post("/refresh", a.Refresh)
		r.Post("/logout", a.Logout)
		r.With(a.RequireAuth).Get("/me", a.Me)
		r.With(a.RequireAuth, a.RequireRole(models.RoleAdmin)).Get("/admin-only", a.AdminOnly)
	})

	r.With(a.RequireAuth).Get("/my/progress", a.Progress)

	return r
}
