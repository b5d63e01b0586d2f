package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/interviewkit/internal/common"
	"github.com/dmitrijs2005/interviewkit/internal/server/models"
	"github.com/go-chi/chi/v5/middleware"
)

type contextKey int

const principalKey contextKey = iota

func principalFromContext(ctx context.Context) *models.Principal {
	p, _ := ctx.Value(principalKey).(*models.Principal)
	return p
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		a.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// RequireAuth resolves the bearer access token into a principal and stores
// it on the request context.
func (a *API) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := common.ParseBearer(r.Header.Get(common.AuthorizationHeaderName))
		if !ok {
			a.metrics.ObserveRejection(common.ErrInvalidToken)
			mapError(w, common.ErrInvalidToken)
			return
		}

		p, err := a.guard.ResolvePrincipal(r.Context(), token)
		if err != nil {
			a.metrics.ObserveRejection(err)
			a.logger.Warn(r.Context(), "rejected", "path", r.URL.Path, "reason", err.Error())
			mapError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole must run after RequireAuth.
func (a *API) RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := a.guard.RequireRole(principalFromContext(r.Context()), role); err != nil {
				a.metrics.ObserveRejection(err)
				mapError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
