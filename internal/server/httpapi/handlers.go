package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/interviewkit/internal/common"
	"github.com/dmitrijs2005/interviewkit/internal/server/auth"
	"github.com/dmitrijs2005/interviewkit/internal/server/models"
)

const maxBodySize = 1 << 16

// decodeJSON reads a JSON body into T. An empty body yields the zero value
// when allowEmpty is set.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request, allowEmpty bool) (T, bool) {
	var req T
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	err := json.NewDecoder(r.Body).Decode(&req)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return req, true
	}
	writeError(w, http.StatusBadRequest, "invalid request body")
	return req, false
}

func tokenResponse(pair *auth.TokenPair, p *models.Principal) TokenResponse {
	return TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    common.BearerScheme,
		UserID:       p.UID,
		Role:         p.Role.String(),
	}
}

// Signup handles POST /auth/signup.
func (a *API) Signup(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[SignupRequest](w, r, false)
	if !ok {
		return
	}

	p, err := a.sessions.Signup(r.Context(), req.UserID, req.Password, req.Role)
	a.metrics.ObserveSignup(err)
	if err != nil {
		a.logger.Error(r.Context(), "signup failed", "uid", req.UserID, "error", err.Error())
		mapError(w, err)
		return
	}

	a.logger.Info(r.Context(), "Signed up", "uid", p.UID)
	writeJSON(w, http.StatusCreated, SignupResponse{Message: "signed up", UserID: p.UID})
}

// Login handles POST /auth/login.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[LoginRequest](w, r, false)
	if !ok {
		return
	}

	pair, p, err := a.sessions.Login(r.Context(), req.UserID, req.Password)
	a.metrics.ObserveLogin(err)
	if err != nil {
		mapError(w, err)
		return
	}

	a.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, tokenResponse(pair, p))
}

// refreshTokenFrom looks in the cookie, then the query string, then the
// JSON body.
func refreshTokenFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	if c, err := r.Cookie(common.RefreshTokenCookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	if v := r.URL.Query().Get(common.RefreshTokenParamName); v != "" {
		return v, true
	}
	req, ok := decodeJSON[RefreshRequest](w, r, true)
	if !ok {
		return "", false
	}
	return req.RefreshToken, true
}

// Refresh handles POST /auth/refresh.
func (a *API) Refresh(w http.ResponseWriter, r *http.Request) {
	token, ok := refreshTokenFrom(w, r)
	if !ok {
		return
	}

	pair, p, err := a.sessions.Refresh(r.Context(), token)
	a.metrics.ObserveRefresh(err)
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) || errors.Is(err, common.ErrPrincipalNotFound) {
			a.clearRefreshCookie(w)
		}
		mapError(w, err)
		return
	}

	a.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, tokenResponse(pair, p))
}

// Logout handles POST /auth/logout. The cookie is cleared even when the
// presented token is missing or invalid.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := refreshTokenFrom(w, r)
	if !ok {
		return
	}

	if err := a.sessions.Logout(r.Context(), token); err != nil {
		a.logger.Error(r.Context(), "logout failed", "error", err.Error())
		mapError(w, err)
		return
	}

	a.clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
}

// Me handles GET /auth/me.
func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	p := principalFromContext(r.Context())
	writeJSON(w, http.StatusOK, MeResponse{
		UserID:    p.UID,
		Role:      p.Role.String(),
		StarCount: p.StarCount,
	})
}

// AdminOnly handles GET /auth/admin-only.
func (a *API) AdminOnly(w http.ResponseWriter, r *http.Request) {
	p := principalFromContext(r.Context())
	writeJSON(w, http.StatusOK, AdminResponse{Message: "welcome, admin", Admin: p.UID})
}

// Progress handles GET /my/progress.
func (a *API) Progress(w http.ResponseWriter, r *http.Request) {
	p := principalFromContext(r.Context())

	stars, err := a.profiles.Progress(r.Context(), p.ID)
	if err != nil {
		if errors.Is(err, common.ErrPrincipalNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		mapError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ProgressResponse{StarCount: stars})
}
