package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/interviewkit/internal/common"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// mapError writes the response for an error returned by the auth services.
// Messages never reveal which check failed.
func mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrPrincipalNotFound):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, "could not validate credentials")
	case errors.Is(err, common.ErrForbidden):
		writeError(w, http.StatusForbidden, "insufficient permissions")
	case errors.Is(err, common.ErrDuplicateIdentifier):
		writeError(w, http.StatusConflict, "user id already registered")
	case errors.Is(err, common.ErrInvalidIdentifier):
		writeError(w, http.StatusBadRequest, "invalid user id")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
