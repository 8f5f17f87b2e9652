package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/enayetsyl/gtc-deploy-sub000/internal/platform/apperr"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/token"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: encode response: %v", err)
	}
}

// writeError maps the error taxonomy to HTTP status codes. Token failures
// collapse to one generic message so expiry, revocation, and malformation are
// indistinguishable to the caller.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrExpiredToken),
		errors.Is(err, apperr.ErrRevokedToken),
		errors.Is(err, apperr.ErrInvalidInviteKind),
		errors.Is(err, token.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid or expired token"})
	case errors.Is(err, apperr.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, apperr.ErrUnauthorized):
		writeJSON(w, http.StatusForbidden, errorBody{Error: err.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		log.Printf("server: internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Validationf("invalid request body: %v", err)
	}
	return nil
}
