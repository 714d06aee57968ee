package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"clubflow/auth"
	"clubflow/club"
	"clubflow/event"
	"clubflow/review"
	"clubflow/token"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes domain error translation so every endpoint speaks
// the same envelope. A caller must be able to tell "this link no longer
// works" apart from "please fill in the required field"; storage failures
// stay generic and never leak details.
func writeError(w http.ResponseWriter, err error) {
	var vErr *review.ValidationError
	switch {
	case errors.Is(err, token.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Kind: "not_found", Message: "This feedback link is not recognized."})
	case errors.Is(err, token.ErrAlreadyUsed):
		writeJSON(w, http.StatusBadRequest, errorBody{Kind: "already_used", Message: "Feedback has already been submitted for this link."})
	case errors.Is(err, token.ErrExpired):
		writeJSON(w, http.StatusBadRequest, errorBody{Kind: "expired", Message: "This feedback link has expired."})
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, errorBody{Kind: "validation_error", Message: vErr.Error()})
	case errors.Is(err, review.ErrUnauthorized):
		writeJSON(w, http.StatusForbidden, errorBody{Kind: "unauthorized", Message: "You are not authorized for this query."})
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorBody{Kind: "invalid_credentials", Message: "Wrong email or password."})
	case errors.Is(err, auth.ErrWeakPassword):
		writeJSON(w, http.StatusBadRequest, errorBody{Kind: "validation_error", Message: err.Error()})
	case errors.Is(err, auth.ErrDuplicateEmail):
		writeJSON(w, http.StatusConflict, errorBody{Kind: "duplicate_email", Message: "That email is already registered."})
	case errors.Is(err, club.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Kind: "not_found", Message: "Club not found."})
	case errors.Is(err, event.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Kind: "not_found", Message: "Event not found."})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Kind: "internal", Message: "Something went wrong. Please try again later."})
	}
}

// errorKind labels a failure for metrics without exposing internals.
func errorKind(err error) string {
	var vErr *review.ValidationError
	switch {
	case errors.Is(err, token.ErrNotFound):
		return "not_found"
	case errors.Is(err, token.ErrAlreadyUsed):
		return "already_used"
	case errors.Is(err, token.ErrExpired):
		return "expired"
	case errors.As(err, &vErr):
		return "validation_error"
	default:
		return "internal"
	}
}
