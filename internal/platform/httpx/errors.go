// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for the domain layer. Services wrap these so handlers can
// map any failure to a transport status without inspecting message text.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		TypedProblem(w, http.StatusNotFound, "not-found", "Not Found", err.Error())
	case errors.Is(err, ErrForbidden):
		TypedProblem(w, http.StatusForbidden, "forbidden", "Forbidden", err.Error())
	case errors.Is(err, ErrUnauthorized):
		TypedProblem(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", err.Error())
	case errors.Is(err, ErrValidation):
		TypedProblem(w, http.StatusBadRequest, "validation-failed", "Validation Failed", err.Error())
	default:
		TypedProblem(w, http.StatusInternalServerError, "internal-error", "Internal Error", "")
	}
}
