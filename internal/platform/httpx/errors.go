// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/HenriqueProj/Web-App-BD/internal/shared"
)

// ErrUnauthorized is returned to JSON clients without a logged-in session.
var ErrUnauthorized = errors.New("unauthorized")

// StatusFor maps a domain error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, shared.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrCSRFTokenMissing), errors.Is(err, shared.ErrCSRFTokenMismatch):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage is the text safe to show for err. Store failures never leak driver detail.
func UserMessage(err error) string {
	var vErr *shared.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	switch StatusFor(err) {
	case http.StatusNotFound:
		return "The requested record does not exist."
	case http.StatusConflict:
		return "The record already exists or was already processed."
	case http.StatusUnauthorized:
		return "Please sign in to continue."
	case http.StatusForbidden:
		return "The form expired, please try again."
	default:
		return "Something went wrong, please try again later."
	}
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	Problem(w, status, http.StatusText(status), UserMessage(err))
}
