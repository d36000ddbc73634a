package services

import (
	"errors"
	"net/http"

	pulse_errors "civic-pulse/pkg/errors"
)

// HTTPStatus maps an error to a status by its category. Domain errors carry
// their category as Kind, so the code in the body stays specific.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, pulse_errors.ErrInvalidInput), errors.Is(err, pulse_errors.ErrInvalidTransition):
		return http.StatusBadRequest
	case errors.Is(err, pulse_errors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, pulse_errors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, pulse_errors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pulse_errors.ErrAlreadyExists), errors.Is(err, pulse_errors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, pulse_errors.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, pulse_errors.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, pulse_errors.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
