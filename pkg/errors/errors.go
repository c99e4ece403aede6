package voicebox_errors

import (
	"errors"
	"net/http"
)

// Common errors
var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrTooLarge       = errors.New("file too large")
	ErrUnsupported    = errors.New("unsupported media type")
	ErrSessionExpired = errors.New("session expired")
	ErrStorage        = errors.New("storage failure")
)

// HTTPStatus maps a service error to the status code the handlers respond with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrStorage):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
