package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/clipflow-api/internal/queue"
)

// MapErrorToStatusCode maps domain errors to appropriate HTTP status codes.
// Unknown errors map to 500.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, queue.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, queue.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, queue.ErrNotCancellable):
		return http.StatusConflict
	case errors.Is(err, queue.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-safe message for the given error.
// Domain sentinels carry messages that are already safe to expose; any
// other error collapses to a generic message so internal details (paths,
// hosts, keys) never leak through the API.
func GetSafeErrorMessage(err error) string {
	switch {
	case errors.Is(err, queue.ErrQueueFull):
		return queue.ErrQueueFull.Error()
	case errors.Is(err, queue.ErrNotFound):
		return queue.ErrNotFound.Error()
	case errors.Is(err, queue.ErrNotCancellable):
		return queue.ErrNotCancellable.Error()
	case errors.Is(err, queue.ErrServiceUnavailable):
		return queue.ErrServiceUnavailable.Error()
	default:
		return "an internal error occurred"
	}
}
