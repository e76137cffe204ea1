package wabridge

import "errors"

var (
	// ErrNotHandled signals that no intent rule matched and the caller
	// should defer to the backend.
	ErrNotHandled = errors.New("message not handled by any rule")

	// ErrBackendUnavailable indicates the backend could not be reached
	// after all retry attempts.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrMissingBackendURL indicates the required backend base URL was
	// not configured.
	ErrMissingBackendURL = errors.New("BACKEND_URL is required")
)
