package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates the run cannot start with the given configuration.
	// Configuration errors are fatal and reported before any network call.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInterrupted indicates the run was stopped by a termination signal
	// after the pending set was saved.
	ErrInterrupted = errors.New("run interrupted")

	// Authentication Errors.

	// ErrAuthInvalid indicates the service rejected the credentials.
	ErrAuthInvalid = errors.New("authentication invalid")

	// ErrTokenRefreshFailed indicates token refresh operation failed.
	ErrTokenRefreshFailed = errors.New("token refresh failed")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// RemoteError is a non-success response from the upload service.
type RemoteError struct {
	// Op names the remote operation, e.g. "submit" or "task status".
	Op string

	// StatusCode is the HTTP status returned by the service.
	StatusCode int

	// Message is the error detail from the response body, if any.
	Message string

	// Err is an optional underlying sentinel (ErrAuthInvalid, ErrRateLimited).
	Err error
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s failed with HTTP error %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s failed with HTTP error %d", e.Op, e.StatusCode)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a server-side failure that is
// expected to clear on its own: any 5xx status, or 429 Too Many Requests.
func IsTransient(err error) bool {
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		return false
	}
	return remoteErr.StatusCode >= http.StatusInternalServerError ||
		remoteErr.StatusCode == http.StatusTooManyRequests
}
