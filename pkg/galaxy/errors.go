package galaxy

import (
	"errors"
	"fmt"
	"net"
	"net/url"
)

// inactiveInvocationMsg is the exact err_msg Galaxy returns when asked to
// cancel an invocation that already reached a terminal state.
const inactiveInvocationMsg = "Cannot cancel an inactive workflow invocation."

// APIError is a non-2xx response from the Galaxy API.
type APIError struct {
	// Op is the operation that failed.
	Op string

	// StatusCode is the HTTP status returned by the server.
	StatusCode int

	// ErrMsg is the err_msg field from the response body, if any.
	ErrMsg string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.ErrMsg != "" {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.ErrMsg)
	}
	return fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
}

// IsRetryable reports whether the response indicates a transient server
// condition worth retrying.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// IsInactiveInvocation reports whether err is Galaxy refusing to cancel an
// invocation that is already terminal. Callers treat this as benign.
func IsInactiveInvocation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.ErrMsg == inactiveInvocationMsg
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// isRetryable reports whether the request should be retried. Transport
// failures are retried; application errors are not, except for 5xx/429
// which signal transient server trouble.
func isRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
