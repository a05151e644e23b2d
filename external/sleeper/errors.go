package sleeper

import (
	"errors"
	"fmt"
	"net/http"

	crerr "github.com/cockroachdb/errors"
)

// ErrTransient is matched by every failure worth retrying later.
var ErrTransient = crerr.New("sleeper transient failure")

var ErrUserNotFound = crerr.New("sleeper user not found")

// TransportError is a network-level failure: DNS, connect, timeout or a
// truncated body. No HTTP status was received.
type TransportError struct {
	Connector Connector
	URL       string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sleeper %s transport %s: %v", e.Connector, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransient }

func (e *TransportError) Retryable() bool { return true }

// HTTPStatusError is a non-2xx response. Body is abbreviated.
type HTTPStatusError struct {
	Connector  Connector
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("sleeper %s status=%d url=%s body=%s", e.Connector, e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) Is(target error) bool {
	return target == ErrTransient && e.Retryable()
}

func (e *HTTPStatusError) HTTPStatus() int { return e.StatusCode }

func (e *HTTPStatusError) Retryable() bool {
	return isRetryableStatus(e.StatusCode)
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// isCircuitFailure reports whether err says the upstream itself is unhealthy.
// A 404 for an unknown player is a healthy answer.
func isCircuitFailure(err error) bool {
	return errors.Is(err, ErrTransient)
}

// StatusCode extracts the upstream status from err, or 0 when none was received.
func StatusCode(err error) int {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}
