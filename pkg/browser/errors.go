package browser

import (
	"errors"
	"fmt"
	"time"
)

// ErrNavigationTimeout is returned when a page does not reach the
// DOMContentLoaded milestone within the navigation bound.
var ErrNavigationTimeout = errors.New("navigation timeout")

// NavigationTimeoutError records which navigation timed out.
type NavigationTimeoutError struct {
	URL     string
	Timeout time.Duration
	Err     error
}

func (e *NavigationTimeoutError) Error() string {
	msg := fmt.Sprintf("navigation to %s timed out after %s", e.URL, e.Timeout)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports ErrNavigationTimeout so callers can match with errors.Is.
func (e *NavigationTimeoutError) Is(target error) bool {
	return target == ErrNavigationTimeout
}

// Unwrap exposes the engine's underlying error.
func (e *NavigationTimeoutError) Unwrap() error {
	return e.Err
}
