package errors

import (
	"errors"
	"fmt"
)

// Common error types for the broker
var (
	// Startup errors
	ErrConfiguration = errors.New("configuration error")

	// Callback errors
	ErrProviderDenied    = errors.New("provider denied authorization")
	ErrMalformedCallback = errors.New("malformed callback")
	ErrStateMismatch     = errors.New("state mismatch")
	ErrExchangeFailed    = errors.New("token exchange failed")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrSessionSave     = errors.New("session save failed")
	ErrInvalidCookie   = errors.New("invalid session cookie")

	// Proxy errors
	ErrUnauthorized  = errors.New("unauthorized")
	ErrUpstreamAuth  = errors.New("upstream identity lookup failed")
	ErrUpstreamWrite = errors.New("upstream write failed")

	// General errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternal       = errors.New("internal error")
)

// UpstreamError carries the diagnostic detail of a failed downstream call.
// It unwraps to the sentinel in Kind so callers can classify it with Is.
type UpstreamError struct {
	Kind       error
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s: status %d", e.Kind, e.Op, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
}

func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
