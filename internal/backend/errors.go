package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionExpired is returned for 401 responses. The in-flight action is
	// abandoned and the caller must re-authenticate out of band.
	ErrSessionExpired = errors.New("session expired")

	// ErrDeliveryFailed is returned when a one-off send reached the server
	// but the message could not be delivered.
	ErrDeliveryFailed = errors.New("delivery failed")
)

// TransportError is a non-2xx response or an unreachable server. Message is
// the server's "message" field, surfaced verbatim to the operator.
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("request failed: %v", e.Err)
	case e.Message != "":
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }
