package apiclient

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means the credential is missing or was refused.
	ErrUnauthenticated = errors.New("not logged in")

	// ErrTransport means no response was received from the server.
	ErrTransport = errors.New("could not reach the server")

	// ErrInvalidPayload means a 2xx response could not be decoded or failed
	// validation.
	ErrInvalidPayload = errors.New("invalid server response")
)

// RemoteError is a non-2xx response. Message is the server's "error" field
// verbatim, or a generic fallback when the body carried none.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// TransportError wraps a network-level failure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", ErrTransport, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

func genericFailure(status int) string {
	return fmt.Sprintf("request failed with status %d", status)
}

// ErrorCode classifies err for observers.
func ErrorCode(err error) string {
	var remote *RemoteError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthenticated):
		return "UNAUTHENTICATED"
	case errors.Is(err, ErrTransport):
		return "TRANSPORT"
	case errors.Is(err, ErrInvalidPayload):
		return "INVALID_PAYLOAD"
	case errors.As(err, &remote):
		return "REMOTE"
	default:
		return "UNKNOWN"
	}
}
