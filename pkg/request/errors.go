package request

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest is returned synchronously for malformed call arguments.
// No completion is delivered for such calls.
var ErrInvalidRequest = errors.New("invalid request")

// Messages used when the server gives nothing better.
const (
	MsgNoData      = "The server didn't return any data"
	MsgNoErrorInfo = "no further information available"
)

// TransportError means the HTTP exchange itself could not complete.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPStatusError is a non-2xx response.
type HTTPStatusError struct {
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("server responded with HTTP status %d", e.StatusCode)
	}
	return fmt.Sprintf("server responded with HTTP status %d (%s)", e.StatusCode, e.Status)
}

// ApplicationError is a failure reported by the endpoint inside the envelope.
type ApplicationError struct {
	Message string
}

func (e *ApplicationError) Error() string {
	return e.Message
}

// ProtocolError means the response body could not be read as an envelope.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// kindOf names the failure category for logging.
func kindOf(err error) string {
	var (
		te *TransportError
		he *HTTPStatusError
		ae *ApplicationError
		pe *ProtocolError
	)
	switch {
	case errors.As(err, &te):
		return "transport"
	case errors.As(err, &he):
		return "http"
	case errors.As(err, &ae):
		return "application"
	case errors.As(err, &pe):
		return "protocol"
	default:
		return "unknown"
	}
}
