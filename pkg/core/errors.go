package core

import (
	"fmt"
)

// Error is the canonical error type surfaced by the SDK.
type Error struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Code      string    `json:"code,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code: %s)", e.Type, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error wrapping.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes errors.
type ErrorType string

const (
	// ErrConfiguration covers invalid targets or parameters detected before
	// any I/O happens. Never retried.
	ErrConfiguration ErrorType = "configuration_error"
	// ErrHandshake covers a rejected upgrade or a missing/malformed
	// request-id header. The session never reaches the open state.
	ErrHandshake ErrorType = "handshake_error"
	// ErrTransport covers I/O and protocol failures after the session opened.
	ErrTransport ErrorType = "transport_error"
	// ErrDecode covers a single inbound message that failed to parse. The
	// session continues past it.
	ErrDecode ErrorType = "decode_error"
	// ErrRemote covers an application-level error event sent by the server.
	ErrRemote ErrorType = "remote_error"
	// ErrSessionClosed is returned by sends after the session worker exited.
	ErrSessionClosed ErrorType = "session_closed"
	// ErrAPI covers non-2xx REST responses.
	ErrAPI ErrorType = "api_error"
	// ErrAuthentication covers rejected credentials on the REST surface.
	ErrAuthentication ErrorType = "authentication_error"
	// ErrRateLimit covers 429 REST responses.
	ErrRateLimit ErrorType = "rate_limit_error"
)

// NewConfigurationError creates a configuration error.
func NewConfigurationError(message string) *Error {
	return &Error{Type: ErrConfiguration, Message: message}
}

// NewHandshakeError creates a handshake error.
func NewHandshakeError(message string, cause error) *Error {
	return &Error{Type: ErrHandshake, Message: message, Cause: cause}
}

// NewTransportError wraps a transport-level failure.
func NewTransportError(cause error) *Error {
	return &Error{Type: ErrTransport, Message: cause.Error(), Cause: cause}
}

// NewDecodeError wraps a per-message decode failure.
func NewDecodeError(cause error) *Error {
	return &Error{Type: ErrDecode, Message: cause.Error(), Cause: cause}
}

// NewRemoteError creates an error from a server-sent error event.
func NewRemoteError(code, message string) *Error {
	return &Error{Type: ErrRemote, Message: message, Code: code}
}

// NewSessionClosedError reports a send into a terminated session.
func NewSessionClosedError() *Error {
	return &Error{Type: ErrSessionClosed, Message: "session is closed"}
}

// NewAPIError creates a generic API error.
func NewAPIError(message string) *Error {
	return &Error{Type: ErrAPI, Message: message}
}

// NewAuthenticationError creates an authentication error.
func NewAuthenticationError(message string) *Error {
	return &Error{Type: ErrAuthentication, Message: message}
}

// NewRateLimitError creates a rate limit error.
func NewRateLimitError(message string) *Error {
	return &Error{Type: ErrRateLimit, Message: message}
}

// IsFatal reports whether the error terminates its session's event sequence.
// Decode errors are yielded as single failed items; a closed-sender condition
// is a normal shutdown trigger rather than a failure.
func (e *Error) IsFatal() bool {
	switch e.Type {
	case ErrDecode, ErrSessionClosed:
		return false
	default:
		return true
	}
}

// IsRetryable reports whether a REST call may be retried.
func (e *Error) IsRetryable() bool {
	switch e.Type {
	case ErrRateLimit, ErrAPI:
		return true
	default:
		return false
	}
}
