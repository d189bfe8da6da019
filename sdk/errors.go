package vocalis

import (
	"fmt"
	"net/url"

	"github.com/vocalis-ai/vocalis-go/pkg/core"
)

// Error is the canonical SDK error type.
type Error = core.Error

// Error categories.
const (
	ErrConfiguration  = core.ErrConfiguration
	ErrHandshake      = core.ErrHandshake
	ErrTransport      = core.ErrTransport
	ErrDecode         = core.ErrDecode
	ErrRemote         = core.ErrRemote
	ErrSessionClosed  = core.ErrSessionClosed
	ErrAPI            = core.ErrAPI
	ErrAuthentication = core.ErrAuthentication
	ErrRateLimit      = core.ErrRateLimit
)

// TransportError represents HTTP transport-level failures (DNS, timeouts,
// connection reset, TLS handshake) while talking to the REST API.
//
// Use errors.As to distinguish transport failures from canonical API errors
// (*core.Error).
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Op != "" && e.URL != "":
		return fmt.Sprintf("transport error during %s %s: %v", e.Op, redactURLUserInfo(e.URL), e.Err)
	case e.Op != "":
		return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("transport error: %v", e.Err)
	}
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func redactURLUserInfo(raw string) string {
	if raw == "" {
		return raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil {
		return raw
	}
	parsed.User = nil
	return parsed.String()
}
