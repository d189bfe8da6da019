package live

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vocalis-ai/vocalis-go/pkg/core"
)

// RequestIDHeader is the upgrade-response header carrying the server-assigned
// session identifier. It must be provided with any support request about a
// specific session.
const RequestIDHeader = "vx-request-id"

const defaultHandshakeTimeout = 15 * time.Second

// Dial opens the duplex connection and returns the transport together with
// the request id the server assigned to the session.
//
// The target must already carry its query string; retry policy belongs to the
// caller. When the upgrade succeeds but the request id header is missing or
// malformed, the socket is torn down and a handshake error returned, since
// the session could never be correlated for support.
func Dial(ctx context.Context, target string, header http.Header) (Transport, uuid.UUID, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, uuid.Nil, core.NewConfigurationError(fmt.Sprintf("invalid stream URL %q: %v", target, err))
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, uuid.Nil, core.NewConfigurationError(fmt.Sprintf("stream URL must use ws or wss, got %q", u.Scheme))
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: defaultHandshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, uuid.Nil, core.NewHandshakeError(fmt.Sprintf("websocket upgrade rejected (status %d)", resp.StatusCode), err)
		}
		return nil, uuid.Nil, core.NewHandshakeError("websocket connect failed", err)
	}

	raw := resp.Header.Get(RequestIDHeader)
	if raw == "" {
		_ = conn.Close()
		return nil, uuid.Nil, core.NewHandshakeError("upgrade response is missing the request id header", nil)
	}
	requestID, err := uuid.Parse(raw)
	if err != nil {
		_ = conn.Close()
		return nil, uuid.Nil, core.NewHandshakeError(fmt.Sprintf("malformed request id %q in upgrade response", raw), err)
	}

	return NewTransport(conn), requestID, nil
}
