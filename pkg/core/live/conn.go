package live

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// readChunkSize bounds how much of a message a single frame carries. Messages
// larger than this surface as genuine fragment sequences.
const readChunkSize = 32 * 1024

const writeWait = 2 * time.Second

// wsTransport adapts a gorilla connection to the Transport interface.
type wsTransport struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	// pending holds control frames queued by gorilla's ping/pong handlers,
	// which run inside read calls.
	pendingMu sync.Mutex
	pending   []Frame

	// In-progress inbound message, read in bounded chunks.
	reader io.Reader
	kind   FrameKind
	first  bool
	buf    []byte
}

// NewTransport wraps an established websocket connection.
func NewTransport(conn *websocket.Conn) Transport {
	t := &wsTransport{conn: conn, buf: make([]byte, readChunkSize)}
	conn.SetPingHandler(func(appData string) error {
		t.queue(Frame{Kind: FramePing, Payload: []byte(appData), Final: true})
		return nil
	})
	conn.SetPongHandler(func(appData string) error {
		t.queue(Frame{Kind: FramePong, Payload: []byte(appData), Final: true})
		return nil
	})
	return t
}

func (t *wsTransport) queue(f Frame) {
	t.pendingMu.Lock()
	t.pending = append(t.pending, f)
	t.pendingMu.Unlock()
}

func (t *wsTransport) takePending() (Frame, bool) {
	t.pendingMu.Lock()
	defer t.pendingMu.Unlock()
	if len(t.pending) == 0 {
		return Frame{}, false
	}
	f := t.pending[0]
	t.pending = t.pending[1:]
	return f, true
}

func (t *wsTransport) ReadFrame() (Frame, error) {
	for {
		if f, ok := t.takePending(); ok {
			return f, nil
		}

		if t.reader == nil {
			messageType, r, err := t.conn.NextReader()
			if err != nil {
				// A handler may have queued a control frame before the
				// error surfaced; deliver it first.
				if f, ok := t.takePending(); ok {
					return f, nil
				}
				var closeErr *websocket.CloseError
				if errors.As(err, &closeErr) {
					if closeErr.Code == websocket.CloseNoStatusReceived {
						return Frame{Kind: FrameClose, Final: true}, nil
					}
					return Frame{Kind: FrameClose, Final: true, Code: closeErr.Code, Reason: closeErr.Text}, nil
				}
				return Frame{}, err
			}
			switch messageType {
			case websocket.TextMessage:
				t.kind = FrameText
			default:
				t.kind = FrameBinary
			}
			t.reader = r
			t.first = true
		}

		n, err := t.reader.Read(t.buf)
		kind := t.kind
		if !t.first {
			kind = FrameContinuation
		}
		switch {
		case err == nil && n == 0:
			continue
		case err == nil:
			t.first = false
			return Frame{Kind: kind, Payload: append([]byte(nil), t.buf[:n]...)}, nil
		case errors.Is(err, io.EOF):
			t.reader = nil
			return Frame{Kind: kind, Payload: append([]byte(nil), t.buf[:n]...), Final: true}, nil
		default:
			return Frame{}, err
		}
	}
}

func (t *wsTransport) WriteText(p []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteMessage(websocket.TextMessage, p)
}

func (t *wsTransport) WriteBinary(p []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteMessage(websocket.BinaryMessage, p)
}

func (t *wsTransport) WritePong(p []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteControl(websocket.PongMessage, p, time.Now().Add(writeWait))
}

func (t *wsTransport) WriteClose(code int, reason string) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}
