package live

import "fmt"

// FrameKind identifies one transport-level frame type.
type FrameKind int

const (
	// FrameText opens (or wholly contains) a text message.
	FrameText FrameKind = iota
	// FrameBinary opens (or wholly contains) a binary message.
	FrameBinary
	// FrameContinuation carries further payload of a fragmented message.
	FrameContinuation
	// FramePing must be answered with a pong carrying the same payload.
	FramePing
	// FramePong is ignored by the engine.
	FramePong
	// FrameClose terminates the read side. Code zero means the peer closed
	// without a status code.
	FrameClose
)

func (k FrameKind) String() string {
	switch k {
	case FrameText:
		return "text"
	case FrameBinary:
		return "binary"
	case FrameContinuation:
		return "continuation"
	case FramePing:
		return "ping"
	case FramePong:
		return "pong"
	case FrameClose:
		return "close"
	default:
		return fmt.Sprintf("frame(%d)", int(k))
	}
}

// Frame is one transport-level unit of the duplex stream.
type Frame struct {
	Kind    FrameKind
	Payload []byte
	// Final marks the last fragment of a message. Always true for
	// unfragmented messages and control frames.
	Final bool
	// Code and Reason are set on close frames that carried a status code.
	Code   int
	Reason string
}

// RemoteCloseError reports that the server closed the session with an
// explicit status code.
type RemoteCloseError struct {
	Code   int
	Reason string
}

func (e *RemoteCloseError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("remote closed stream with code %d", e.Code)
	}
	return fmt.Sprintf("remote closed stream with code %d: %s", e.Code, e.Reason)
}

// Transport is the frame-level duplex connection a session worker owns.
// Implementations surface control frames inline and report an orderly end of
// the read side as a FrameClose, reserving errors for transport failures.
// Writes may be called from the worker goroutine only, except WritePong and
// WriteClose which implementations must make safe alongside other writes.
type Transport interface {
	ReadFrame() (Frame, error)
	WriteText(p []byte) error
	WriteBinary(p []byte) error
	WritePong(p []byte) error
	WriteClose(code int, reason string) error
	Close() error
}
