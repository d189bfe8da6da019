package live

import (
	"log/slog"
	"time"

	"github.com/vocalis-ai/vocalis-go/pkg/core"
)

// Event is one decoded inbound item. Concrete types are defined by each
// session flavor's Decoder.
type Event any

// Item pairs an event with a per-item error so that decode failures take
// their place in the ordered stream without ending it.
type Item struct {
	Event Event
	Err   error
}

// Decoder turns complete inbound messages into events.
type Decoder interface {
	// DecodeText decodes one complete text message. A returned error marks
	// that single item as failed; it does not terminate the session.
	DecodeText(data []byte) (Event, error)
	// DecodeBinary decodes one complete binary message. Returning false
	// drops the message.
	DecodeBinary(data []byte) (Event, bool)
}

// Config shapes a session worker for one flavor.
type Config struct {
	// CloseMessage is the control payload announcing that no more data will
	// be sent. It is emitted when the caller closes the send side, and once
	// more, best effort, if the worker exits while the session is still
	// open. Delivery of that final send is not guaranteed.
	CloseMessage []byte
	// EmptyBinarySentinel additionally emits a zero-length binary frame as
	// an end-of-data marker before the close message, for flavors whose
	// protocol uses one.
	EmptyBinarySentinel bool
	// KeepAlive enables a periodic keepalive control frame while the
	// session is open. Zero disables it.
	KeepAlive time.Duration
	// KeepAliveMessage is the payload emitted on each keepalive tick.
	KeepAliveMessage []byte

	Logger *slog.Logger

	// Channel capacities; zero selects the defaults (1 outbound, 256 events).
	SendBuffer  int
	EventBuffer int
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

type sessionState int

const (
	stateOpen sessionState = iota
	stateClosing
	stateClosed
)

// outbound is one caller-submitted item: either a data chunk or an encoded
// control message.
type outbound struct {
	binary []byte
	text   []byte
}

type inboundFrame struct {
	frame Frame
	err   error
}

// worker owns the transport for the lifetime of one session. It is the only
// goroutine that touches session state, so no locking exists here.
type worker struct {
	transport Transport
	decoder   Decoder
	cfg       Config
	log       *slog.Logger

	out   <-chan outbound
	items chan<- Item

	// closed by Handle.Close; drop-of-handle is a first-class shutdown
	// signal, not an error.
	handleClosed <-chan struct{}
	// closed by run on exit so the read pump never blocks forever.
	stopRead chan struct{}

	terminal error
}

func (w *worker) readPump(frames chan<- inboundFrame) {
	for {
		f, err := w.transport.ReadFrame()
		select {
		case frames <- inboundFrame{frame: f, err: err}:
		case <-w.stopRead:
			return
		}
		if err != nil || f.Kind == FrameClose {
			return
		}
	}
}

func (w *worker) run() {
	frames := make(chan inboundFrame)
	go w.readPump(frames)

	var tick <-chan time.Time
	if w.cfg.KeepAlive > 0 {
		ticker := time.NewTicker(w.cfg.KeepAlive)
		defer ticker.Stop()
		tick = ticker.C
	}

	var ra reassembler
	state := stateOpen
	out := w.out

loop:
	for {
		select {
		case in, ok := <-frames:
			if !ok {
				break loop
			}
			if in.err != nil {
				w.terminal = core.NewTransportError(in.err)
				state = stateClosed
				break loop
			}
			if done := w.handleFrame(&ra, in.frame, &state); done {
				break loop
			}

		case item, ok := <-out:
			if !ok {
				// Sender dropped: no more data will ever arrive. Run the
				// close sequence but keep draining inbound messages that
				// are already in flight.
				w.sendCloseSequence()
				state = stateClosing
				out = nil
				continue
			}
			if err := w.writeOutbound(item); err != nil {
				w.terminal = core.NewTransportError(err)
				state = stateClosed
				break loop
			}

		case <-tick:
			if state != stateOpen {
				continue
			}
			if err := w.transport.WriteText(w.cfg.KeepAliveMessage); err != nil {
				w.terminal = core.NewTransportError(err)
				state = stateClosed
				break loop
			}

		case <-w.handleClosed:
			break loop
		}
	}

	// Best-effort shutdown: if the session never announced the end of its
	// data, try once and ignore failure.
	if state == stateOpen {
		w.sendCloseSequence()
	}
	_ = w.transport.WriteClose(1000, "")
	_ = w.transport.Close()
	close(w.stopRead)
}

// handleFrame processes one inbound frame, returning true when the session
// is over.
func (w *worker) handleFrame(ra *reassembler, f Frame, state *sessionState) bool {
	switch f.Kind {
	case FramePing:
		// Answered immediately, independent of any open fragmentation.
		if err := w.transport.WritePong(f.Payload); err != nil {
			w.log.Debug("pong write failed", "error", err)
		}
		return false
	case FramePong:
		return false
	case FrameClose:
		ra.reset()
		*state = stateClosed
		if f.Code != 0 {
			w.terminal = &RemoteCloseError{Code: f.Code, Reason: f.Reason}
		}
		return true
	default:
		msg, ok := ra.push(f)
		if !ok {
			return false
		}
		return !w.deliver(w.decode(msg))
	}
}

func (w *worker) decode(msg message) Item {
	if msg.kind == FrameBinary {
		ev, ok := w.decoder.DecodeBinary(msg.data)
		if !ok {
			return Item{}
		}
		return Item{Event: ev}
	}
	ev, err := w.decoder.DecodeText(msg.data)
	if err != nil {
		return Item{Err: core.NewDecodeError(err)}
	}
	return Item{Event: ev}
}

// deliver forwards one item to the caller, giving up when the handle has
// been dropped. Returns false when the session should end.
func (w *worker) deliver(item Item) bool {
	if item.Event == nil && item.Err == nil {
		return true
	}
	select {
	case w.items <- item:
		return true
	case <-w.handleClosed:
		return false
	}
}

func (w *worker) writeOutbound(item outbound) error {
	if item.text != nil {
		return w.transport.WriteText(item.text)
	}
	return w.transport.WriteBinary(item.binary)
}

func (w *worker) sendCloseSequence() {
	if w.cfg.EmptyBinarySentinel {
		if err := w.transport.WriteBinary(nil); err != nil {
			w.log.Debug("end-of-data sentinel write failed", "error", err)
			return
		}
	}
	if len(w.cfg.CloseMessage) > 0 {
		if err := w.transport.WriteText(w.cfg.CloseMessage); err != nil {
			w.log.Debug("close message write failed", "error", err)
		}
	}
}
