package live

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/vocalis-ai/vocalis-go/pkg/core"
)

const (
	defaultSendBuffer  = 1
	defaultEventBuffer = 256
)

// Handle is the caller-facing side of a session. It holds the sender half of
// the outbound channel and the receiver half of the event channel, and has
// no transport access of its own. Dropping it (Close) never deadlocks the
// worker: the worker treats a closed handle as a shutdown signal and runs
// the same close sequence as an orderly end of input.
type Handle struct {
	requestID uuid.UUID

	out   chan outbound
	items chan Item

	done         chan struct{}
	handleClosed chan struct{}
	closeOnce    sync.Once

	sendMu     sync.RWMutex
	sendClosed bool

	errMu sync.Mutex
	err   error
}

// NewSession starts a worker that owns t and returns the handle callers use
// to talk to it. The decoder defines the flavor's inbound vocabulary.
func NewSession(t Transport, decoder Decoder, requestID uuid.UUID, cfg Config) *Handle {
	sendBuf := cfg.SendBuffer
	if sendBuf <= 0 {
		sendBuf = defaultSendBuffer
	}
	eventBuf := cfg.EventBuffer
	if eventBuf <= 0 {
		eventBuf = defaultEventBuffer
	}

	h := &Handle{
		requestID:    requestID,
		out:          make(chan outbound, sendBuf),
		items:        make(chan Item, eventBuf),
		done:         make(chan struct{}),
		handleClosed: make(chan struct{}),
	}
	w := &worker{
		transport:    t,
		decoder:      decoder,
		cfg:          cfg,
		log:          cfg.logger().With("request_id", requestID),
		out:          h.out,
		items:        h.items,
		handleClosed: h.handleClosed,
		stopRead:     make(chan struct{}),
	}

	go func() {
		w.run()
		h.setErr(w.terminal)
		close(h.done)
		close(h.items)
	}()

	return h
}

// RequestID returns the server-assigned session identifier. Provide it with
// any support request about this session.
func (h *Handle) RequestID() uuid.UUID {
	return h.requestID
}

// Send enqueues one outbound data chunk, blocking while the bounded outbound
// queue is full. Chunk order is preserved end to end.
func (h *Handle) Send(ctx context.Context, data []byte) error {
	return h.send(ctx, outbound{binary: data})
}

// SendControl enqueues one JSON-encoded control message.
func (h *Handle) SendControl(ctx context.Context, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return core.NewConfigurationError(fmt.Sprintf("encode control message: %v", err))
	}
	return h.send(ctx, outbound{text: payload})
}

func (h *Handle) send(ctx context.Context, item outbound) error {
	h.sendMu.RLock()
	defer h.sendMu.RUnlock()
	if h.sendClosed {
		return core.NewSessionClosedError()
	}
	// Checked before offering the item: once the worker has exited, the
	// outbound buffer usually has free space, so the blocking select below
	// could otherwise accept a chunk nobody will ever read.
	select {
	case <-h.done:
		return core.NewSessionClosedError()
	case <-h.handleClosed:
		return core.NewSessionClosedError()
	default:
	}
	select {
	case h.out <- item:
		return nil
	case <-h.done:
		return core.NewSessionClosedError()
	case <-h.handleClosed:
		return core.NewSessionClosedError()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CloseSend announces that no more data or control messages will be sent.
// The worker responds by emitting the flavor's close sequence while it keeps
// draining inbound events. Safe to call more than once.
func (h *Handle) CloseSend() {
	h.sendMu.Lock()
	defer h.sendMu.Unlock()
	if !h.sendClosed {
		h.sendClosed = true
		close(h.out)
	}
}

// Next returns the next event in the order the session produced them.
// Decode failures surface as single non-fatal errors; after the stream ends
// Next returns the session's terminal error, or io.EOF after a clean close.
func (h *Handle) Next(ctx context.Context) (Event, error) {
	select {
	case item, ok := <-h.items:
		if !ok {
			if err := h.terminalErr(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		if item.Err != nil {
			return nil, item.Err
		}
		return item.Event, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Events exposes the raw ordered item stream. The channel closes when the
// session ends; check Err afterwards.
func (h *Handle) Events() <-chan Item {
	return h.items
}

// Done is closed when the worker has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err blocks until the session ends and returns its terminal error, if any.
func (h *Handle) Err() error {
	<-h.done
	return h.terminalErr()
}

// Close drops the handle: the send side is closed and the worker told to
// shut down without waiting for remaining inbound events. It returns once
// the worker has exited.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		// handleClosed first: it releases any Send parked on a full queue,
		// which in turn lets CloseSend take the send lock.
		close(h.handleClosed)
		h.CloseSend()
	})
	<-h.done
	return nil
}

func (h *Handle) setErr(err error) {
	if err == nil {
		return
	}
	h.errMu.Lock()
	defer h.errMu.Unlock()
	if h.err == nil {
		h.err = err
	}
}

func (h *Handle) terminalErr() error {
	h.errMu.Lock()
	defer h.errMu.Unlock()
	return h.err
}
