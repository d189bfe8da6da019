package live

// message is one complete logical inbound message.
type message struct {
	kind FrameKind // FrameText or FrameBinary
	data []byte
}

// reassembler accumulates fragmented data frames into complete messages.
// At most one fragmented message is ever open per direction, so a single
// growable buffer is the whole data structure. The buffer is non-empty only
// between a non-final fragment and its terminating final fragment.
type reassembler struct {
	open bool
	kind FrameKind
	buf  []byte
}

// push consumes one data frame and reports a complete message when f
// finished one. Control frames must not be pushed; stray continuations
// (no message open) are dropped.
func (r *reassembler) push(f Frame) (message, bool) {
	switch f.Kind {
	case FrameText, FrameBinary:
		if f.Final && !r.open {
			return message{kind: f.Kind, data: f.Payload}, true
		}
		if !r.open {
			r.open = true
			r.kind = f.Kind
			r.buf = r.buf[:0]
		}
		r.buf = append(r.buf, f.Payload...)
	case FrameContinuation:
		if !r.open {
			return message{}, false
		}
		r.buf = append(r.buf, f.Payload...)
	default:
		return message{}, false
	}

	if !f.Final {
		return message{}, false
	}
	data := make([]byte, len(r.buf))
	copy(data, r.buf)
	kind := r.kind
	r.reset()
	return message{kind: kind, data: data}, true
}

// reset discards any partial message, as required when a close frame arrives
// mid-fragmentation.
func (r *reassembler) reset() {
	r.open = false
	r.buf = r.buf[:0]
}
