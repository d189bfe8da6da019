package live

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/vocalis-ai/vocalis-go/pkg/core"
)

// Chunker re-slices an io.Reader into fixed-size chunks. Every chunk except
// possibly the last has exactly size bytes.
type Chunker struct {
	r    io.Reader
	size int
}

// NewChunker returns a chunker producing chunks of the given size.
func NewChunker(r io.Reader, size int) *Chunker {
	return &Chunker{r: r, size: size}
}

// Next returns the next chunk, a short final chunk at end of input, or
// io.EOF once the reader is exhausted.
func (c *Chunker) Next() ([]byte, error) {
	buf := make([]byte, c.size)
	n, err := io.ReadFull(c.r, buf)
	switch {
	case err == nil:
		return buf, nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		return buf[:n], nil
	default:
		return nil, err
	}
}

// Pump forwards chunks from src to h in order, sleeping delay between
// chunks, then closes the send side when src is exhausted. The bounded
// outbound queue provides the backpressure: Pump blocks rather than buffer
// or drop when the session cannot keep up.
//
// A session that has already shut down is normal early termination, not an
// error: Pump returns nil for it.
func Pump(ctx context.Context, h *Handle, src *Chunker, delay time.Duration) error {
	for {
		chunk, err := src.Next()
		if errors.Is(err, io.EOF) {
			h.CloseSend()
			return nil
		}
		if err != nil {
			h.CloseSend()
			return err
		}

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := h.Send(ctx, chunk); err != nil {
			var coreErr *core.Error
			if errors.As(err, &coreErr) && coreErr.Type == core.ErrSessionClosed {
				return nil
			}
			return err
		}
	}
}
