package vocalis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/vocalis-ai/vocalis-go/pkg/core/live"
)

const (
	speakLivePath = "/v1/speak"

	defaultSpeakModel      = "vega-2-aria-en"
	defaultSpeakEncoding   = "linear16"
	defaultSpeakSampleRate = 24000
)

// SpeakService provides text-to-speech, both the live WebSocket endpoint
// and the REST endpoint.
type SpeakService struct {
	client *Client
}

// LiveSynthesisRequest configures a live synthesis session. Zero fields
// take the platform defaults.
type LiveSynthesisRequest struct {
	Model      string
	Encoding   string
	SampleRate int

	// KeepAlive is the interval between keepalive messages while the
	// session is idle. Zero disables them.
	KeepAlive time.Duration
}

// AudioChunk is one chunk of synthesized audio. Chunks arrive in the order
// the server produced them, interleaved with the control events below.
type AudioChunk struct {
	Data []byte
}

// SpeakMetadata is the first event of every live synthesis session.
type SpeakMetadata struct {
	RequestID uuid.UUID `json:"request_id"`
	ModelName string    `json:"model_name"`
}

// Flushed confirms a Flush: all audio for the text before it was delivered.
type Flushed struct {
	SequenceID int64 `json:"sequence_id"`
}

// Cleared confirms a Clear: buffered but unsent audio was discarded.
type Cleared struct {
	SequenceID int64 `json:"sequence_id"`
}

// Closed confirms the session's close control message was processed.
type Closed struct {
	SequenceID int64 `json:"sequence_id"`
}

// StreamClosed announces that the server is ending the stream. Unlike a
// transport close frame it arrives as an ordinary message, so any audio
// already in flight is still delivered ahead of it.
type StreamClosed struct {
	Code   int    `json:"code"`
	Reason string `json:"reason"`
}

// SpeakSession is a live text-to-speech session. Text goes in through
// Speak; audio and control confirmations come back through Next or Events.
type SpeakSession struct {
	handle *live.Handle
}

// Live opens a live synthesis session.
func (s *SpeakService) Live(ctx context.Context, req *LiveSynthesisRequest) (*SpeakSession, error) {
	if req == nil {
		req = &LiveSynthesisRequest{}
	}
	model := req.Model
	if model == "" {
		model = defaultSpeakModel
	}
	encoding := req.Encoding
	if encoding == "" {
		encoding = defaultSpeakEncoding
	}
	sampleRate := req.SampleRate
	if sampleRate == 0 {
		sampleRate = defaultSpeakSampleRate
	}

	q := url.Values{}
	q.Set("model", model)
	q.Set("encoding", encoding)
	q.Set("sample_rate", strconv.Itoa(sampleRate))

	target := s.client.streamURL(speakLivePath, q)
	transport, requestID, err := live.Dial(ctx, target, s.client.wsHeader())
	if err != nil {
		return nil, err
	}

	handle := live.NewSession(transport, speakDecoder{}, requestID, live.Config{
		CloseMessage:     []byte(`{"type":"Close"}`),
		KeepAlive:        req.KeepAlive,
		KeepAliveMessage: []byte(`{"type":"KeepAlive"}`),
		Logger:           s.client.logger,
	})
	return &SpeakSession{handle: handle}, nil
}

// Speak queues text for synthesis.
func (s *SpeakSession) Speak(ctx context.Context, text string) error {
	return s.handle.SendControl(ctx, map[string]string{"type": "Speak", "text": text})
}

// Flush forces delivery of all audio for the text sent so far. The server
// confirms with a Flushed event once that audio has been streamed.
func (s *SpeakSession) Flush(ctx context.Context) error {
	return s.handle.SendControl(ctx, map[string]string{"type": "Flush"})
}

// Clear discards audio the server has buffered but not yet sent, for
// barge-in. Confirmed with a Cleared event.
func (s *SpeakSession) Clear(ctx context.Context) error {
	return s.handle.SendControl(ctx, map[string]string{"type": "Clear"})
}

// Finish signals that no more text will be sent. The server streams the
// remaining audio, then closes; keep reading events until Next returns
// io.EOF.
func (s *SpeakSession) Finish() {
	s.handle.CloseSend()
}

// Next returns the next audio chunk or control event in server order. See
// TranscriptionSession.Next for the termination contract.
func (s *SpeakSession) Next(ctx context.Context) (live.Event, error) {
	return s.handle.Next(ctx)
}

// Events exposes the raw ordered event channel.
func (s *SpeakSession) Events() <-chan live.Item {
	return s.handle.Events()
}

// Done is closed when the session has fully terminated.
func (s *SpeakSession) Done() <-chan struct{} {
	return s.handle.Done()
}

// Err blocks until the session terminates and reports its terminal error,
// nil after a clean shutdown.
func (s *SpeakSession) Err() error {
	return s.handle.Err()
}

// RequestID identifies this session for support and log correlation.
func (s *SpeakSession) RequestID() uuid.UUID {
	return s.handle.RequestID()
}

// Close abandons the session without waiting for remaining audio.
func (s *SpeakSession) Close() error {
	return s.handle.Close()
}

// speakDecoder maps live synthesis wire messages to events. Binary frames
// are audio; text frames are control confirmations.
type speakDecoder struct{}

func (speakDecoder) DecodeText(data []byte) (live.Event, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("parse message envelope: %w", err)
	}
	switch envelope.Type {
	case "Metadata":
		var ev SpeakMetadata
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("parse Metadata: %w", err)
		}
		return ev, nil
	case "Flushed":
		var ev Flushed
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("parse Flushed: %w", err)
		}
		return ev, nil
	case "Cleared":
		var ev Cleared
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("parse Cleared: %w", err)
		}
		return ev, nil
	case "Closed":
		var ev Closed
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("parse Closed: %w", err)
		}
		return ev, nil
	case "StreamClosed":
		var ev StreamClosed
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("parse StreamClosed: %w", err)
		}
		return ev, nil
	case "Error":
		var ev RemoteError
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("parse Error: %w", err)
		}
		return ev, nil
	default:
		return UnknownEvent{Type: envelope.Type, Raw: json.RawMessage(data)}, nil
	}
}

func (speakDecoder) DecodeBinary(data []byte) (live.Event, bool) {
	audio := make([]byte, len(data))
	copy(audio, data)
	return AudioChunk{Data: audio}, true
}
