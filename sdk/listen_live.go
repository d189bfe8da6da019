package vocalis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/vocalis-ai/vocalis-go/pkg/core"
	"github.com/vocalis-ai/vocalis-go/pkg/core/live"
)

const listenLivePath = "/v2/listen"

// ListenService provides speech-to-text, both the live WebSocket endpoint
// and the prerecorded REST endpoint.
type ListenService struct {
	client *Client
}

// LiveTranscriptionRequest configures a live transcription session.
type LiveTranscriptionRequest struct {
	Options *ListenOptions

	// Audio format of the stream the caller will send.
	Encoding   string
	SampleRate int
	Channels   int

	// KeepAlive is the interval between keepalive messages while the
	// stream is idle. Zero disables them.
	KeepAlive time.Duration
}

// TurnEvent names the phase a TurnInfo message describes.
type TurnEvent string

const (
	TurnStart    TurnEvent = "StartOfTurn"
	TurnUpdate   TurnEvent = "Update"
	TurnEagerEnd TurnEvent = "EagerEndOfTurn"
	TurnResumed  TurnEvent = "TurnResumed"
	TurnEnd      TurnEvent = "EndOfTurn"
)

// Connected is the first event of every live transcription session.
type Connected struct {
	RequestID  uuid.UUID `json:"request_id"`
	SequenceID int64     `json:"sequence_id"`
}

// TurnWord is a single word within a turn.
type TurnWord struct {
	Word       string  `json:"word"`
	Confidence float64 `json:"confidence"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
}

// TurnInfo carries the transcript for one conversational turn, emitted
// incrementally as the turn develops.
type TurnInfo struct {
	RequestID           uuid.UUID  `json:"request_id"`
	SequenceID          int64      `json:"sequence_id"`
	Event               TurnEvent  `json:"event"`
	TurnIndex           int        `json:"turn_index"`
	AudioWindowStart    float64    `json:"audio_window_start"`
	AudioWindowEnd      float64    `json:"audio_window_end"`
	Transcript          string     `json:"transcript"`
	Words               []TurnWord `json:"words"`
	EndOfTurnConfidence float64    `json:"end_of_turn_confidence"`
}

// RemoteError is an application-level error the server pushed into the
// stream. It is fatal by convention: the server sends nothing useful after
// it, so callers should stop consuming and close the session.
type RemoteError struct {
	SequenceID  int64  `json:"sequence_id"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// UnknownEvent carries a message whose type tag this SDK version does not
// know. The raw payload is preserved so callers can inspect it.
type UnknownEvent struct {
	Type string
	Raw  json.RawMessage
}

// TranscriptionSession is a live speech-to-text session. Events arrive in
// server order through Next or Events; audio goes out through SendAudio.
type TranscriptionSession struct {
	handle *live.Handle
}

// Live opens a live transcription session.
func (s *ListenService) Live(ctx context.Context, req *LiveTranscriptionRequest) (*TranscriptionSession, error) {
	if req == nil {
		req = &LiveTranscriptionRequest{}
	}
	q, err := req.Options.values()
	if err != nil {
		return nil, core.NewConfigurationError(fmt.Sprintf("encode listen options: %v", err))
	}
	if req.Encoding != "" {
		q.Set("encoding", req.Encoding)
	}
	if req.SampleRate > 0 {
		q.Set("sample_rate", strconv.Itoa(req.SampleRate))
	}
	if req.Channels > 0 {
		q.Set("channels", strconv.Itoa(req.Channels))
	}

	target := s.client.streamURL(listenLivePath, q)
	transport, requestID, err := live.Dial(ctx, target, s.client.wsHeader())
	if err != nil {
		return nil, err
	}

	handle := live.NewSession(transport, listenDecoder{}, requestID, live.Config{
		CloseMessage:        []byte(`{"type":"CloseStream"}`),
		EmptyBinarySentinel: true,
		KeepAlive:           req.KeepAlive,
		KeepAliveMessage:    []byte(`{"type":"KeepAlive"}`),
		Logger:              s.client.logger,
	})
	return &TranscriptionSession{handle: handle}, nil
}

// SendAudio queues one chunk of raw audio. It blocks while the outbound
// buffer is full, returning early if ctx is done or the session ended.
func (s *TranscriptionSession) SendAudio(ctx context.Context, data []byte) error {
	return s.handle.Send(ctx, data)
}

// Finalize asks the server to flush any buffered interim transcript.
func (s *TranscriptionSession) Finalize(ctx context.Context) error {
	return s.handle.SendControl(ctx, map[string]string{"type": "Finalize"})
}

// CloseStream signals that no more audio will be sent. The server finishes
// transcribing what it has, then closes; keep reading events until Next
// returns io.EOF.
func (s *TranscriptionSession) CloseStream() {
	s.handle.CloseSend()
}

// Next returns the next event in server order. It returns io.EOF after a
// clean shutdown and the session's terminal error after a failure. A decode
// error is returned for the single affected message; the session continues.
func (s *TranscriptionSession) Next(ctx context.Context) (live.Event, error) {
	return s.handle.Next(ctx)
}

// Events exposes the raw ordered event channel.
func (s *TranscriptionSession) Events() <-chan live.Item {
	return s.handle.Events()
}

// Done is closed when the session has fully terminated.
func (s *TranscriptionSession) Done() <-chan struct{} {
	return s.handle.Done()
}

// Err blocks until the session terminates and reports its terminal error,
// nil after a clean shutdown.
func (s *TranscriptionSession) Err() error {
	return s.handle.Err()
}

// RequestID identifies this session for support and log correlation.
func (s *TranscriptionSession) RequestID() uuid.UUID {
	return s.handle.RequestID()
}

// Close abandons the session without waiting for the server to finish.
// Buffered events are dropped. Prefer CloseStream followed by draining
// events when the remaining transcript matters.
func (s *TranscriptionSession) Close() error {
	return s.handle.Close()
}

// Stream transcribes audio read from r, sending fixed-size chunks until EOF
// and then closing the stream. It returns once all audio is queued; the
// caller consumes events concurrently.
func (s *TranscriptionSession) Stream(ctx context.Context, r io.Reader, chunkSize int, delay time.Duration) error {
	return live.Pump(ctx, s.handle, live.NewChunker(r, chunkSize), delay)
}

// FromFile streams the audio file at path. See Stream.
func (s *TranscriptionSession) FromFile(ctx context.Context, path string, chunkSize int, delay time.Duration) error {
	f, err := os.Open(path)
	if err != nil {
		return core.NewConfigurationError(fmt.Sprintf("open audio file: %v", err))
	}
	defer f.Close()
	return s.Stream(ctx, f, chunkSize, delay)
}

// listenDecoder maps live transcription wire messages to events. Unknown
// type tags become UnknownEvent rather than errors so new server message
// kinds do not break older clients.
type listenDecoder struct{}

func (listenDecoder) DecodeText(data []byte) (live.Event, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("parse message envelope: %w", err)
	}
	switch envelope.Type {
	case "Connected":
		var ev Connected
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("parse Connected: %w", err)
		}
		return ev, nil
	case "TurnInfo":
		var ev TurnInfo
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("parse TurnInfo: %w", err)
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

func (listenDecoder) DecodeBinary(data []byte) (live.Event, bool) {
	// The transcription endpoint never sends binary payloads.
	return nil, false
}
