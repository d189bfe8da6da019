package vocalis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vocalis-ai/vocalis-go/pkg/core"
)

const listenRESTPath = "/v1/listen"

// AudioSource is an input for prerecorded transcription: either URLSource
// or ReaderSource.
type AudioSource interface {
	apply(req *http.Request) error
}

// URLSource points the server at audio it fetches itself.
type URLSource struct {
	URL string
}

func (s URLSource) apply(req *http.Request) error {
	payload, err := json.Marshal(map[string]string{"url": s.URL})
	if err != nil {
		return err
	}
	req.Body = io.NopCloser(bytes.NewReader(payload))
	req.ContentLength = int64(len(payload))
	req.Header.Set("Content-Type", "application/json")
	return nil
}

// ReaderSource uploads audio read from R with the given MIME type.
type ReaderSource struct {
	R        io.Reader
	MimeType string
}

func (s ReaderSource) apply(req *http.Request) error {
	req.Body = io.NopCloser(s.R)
	if s.MimeType != "" {
		req.Header.Set("Content-Type", s.MimeType)
	}
	return nil
}

// PrerecordedResponse is a batch transcription result.
type PrerecordedResponse struct {
	Metadata PrerecordedMetadata `json:"metadata"`
	Results  PrerecordedResults  `json:"results"`
}

type PrerecordedMetadata struct {
	RequestID string   `json:"request_id"`
	Created   string   `json:"created"`
	Duration  float64  `json:"duration"`
	Channels  int      `json:"channels"`
	Models    []string `json:"models"`
}

type PrerecordedResults struct {
	Channels []PrerecordedChannel `json:"channels"`
}

type PrerecordedChannel struct {
	Alternatives []PrerecordedAlternative `json:"alternatives"`
}

type PrerecordedAlternative struct {
	Transcript string     `json:"transcript"`
	Confidence float64    `json:"confidence"`
	Words      []TurnWord `json:"words"`
}

// Prerecorded transcribes a complete recording in one call.
func (s *ListenService) Prerecorded(ctx context.Context, source AudioSource, opts *ListenOptions) (*PrerecordedResponse, error) {
	if source == nil {
		return nil, core.NewConfigurationError("audio source is required")
	}
	q, err := opts.values()
	if err != nil {
		return nil, core.NewConfigurationError(fmt.Sprintf("encode listen options: %v", err))
	}
	target := s.client.restURL(listenRESTPath, q)

	ctx, span := s.client.tracer.Start(ctx, "vocalis.listen.prerecorded",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("url.path", listenRESTPath)))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, nil)
	if err != nil {
		return nil, core.NewConfigurationError(fmt.Sprintf("build request: %v", err))
	}
	s.client.setCommonHeaders(req)
	if err := source.apply(req); err != nil {
		return nil, core.NewConfigurationError(fmt.Sprintf("encode audio source: %v", err))
	}

	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		terr := &TransportError{Op: http.MethodPost, URL: target, Err: err}
		span.RecordError(terr)
		span.SetStatus(codes.Error, terr.Error())
		return nil, terr
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := responseError(resp)
		span.RecordError(apiErr)
		span.SetStatus(codes.Error, apiErr.Error())
		return nil, apiErr
	}
	var out PrerecordedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, core.NewDecodeError(fmt.Errorf("decode transcription response: %w", err))
	}
	return &out, nil
}
