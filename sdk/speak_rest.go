package vocalis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vocalis-ai/vocalis-go/pkg/core"
)

const speakRESTPath = "/v1/speak"

// SynthesisRequest configures a batch synthesis call. Zero fields take the
// platform defaults.
type SynthesisRequest struct {
	Text       string
	Model      string
	Encoding   string
	SampleRate int
}

// Synthesize converts text to speech in one call. The returned reader
// streams the raw audio body; the caller must close it.
func (s *SpeakService) Synthesize(ctx context.Context, req *SynthesisRequest) (io.ReadCloser, error) {
	if req == nil || req.Text == "" {
		return nil, core.NewConfigurationError("text is required")
	}

	q := url.Values{}
	if req.Model != "" {
		q.Set("model", req.Model)
	}
	if req.Encoding != "" {
		q.Set("encoding", req.Encoding)
	}
	if req.SampleRate > 0 {
		q.Set("sample_rate", strconv.Itoa(req.SampleRate))
	}
	target := s.client.restURL(speakRESTPath, q)

	payload, err := json.Marshal(map[string]string{"text": req.Text})
	if err != nil {
		return nil, core.NewConfigurationError(fmt.Sprintf("encode request body: %v", err))
	}

	ctx, span := s.client.tracer.Start(ctx, "vocalis.speak.synthesize",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("url.path", speakRESTPath)))
	defer span.End()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return nil, core.NewConfigurationError(fmt.Sprintf("build request: %v", err))
	}
	s.client.setCommonHeaders(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.httpClient.Do(httpReq)
	if err != nil {
		terr := &TransportError{Op: http.MethodPost, URL: target, Err: err}
		span.RecordError(terr)
		span.SetStatus(codes.Error, terr.Error())
		return nil, terr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		apiErr := responseError(resp)
		span.RecordError(apiErr)
		span.SetStatus(codes.Error, apiErr.Error())
		return nil, apiErr
	}
	return resp.Body, nil
}
