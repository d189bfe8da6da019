package vocalis

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func prerecordedResponse() map[string]any {
	return map[string]any{
		"metadata": map[string]any{"request_id": "req-1", "duration": 7.5, "channels": 1},
		"results": map[string]any{
			"channels": []map[string]any{{
				"alternatives": []map[string]any{{
					"transcript": "hello world",
					"confidence": 0.99,
					"words": []map[string]any{
						{"word": "hello", "confidence": 0.99, "start": 0.1, "end": 0.5},
					},
				}},
			}},
		},
	}
}

func TestPrerecordedFromURL(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/listen" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type=%q", ct)
		}
		if got := r.URL.Query().Get("model"); got != "vega-2-general-en" {
			t.Errorf("model=%q", got)
		}
		var body struct {
			URL string `json:"url"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.URL != "https://example.com/call.wav" {
			t.Errorf("source url=%q", body.URL)
		}
		json.NewEncoder(w).Encode(prerecordedResponse())
	}))
	t.Cleanup(srv.Close)

	resp, err := restClient(t, srv).Listen.Prerecorded(context.Background(),
		URLSource{URL: "https://example.com/call.wav"},
		&ListenOptions{Model: "vega-2-general-en"})
	if err != nil {
		t.Fatalf("Prerecorded: %v", err)
	}
	if resp.Metadata.RequestID != "req-1" || resp.Metadata.Duration != 7.5 {
		t.Fatalf("metadata=%+v", resp.Metadata)
	}
	alt := resp.Results.Channels[0].Alternatives[0]
	if alt.Transcript != "hello world" || len(alt.Words) != 1 {
		t.Fatalf("alternative=%+v", alt)
	}
}

func TestPrerecordedFromReader(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "audio/wav" {
			t.Errorf("Content-Type=%q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "RIFFdata" {
			t.Errorf("body=%q", body)
		}
		json.NewEncoder(w).Encode(prerecordedResponse())
	}))
	t.Cleanup(srv.Close)

	resp, err := restClient(t, srv).Listen.Prerecorded(context.Background(),
		ReaderSource{R: strings.NewReader("RIFFdata"), MimeType: "audio/wav"}, nil)
	if err != nil {
		t.Fatalf("Prerecorded: %v", err)
	}
	if resp.Metadata.RequestID != "req-1" {
		t.Fatalf("metadata=%+v", resp.Metadata)
	}
}

func TestPrerecordedRequiresSource(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	if _, err := restClient(t, srv).Listen.Prerecorded(context.Background(), nil, nil); err == nil {
		t.Fatal("nil source must be rejected")
	}
}
