package vocalis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vocalis-ai/vocalis-go/pkg/core"
	"github.com/vocalis-ai/vocalis-go/pkg/core/live"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsTestServer upgrades each connection with a request id header and hands
// it to handler. It records the upgrade request for header assertions.
type wsTestServer struct {
	srv       *httptest.Server
	requestID uuid.UUID

	mu      sync.Mutex
	lastReq *http.Request
}

func newWSTestServer(t *testing.T, handler func(*websocket.Conn)) *wsTestServer {
	t.Helper()
	ts := &wsTestServer{requestID: uuid.New()}
	ts.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.mu.Lock()
		ts.lastReq = r.Clone(context.Background())
		ts.mu.Unlock()
		conn, err := testUpgrader.Upgrade(w, r, http.Header{
			live.RequestIDHeader: []string{ts.requestID.String()},
		})
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(ts.srv.Close)
	return ts
}

func (ts *wsTestServer) client(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(WithAPIKey("test-key"), WithBaseURL(ts.srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func (ts *wsTestServer) upgradeRequest() *http.Request {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.lastReq
}

func writeJSON(conn *websocket.Conn, v any) {
	payload, _ := json.Marshal(v)
	conn.WriteMessage(websocket.TextMessage, payload)
}

func sendCodelessClose(conn *websocket.Conn) {
	conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(time.Second))
}

func TestLiveTranscriptionSession(t *testing.T) {
	t.Parallel()

	type received struct {
		audio     [][]byte
		texts     []string
		sawSentry bool
	}
	var (
		mu  sync.Mutex
		got received
	)

	ts := newWSTestServer(t, func(conn *websocket.Conn) {
		writeJSON(conn, map[string]any{"type": "Connected", "request_id": uuid.New(), "sequence_id": 0})

		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			mu.Lock()
			switch {
			case mt == websocket.BinaryMessage && len(data) == 0:
				got.sawSentry = true
			case mt == websocket.BinaryMessage:
				got.audio = append(got.audio, data)
			default:
				got.texts = append(got.texts, string(data))
			}
			closing := mt == websocket.TextMessage && string(data) == `{"type":"CloseStream"}`
			mu.Unlock()

			if closing {
				writeJSON(conn, map[string]any{
					"type": "TurnInfo", "event": "EndOfTurn", "turn_index": 0,
					"transcript": "hello world",
					"words": []map[string]any{
						{"word": "hello", "confidence": 0.98, "start": 0.0, "end": 0.4},
						{"word": "world", "confidence": 0.97, "start": 0.4, "end": 0.9},
					},
					"end_of_turn_confidence": 0.93,
				})
				writeJSON(conn, map[string]any{"type": "ShinyNewThing", "payload": 42})
				conn.WriteMessage(websocket.TextMessage, []byte(`{not json`))
				sendCodelessClose(conn)
				return
			}
		}
	})

	ctx := context.Background()
	sess, err := ts.client(t).Listen.Live(ctx, &LiveTranscriptionRequest{
		Options:    &ListenOptions{Model: "vega-2-general-en"},
		Encoding:   "linear16",
		SampleRate: 16000,
	})
	if err != nil {
		t.Fatalf("Live: %v", err)
	}
	defer sess.Close()

	if sess.RequestID() != ts.requestID {
		t.Fatalf("request id=%s, want %s", sess.RequestID(), ts.requestID)
	}
	if req := ts.upgradeRequest(); req.Header.Get("Authorization") != "Token test-key" {
		t.Fatalf("upgrade Authorization=%q", req.Header.Get("Authorization"))
	}
	if req := ts.upgradeRequest(); req.URL.Query().Get("sample_rate") != "16000" {
		t.Fatalf("upgrade query=%q", req.URL.RawQuery)
	}

	if err := sess.SendAudio(ctx, []byte{1, 2, 3}); err != nil {
		t.Fatalf("SendAudio: %v", err)
	}
	if err := sess.Finalize(ctx); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	sess.CloseStream()

	ev, err := sess.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if _, ok := ev.(Connected); !ok {
		t.Fatalf("first event %T, want Connected", ev)
	}

	ev, err = sess.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	turn, ok := ev.(TurnInfo)
	if !ok {
		t.Fatalf("second event %T, want TurnInfo", ev)
	}
	if turn.Event != TurnEnd || turn.Transcript != "hello world" || len(turn.Words) != 2 {
		t.Fatalf("turn=%+v", turn)
	}

	ev, err = sess.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	unknown, ok := ev.(UnknownEvent)
	if !ok || unknown.Type != "ShinyNewThing" {
		t.Fatalf("third event %T %+v, want the unknown fallback", ev, ev)
	}

	_, err = sess.Next(ctx)
	var coreErr *core.Error
	if !errors.As(err, &coreErr) || coreErr.Type != core.ErrDecode {
		t.Fatalf("unparseable message Next=%v, want a decode error", err)
	}

	if _, err := sess.Next(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("Next=%v, want io.EOF", err)
	}
	if err := sess.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got.audio) != 1 || got.audio[0][0] != 1 {
		t.Fatalf("server audio=%v", got.audio)
	}
	if !got.sawSentry {
		t.Fatal("end-of-data sentinel never arrived")
	}
	wantTexts := []string{`{"type":"Finalize"}`, `{"type":"CloseStream"}`}
	if len(got.texts) != 2 || got.texts[0] != wantTexts[0] || got.texts[1] != wantTexts[1] {
		t.Fatalf("control texts=%q, want %q", got.texts, wantTexts)
	}
}

func TestLiveTranscriptionCodedCloseIsError(t *testing.T) {
	t.Parallel()
	ts := newWSTestServer(t, func(conn *websocket.Conn) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "backend unavailable"),
			time.Now().Add(time.Second))
		conn.ReadMessage()
	})

	ctx := context.Background()
	sess, err := ts.client(t).Listen.Live(ctx, nil)
	if err != nil {
		t.Fatalf("Live: %v", err)
	}
	defer sess.Close()

	_, err = sess.Next(ctx)
	var closeErr *live.RemoteCloseError
	if !errors.As(err, &closeErr) || closeErr.Code != websocket.CloseInternalServerErr {
		t.Fatalf("Next=%v, want a remote close error", err)
	}
}
