// Package vocalis provides the Vocalis speech platform SDK for Go.
//
// The client exposes live (WebSocket) transcription and synthesis sessions
// built on the session engine in pkg/core/live, plus the REST surfaces for
// batch transcription, synthesis, and project/key management.
package vocalis

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vocalis-ai/vocalis-go/pkg/core"
)

const (
	defaultBaseURL = "https://api.vocalis.ai"

	sdkVersion = "0.4.0"
	userAgent  = "vocalis-go/" + sdkVersion
)

// apiKeyEnv is the fallback credential source when no option provides one.
const apiKeyEnv = "VOCALIS_API_KEY"

// Client is the main entry point for the SDK.
type Client struct {
	Listen   *ListenService
	Speak    *SpeakService
	Projects *ProjectsService
	Keys     *KeysService
	Auth     *AuthService

	baseURL     *url.URL
	apiKey      string
	accessToken string

	httpClient   *http.Client
	logger       *slog.Logger
	tracer       trace.Tracer
	maxRetries   int
	retryBackoff time.Duration

	rawBaseURL string
}

// NewClient creates a new client. The API key is read from VOCALIS_API_KEY
// when no credential option is given. An invalid base URL is a configuration
// error; no network I/O happens here.
func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		logger:       slog.Default(),
		retryBackoff: 250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" && c.accessToken == "" {
		c.apiKey = os.Getenv(apiKeyEnv)
	}
	if c.rawBaseURL == "" {
		c.rawBaseURL = defaultBaseURL
	}
	base, err := url.Parse(c.rawBaseURL)
	if err != nil {
		return nil, core.NewConfigurationError(fmt.Sprintf("invalid base URL %q: %v", c.rawBaseURL, err))
	}
	switch base.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return nil, core.NewConfigurationError(fmt.Sprintf("base URL must use http, https, ws, or wss, got %q", base.Scheme))
	}
	if base.Host == "" {
		return nil, core.NewConfigurationError(fmt.Sprintf("base URL %q has no host", c.rawBaseURL))
	}
	c.baseURL = base

	if c.httpClient == nil {
		c.httpClient = newDefaultHTTPClient()
	}
	if c.tracer == nil {
		c.tracer = noop.NewTracerProvider().Tracer("vocalis-go")
	}

	c.Listen = &ListenService{client: c}
	c.Speak = &SpeakService{client: c}
	c.Projects = &ProjectsService{client: c}
	c.Keys = &KeysService{client: c}
	c.Auth = &AuthService{client: c}
	return c, nil
}

// authHeaderValue returns the Authorization value for the configured
// credential: access tokens take precedence over API keys.
func (c *Client) authHeaderValue() string {
	if c.accessToken != "" {
		return "Bearer " + c.accessToken
	}
	if c.apiKey != "" {
		return "Token " + c.apiKey
	}
	return ""
}

func (c *Client) wsHeader() http.Header {
	h := make(http.Header)
	h.Set("User-Agent", userAgent)
	if v := c.authHeaderValue(); v != "" {
		h.Set("Authorization", v)
	}
	return h
}

// restURL joins path onto the base URL with an http(s) scheme. A path
// prefix on the base URL, as with a reverse proxy mount, is kept.
func (c *Client) restURL(path string, query url.Values) string {
	u := *c.baseURL
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	u.Path = joinPath(u.Path, path)
	u.RawQuery = query.Encode()
	return u.String()
}

// streamURL joins path onto the base URL with a ws(s) scheme, per the
// upgrade target the live endpoints expect.
func (c *Client) streamURL(path string, query url.Values) string {
	u := *c.baseURL
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = joinPath(u.Path, path)
	u.RawQuery = query.Encode()
	return u.String()
}

func joinPath(base, path string) string {
	return strings.TrimSuffix(base, "/") + path
}
