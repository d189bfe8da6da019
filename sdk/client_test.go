package vocalis

import (
	"errors"
	"net/url"
	"testing"

	"github.com/vocalis-ai/vocalis-go/pkg/core"
)

func TestNewClientDefaults(t *testing.T) {
	c, err := NewClient(WithAPIKey("k"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if got := c.baseURL.String(); got != defaultBaseURL {
		t.Fatalf("baseURL=%q, want %q", got, defaultBaseURL)
	}
	if c.Listen == nil || c.Speak == nil || c.Projects == nil || c.Keys == nil || c.Auth == nil {
		t.Fatal("services must be wired")
	}
	if c.httpClient == nil || c.tracer == nil {
		t.Fatal("http client and tracer must default")
	}
}

func TestNewClientRejectsBadBaseURL(t *testing.T) {
	for name, raw := range map[string]string{
		"bad scheme": "ftp://api.example.com",
		"no host":    "https://",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewClient(WithAPIKey("k"), WithBaseURL(raw))
			var coreErr *core.Error
			if !errors.As(err, &coreErr) || coreErr.Type != core.ErrConfiguration {
				t.Fatalf("NewClient(%q)=%v, want a configuration error", raw, err)
			}
		})
	}
}

func TestAPIKeyFallsBackToEnvironment(t *testing.T) {
	t.Setenv(apiKeyEnv, "from-env")
	c, err := NewClient()
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if got := c.authHeaderValue(); got != "Token from-env" {
		t.Fatalf("auth header=%q", got)
	}
}

func TestAccessTokenTakesPrecedence(t *testing.T) {
	c, err := NewClient(WithAPIKey("key"), WithAccessToken("tok"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if got := c.authHeaderValue(); got != "Bearer tok" {
		t.Fatalf("auth header=%q, want the bearer token", got)
	}
}

func TestURLSchemeMapping(t *testing.T) {
	c, err := NewClient(WithAPIKey("k"), WithBaseURL("https://api.example.com"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if got := c.streamURL("/v2/listen", url.Values{"model": []string{"vega-2"}}); got != "wss://api.example.com/v2/listen?model=vega-2" {
		t.Fatalf("streamURL=%q", got)
	}
	if got := c.restURL("/v1/projects", nil); got != "https://api.example.com/v1/projects" {
		t.Fatalf("restURL=%q", got)
	}

	// A base URL mounted under a path prefix keeps the prefix.
	c, err = NewClient(WithAPIKey("k"), WithBaseURL("https://proxy.example.com/vocalis/"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if got := c.restURL("/v1/projects", nil); got != "https://proxy.example.com/vocalis/v1/projects" {
		t.Fatalf("restURL with prefix=%q", got)
	}
	if got := c.streamURL("/v2/listen", nil); got != "wss://proxy.example.com/vocalis/v2/listen" {
		t.Fatalf("streamURL with prefix=%q", got)
	}

	// A ws base maps the other way for REST calls.
	c, err = NewClient(WithAPIKey("k"), WithBaseURL("ws://api.example.com"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if got := c.restURL("/v1/projects", nil); got != "http://api.example.com/v1/projects" {
		t.Fatalf("restURL from ws base=%q", got)
	}
}
