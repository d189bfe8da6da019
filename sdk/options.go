package vocalis

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the Vocalis API key.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithAccessToken authenticates with a short-lived access token instead of
// an API key (see AuthService.GrantToken).
func WithAccessToken(token string) ClientOption {
	return func(c *Client) {
		c.accessToken = token
	}
}

// WithBaseURL overrides the API host, e.g. for self-hosted deployments or
// tests. Accepts http, https, ws, or wss schemes.
func WithBaseURL(rawURL string) ClientOption {
	return func(c *Client) {
		c.rawBaseURL = rawURL
	}
}

// WithHTTPClient sets a custom HTTP client for the REST surface.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithLogger sets the logger for the client and its sessions.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithTracer sets the OpenTelemetry tracer used to span REST requests.
func WithTracer(t trace.Tracer) ClientOption {
	return func(c *Client) {
		c.tracer = t
	}
}

// WithRetries sets the maximum number of retries for idempotent REST
// requests. Zero (the default) disables retrying.
func WithRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryBackoff sets the initial backoff between retries.
func WithRetryBackoff(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryBackoff = d
	}
}
