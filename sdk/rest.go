package vocalis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vocalis-ai/vocalis-go/pkg/core"
)

// maxErrorBody bounds how much of an error response is read for the message.
const maxErrorBody = 2 << 10

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, query, nil, out, true)
}

func (c *Client) postJSON(ctx context.Context, path string, query url.Values, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return core.NewConfigurationError(fmt.Sprintf("encode request body: %v", err))
	}
	return c.doJSON(ctx, http.MethodPost, path, query, payload, out, false)
}

func (c *Client) patchJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return core.NewConfigurationError(fmt.Sprintf("encode request body: %v", err))
	}
	return c.doJSON(ctx, http.MethodPatch, path, nil, payload, out, false)
}

func (c *Client) deleteJSON(ctx context.Context, path string) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, nil, true)
}

// doJSON performs one REST call. Idempotent requests are retried (when the
// client is configured with retries) on transport failures, 429s, and 5xx
// responses, with exponential backoff.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body []byte, out any, idempotent bool) error {
	target := c.restURL(path, query)

	ctx, span := c.tracer.Start(ctx, fmt.Sprintf("vocalis.rest %s %s", method, path),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		))
	defer span.End()

	attempt := func(ctx context.Context) (err error, retryable bool) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return core.NewConfigurationError(fmt.Sprintf("build request: %v", err)), false
		}
		c.setCommonHeaders(req)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &TransportError{Op: method, URL: target, Err: err}, true
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if out == nil {
				_, _ = io.Copy(io.Discard, resp.Body)
				return nil, false
			}
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return core.NewDecodeError(fmt.Errorf("decode %s %s response: %w", method, path, err)), false
			}
			return nil, false
		}
		apiErr := responseError(resp)
		return apiErr, resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
	}

	var err error
	if idempotent && c.maxRetries > 0 {
		backoff := retry.WithMaxRetries(uint64(c.maxRetries), retry.NewExponential(c.retryBackoff))
		err = retry.Do(ctx, backoff, func(ctx context.Context) error {
			attemptErr, retryable := attempt(ctx)
			if attemptErr != nil && retryable {
				return retry.RetryableError(attemptErr)
			}
			return attemptErr
		})
	} else {
		err, _ = attempt(ctx)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) setCommonHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if v := c.authHeaderValue(); v != "" {
		req.Header.Set("Authorization", v)
	}
}

// responseError maps a non-2xx REST response onto the error taxonomy.
func responseError(resp *http.Response) *core.Error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body struct {
		ErrCode string `json:"err_code"`
		ErrMsg  string `json:"err_msg"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(raw, &body)
	message := body.ErrMsg
	if message == "" {
		message = body.Message
	}
	if message == "" {
		message = fmt.Sprintf("unexpected status %d", resp.StatusCode)
	}

	var apiErr *core.Error
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		apiErr = core.NewAuthenticationError(message)
	case resp.StatusCode == http.StatusTooManyRequests:
		apiErr = core.NewRateLimitError(message)
	default:
		apiErr = core.NewAPIError(message)
	}
	apiErr.Code = body.ErrCode
	apiErr.RequestID = resp.Header.Get("vx-request-id")
	return apiErr
}
