// Package jsonapi is the request plumbing shared by the embedding and
// summariser adapters: JSON in, JSON out, provider errors surfaced with
// their own message.
package jsonapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/onair/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/onair/internal/core/domain"
)

// maxErrorBody caps how much of an unrecognised error body is kept.
const maxErrorBody = 512

// Client talks to one provider's HTTP API.
type Client struct {
	name    string
	baseURL string
	http    *http.Client
	header  http.Header
	limiter *ratelimit.Limiter
}

// Option customises a Client.
type Option func(*Client)

// WithHeader sends key: value on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.header.Set(key, value) }
}

// WithBearer authenticates with an Authorization: Bearer token.
func WithBearer(token string) Option {
	return WithHeader("Authorization", "Bearer "+token)
}

// WithLimiter paces requests and honours the provider's 429 backoff.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// New creates a client. name prefixes every error it returns.
func New(name, baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		name:    name,
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		header:  make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Timeout() time.Duration { return c.http.Timeout }

// Post sends in as JSON and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

// Get decodes the response into out, which may be nil when only the
// status matters.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// StatusError is a non-2xx response.
type StatusError struct {
	Provider string
	Status   int
	Message  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Message)
}

// Unwrap lets callers match 429s against domain.ErrRateLimited.
func (e *StatusError) Unwrap() error {
	if e.Status == http.StatusTooManyRequests {
		return domain.ErrRateLimited
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	var body io.Reader = http.NoBody
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", c.name, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}
	defer resp.Body.Close()

	if c.limiter != nil {
		c.limiter.Observe(resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", c.name, err)
	}

	msg, hasErr := errorMessage(raw)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if !hasErr {
			msg = truncate(raw)
		}
		return &StatusError{Provider: c.name, Status: resp.StatusCode, Message: msg}
	}
	if hasErr {
		return fmt.Errorf("%s: %s", c.name, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.name, err)
	}
	return nil
}

// errorMessage reads the "error" member most providers return, either a
// plain string or an object with a message.
func errorMessage(raw []byte) (string, bool) {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) != nil || len(envelope.Error) == 0 || string(envelope.Error) == "null" {
		return "", false
	}

	var text string
	if json.Unmarshal(envelope.Error, &text) == nil {
		return text, text != ""
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(envelope.Error, &obj) == nil && obj.Message != "" {
		return obj.Message, true
	}
	return "", false
}

func truncate(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) > maxErrorBody {
		raw = raw[:maxErrorBody]
	}
	return string(raw)
}
