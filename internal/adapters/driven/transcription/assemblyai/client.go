// Package assemblyai implements driven.Transcriber against the AssemblyAI v2 REST API.
package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/custodia-labs/onair/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.Transcriber = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.assemblyai.com"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the AssemblyAI client.
type Config struct {
	// APIKey is the AssemblyAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.assemblyai.com).
	BaseURL string

	// Timeout bounds each request. Uploads of a full segment need headroom.
	Timeout time.Duration
}

// Client talks to /v2/upload and /v2/transcript.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	limiter *ratelimit.Limiter
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptRequest struct {
	AudioURL      string `json:"audio_url"`
	SpeakerLabels bool   `json:"speaker_labels"`
	LanguageCode  string `json:"language_code,omitempty"`
}

type transcriptResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Text       string `json:"text"`
	Error      string `json:"error"`
	Utterances []struct {
		Speaker string `json:"speaker"`
		Text    string `json:"text"`
		Start   int64  `json:"start"`
		End     int64  `json:"end"`
	} `json:"utterances"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewClient creates an AssemblyAI client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: assemblyai: API key is required", domain.ErrTranscriberUnavailable)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		limiter: ratelimit.New(ratelimit.ServiceAssemblyAI),
	}, nil
}

// Upload streams audio bytes and returns the private upload URL.
func (c *Client) Upload(ctx context.Context, audio io.Reader) (string, error) {
	var resp uploadResponse
	if err := c.do(ctx, http.MethodPost, "/v2/upload", "application/octet-stream", audio, &resp); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	if resp.UploadURL == "" {
		return "", fmt.Errorf("upload: no upload_url returned")
	}
	return resp.UploadURL, nil
}

// Submit creates a transcript job and returns its id.
func (c *Client) Submit(ctx context.Context, audioURL string, opts driven.TranscribeOptions) (string, error) {
	body, err := json.Marshal(transcriptRequest{
		AudioURL:      audioURL,
		SpeakerLabels: opts.SpeakerLabels,
		LanguageCode:  opts.LanguageCode,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var resp transcriptResponse
	if err := c.do(ctx, http.MethodPost, "/v2/transcript", "application/json", bytes.NewReader(body), &resp); err != nil {
		return "", fmt.Errorf("submit: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("submit: no transcript id returned")
	}
	return resp.ID, nil
}

// Status fetches a transcript and maps its status onto domain.JobStatus.
func (c *Client) Status(ctx context.Context, jobID string) (*driven.TranscriptStatus, error) {
	var resp transcriptResponse
	if err := c.do(ctx, http.MethodGet, "/v2/transcript/"+url.PathEscape(jobID), "", nil, &resp); err != nil {
		return nil, fmt.Errorf("status %s: %w", jobID, err)
	}

	status, err := mapStatus(resp.Status)
	if err != nil {
		return nil, err
	}

	out := &driven.TranscriptStatus{
		ID:     resp.ID,
		Status: status,
		Text:   resp.Text,
		Error:  resp.Error,
	}
	for _, u := range resp.Utterances {
		out.Utterances = append(out.Utterances, domain.Utterance{Speaker: u.Speaker, Text: u.Text})
	}
	return out, nil
}

// mapStatus translates AssemblyAI statuses. "queued" counts as submitted.
func mapStatus(s string) (domain.JobStatus, error) {
	switch s {
	case "queued":
		return domain.JobStatusSubmitted, nil
	case "processing":
		return domain.JobStatusProcessing, nil
	case "completed":
		return domain.JobStatusCompleted, nil
	case "error":
		return domain.JobStatusFailed, nil
	default:
		return "", fmt.Errorf("%w: unknown transcript status %q", domain.ErrInvalidInput, s)
	}
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if c.limiter.Observe(resp) {
		return fmt.Errorf("assemblyai: %w", domain.ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("assemblyai error (status %d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("assemblyai error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
