// Package anthropic summarises transcripts with the Claude Messages API.
package anthropic

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/custodia-labs/onair/internal/adapters/driven/jsonapi"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
)

var _ driven.Summariser = (*Summariser)(nil)

const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 1024

	anthropicVersion = "2023-06-01"
)

// Config configures the summariser. Only APIKey is required.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	MaxTokens int
}

type Summariser struct {
	api       *jsonapi.Client
	model     string
	maxTokens int
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

// text joins the text blocks, skipping tool use and other block types.
func (r messagesResponse) text() string {
	var b strings.Builder
	for _, block := range r.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

func NewSummariser(cfg Config) (*Summariser, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &Summariser{
		api: jsonapi.New("anthropic", cfg.BaseURL, cfg.Timeout,
			jsonapi.WithHeader("x-api-key", cfg.APIKey),
			jsonapi.WithHeader("anthropic-version", anthropicVersion)),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Summarise passes instructions as the top-level system prompt.
func (s *Summariser) Summarise(ctx context.Context, prompt, instructions string) (string, error) {
	var out messagesResponse
	err := s.api.Post(ctx, "/v1/messages", messagesRequest{
		Model:       s.model,
		Messages:    []message{{Role: "user", Content: prompt}},
		MaxTokens:   s.maxTokens,
		System:      instructions,
		Temperature: 0.2,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.text(), nil
}

func (s *Summariser) ModelName() string {
	return s.model
}

func (s *Summariser) Ping(ctx context.Context) error {
	return s.api.Get(ctx, "/v1/models", nil)
}

func (s *Summariser) Close() error {
	return nil
}
