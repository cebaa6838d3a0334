// Package openai summarises transcripts with the OpenAI chat completions API.
package openai

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
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 120 * time.Second
)

// temperature keeps summaries close to the transcript wording.
const temperature = 0.2

// Config configures the summariser. Only APIKey is required.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type Summariser struct {
	api   *jsonapi.Client
	model string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func NewSummariser(cfg Config) (*Summariser, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
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
	return &Summariser{
		api:   jsonapi.New("openai", cfg.BaseURL, cfg.Timeout, jsonapi.WithBearer(cfg.APIKey)),
		model: cfg.Model,
	}, nil
}

// Summarise sends instructions as the system message, when present.
func (s *Summariser) Summarise(ctx context.Context, prompt, instructions string) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if instructions != "" {
		messages = append(messages, chatMessage{Role: "system", Content: instructions})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	var out chatCompletionResponse
	err := s.api.Post(ctx, "/chat/completions", chatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: temperature,
	}, &out)
	if err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", errors.New("openai: no choices returned")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func (s *Summariser) ModelName() string {
	return s.model
}

// Ping lists models, which checks the key without spending tokens.
func (s *Summariser) Ping(ctx context.Context) error {
	return s.api.Get(ctx, "/models", nil)
}

func (s *Summariser) Close() error {
	return nil
}
