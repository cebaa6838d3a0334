// Package ollama summarises transcripts with a local Ollama chat model.
package ollama

import (
	"context"
	"strings"
	"time"

	"github.com/custodia-labs/onair/internal/adapters/driven/jsonapi"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
)

var _ driven.Summariser = (*Summariser)(nil)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 300 * time.Second
)

// Config configures the summariser. Every field has a default.
type Config struct {
	BaseURL string
	Model   string

	// Timeout is generous because the first request may load the model.
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

type options struct {
	Temperature float64 `json:"temperature,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *options      `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

func NewSummariser(cfg Config) *Summariser {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Summariser{api: jsonapi.New("ollama", cfg.BaseURL, cfg.Timeout), model: cfg.Model}
}

func (s *Summariser) Summarise(ctx context.Context, prompt, instructions string) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if instructions != "" {
		messages = append(messages, chatMessage{Role: "system", Content: instructions})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	var out chatResponse
	err := s.api.Post(ctx, "/api/chat", chatRequest{
		Model:    s.model,
		Messages: messages,
		Options:  &options{Temperature: 0.2},
	}, &out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Message.Content), nil
}

func (s *Summariser) ModelName() string {
	return s.model
}

// Ping lists local models, which fails fast when the server is down.
func (s *Summariser) Ping(ctx context.Context) error {
	return s.api.Get(ctx, "/api/tags", nil)
}

func (s *Summariser) Close() error {
	return nil
}
