// Package ollama embeds transcript chunks with a local Ollama server.
package ollama

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/onair/internal/adapters/driven/jsonapi"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
)

var _ driven.Embedder = (*Embedder)(nil)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "nomic-embed-text"
	DefaultTimeout = 30 * time.Second
)

// Config configures the embedder. Every field has a default.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

type Embedder struct {
	api   *jsonapi.Client
	model string
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func NewEmbedder(cfg Config) *Embedder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Embedder{api: jsonapi.New("ollama", cfg.BaseURL, cfg.Timeout), model: cfg.Model}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var out embedResponse
	if err := e.api.Post(ctx, "/api/embed", embedRequest{Model: e.model, Input: text}, &out); err != nil {
		return nil, err
	}
	if len(out.Embeddings) == 0 || len(out.Embeddings[0]) == 0 {
		return nil, errors.New("ollama: no embedding returned")
	}
	return out.Embeddings[0], nil
}

func (e *Embedder) ModelName() string {
	return e.model
}

// Ping lists local models, which fails fast when the server is down.
func (e *Embedder) Ping(ctx context.Context) error {
	return e.api.Get(ctx, "/api/tags", nil)
}

func (e *Embedder) Close() error {
	return nil
}
