// Package openai embeds transcript chunks with OpenAI's /embeddings API
// or any service that speaks the same protocol.
package openai

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/onair/internal/adapters/driven/jsonapi"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
)

var _ driven.Embedder = (*Embedder)(nil)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second
)

// Config configures the OpenAI embedder. Only APIKey is required.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// Dimensions truncates text-embedding-3-* vectors. Zero keeps the model default.
	Dimensions int
}

type Embedder struct {
	api        *jsonapi.Client
	model      string
	dimensions int
}

type embeddingRequest struct {
	Model      string `json:"model"`
	Input      string `json:"input"`
	Dimensions int    `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func NewEmbedder(cfg Config) (*Embedder, error) {
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
	return &Embedder{
		api:        jsonapi.New("openai", cfg.BaseURL, cfg.Timeout, jsonapi.WithBearer(cfg.APIKey)),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed returns the vector for one chunk of text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var out embeddingResponse
	err := e.api.Post(ctx, "/embeddings", embeddingRequest{
		Model:      e.model,
		Input:      text,
		Dimensions: e.dimensions,
	}, &out)
	if err != nil {
		return nil, err
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, errors.New("openai: no embedding returned")
	}
	return out.Data[0].Embedding, nil
}

func (e *Embedder) ModelName() string {
	return e.model
}

// Ping lists models, which checks the key without spending tokens.
func (e *Embedder) Ping(ctx context.Context) error {
	return e.api.Get(ctx, "/models", nil)
}

func (e *Embedder) Close() error {
	return nil
}

