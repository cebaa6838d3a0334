// Package gemini embeds transcript chunks with Google's embedContent API.
package gemini

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/custodia-labs/onair/internal/adapters/driven/jsonapi"
	"github.com/custodia-labs/onair/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
)

var _ driven.Embedder = (*Embedder)(nil)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "text-embedding-004"
	DefaultTimeout = 30 * time.Second
)

// Config configures the Gemini embedder. Only APIKey is required.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type Embedder struct {
	api    *jsonapi.Client
	apiKey string
	model  string
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type embedContentRequest struct {
	Model   string  `json:"model"`
	Content content `json:"content"`
}

type embedContentResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

func NewEmbedder(cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
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
		api:    jsonapi.New("gemini", cfg.BaseURL, cfg.Timeout, jsonapi.WithLimiter(ratelimit.New(ratelimit.ServiceGemini))),
		apiKey: cfg.APIKey,
		model:  cfg.Model,
	}, nil
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var out embedContentResponse
	err := e.api.Post(ctx, e.modelPath(":embedContent"), embedContentRequest{
		Model:   "models/" + e.model,
		Content: content{Parts: []part{{Text: text}}},
	}, &out)
	if err != nil {
		return nil, err
	}
	if len(out.Embedding.Values) == 0 {
		return nil, errors.New("gemini: no embedding returned")
	}
	return out.Embedding.Values, nil
}

func (e *Embedder) ModelName() string {
	return e.model
}

// Ping fetches the model descriptor, which checks the key without inference.
func (e *Embedder) Ping(ctx context.Context) error {
	return e.api.Get(ctx, e.modelPath(""), nil)
}

func (e *Embedder) Close() error {
	return nil
}

// modelPath addresses a model method, authenticating with the key parameter.
func (e *Embedder) modelPath(method string) string {
	return "/models/" + url.PathEscape(e.model) + method + "?key=" + url.QueryEscape(e.apiKey)
}
