// Package gemini summarises transcripts with Google's generateContent API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/onair/internal/adapters/driven/jsonapi"
	"github.com/custodia-labs/onair/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
)

var _ driven.Summariser = (*Summariser)(nil)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-1.5-pro"
	DefaultTimeout = 120 * time.Second
)

// Config configures the summariser. Only APIKey is required.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type Summariser struct {
	api    *jsonapi.Client
	apiKey string
	model  string
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

func NewSummariser(cfg Config) (*Summariser, error) {
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
	return &Summariser{
		api:    jsonapi.New("gemini", cfg.BaseURL, cfg.Timeout, jsonapi.WithLimiter(ratelimit.New(ratelimit.ServiceGemini))),
		apiKey: cfg.APIKey,
		model:  cfg.Model,
	}, nil
}

// Summarise returns the first candidate's text. A response with no
// candidates summarises to the empty string, which the monitor treats
// as nothing relevant.
func (s *Summariser) Summarise(ctx context.Context, prompt, instructions string) (string, error) {
	req := generateRequest{
		Contents:         []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{Temperature: 0.2},
	}
	if instructions != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: instructions}}}
	}

	var out generateResponse
	if err := s.api.Post(ctx, s.modelPath(":generateContent"), req, &out); err != nil {
		return "", err
	}
	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini: prompt blocked: %s", out.PromptFeedback.BlockReason)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text), nil
}

func (s *Summariser) ModelName() string {
	return s.model
}

// Ping fetches the model descriptor.
func (s *Summariser) Ping(ctx context.Context) error {
	return s.api.Get(ctx, s.modelPath(""), nil)
}

func (s *Summariser) Close() error {
	return nil
}

func (s *Summariser) modelPath(method string) string {
	return "/models/" + url.PathEscape(s.model) + method + "?key=" + url.QueryEscape(s.apiKey)
}
