// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	geminiembed "github.com/custodia-labs/onair/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/onair/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/onair/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/onair/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/onair/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/onair/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/onair/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Services holds the AI adapters the pipeline runs with.
type Services struct {
	Embedder   driven.Embedder
	Summariser driven.Summariser
	Warnings   []string // Non-fatal issues, e.g. an unreachable summariser.
}

// Close releases all resources held by the services.
func (s *Services) Close() {
	if s.Embedder != nil {
		s.Embedder.Close()
	}
	if s.Summariser != nil {
		s.Summariser.Close()
	}
}

// Init builds and pings both services. The embedder is required; a missing
// or unreachable summariser is recorded as a warning because only the
// monitor needs it.
func Init(ctx context.Context, embedding *domain.EmbeddingSettings, llm *domain.LLMSettings) (*Services, error) {
	embedder, err := CreateAndValidateEmbedder(ctx, embedding)
	if err != nil {
		return nil, err
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: no embedding provider configured", domain.ErrEmbeddingUnavailable)
	}

	result := &Services{Embedder: embedder}

	summariser, err := CreateAndValidateSummariser(ctx, llm)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, err.Error())
	case summariser == nil:
		result.Warnings = append(result.Warnings, "no LLM provider configured, the monitor is disabled")
	default:
		result.Summariser = summariser
	}

	return result, nil
}

// CreateAndValidateEmbedder creates an embedder and validates connectivity.
// Returns nil, nil when embedding is not configured.
func CreateAndValidateEmbedder(ctx context.Context, settings *domain.EmbeddingSettings) (driven.Embedder, error) {
	svc, err := CreateEmbedder(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}

// CreateAndValidateSummariser creates a summariser and validates connectivity.
// Returns nil, nil when the LLM is not configured.
func CreateAndValidateSummariser(ctx context.Context, settings *domain.LLMSettings) (driven.Summariser, error) {
	svc, err := CreateSummariser(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrLLMUnavailable, err)
	}
	return svc, nil
}

// CreateEmbedder creates the embedder for the configured provider.
// Returns nil if the provider is not configured.
func CreateEmbedder(settings *domain.EmbeddingSettings) (driven.Embedder, error) {
	if settings == nil || !settings.IsConfigured() {
		if settings != nil && settings.Provider == domain.AIProviderAnthropic {
			return nil, fmt.Errorf("anthropic does not support embeddings, use gemini, ollama or openai")
		}
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderGemini:
		return geminiembed.NewEmbedder(geminiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbedder(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbedder(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	default:
		return nil, fmt.Errorf("%w: embedding provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
}

// CreateSummariser creates the summariser for the configured provider.
// Returns nil if the provider is not configured.
func CreateSummariser(settings *domain.LLMSettings) (driven.Summariser, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderGemini:
		return geminillm.NewSummariser(geminillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderOpenAI:
		return openaillm.NewSummariser(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewSummariser(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderOllama:
		return ollamallm.NewSummariser(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	default:
		return nil, fmt.Errorf("%w: LLM provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
}
