package ai

import (
	"context"

	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator validates AI provider configurations.
type ConfigValidator struct{}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding builds the embedder and pings it.
// Returns nil if embedding is not configured.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	svc, err := CreateAndValidateEmbedder(context.Background(), config)
	if svc != nil {
		svc.Close()
	}
	return err
}

// ValidateLLM builds the summariser and pings it.
// Returns nil if the LLM is not configured.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	svc, err := CreateAndValidateSummariser(context.Background(), config)
	if svc != nil {
		svc.Close()
	}
	return err
}
