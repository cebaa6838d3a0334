package driving

import "github.com/custodia-labs/onair/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetLLMProvider configures the summarisation provider.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate checks that the services the pipeline needs are configured.
	Validate() error

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig pings the configured summarisation provider.
	ValidateLLMConfig() error
}
