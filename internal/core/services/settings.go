package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
	"github.com/custodia-labs/onair/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDataDir = "data_dir"

	keyChunkDuration    = "capture.chunk_duration"
	keyProbeInterval    = "capture.probe_interval"
	keyDeleteAfterIndex = "capture.delete_after_index"

	keyTranscribeProvider = "transcription.provider"
	keyTranscribeAPIKey   = "transcription.api_key"
	keyTranscribeBaseURL  = "transcription.base_url"
	keyTranscribePoll     = "transcription.poll_interval"

	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"

	keyLLMProvider = "llm.provider"
	keyLLMModel    = "llm.model"
	keyLLMBaseURL  = "llm.base_url"
	keyLLMAPIKey   = "llm.api_key"

	keyVectorProvider  = "vector_store.provider"
	keyVectorHost      = "vector_store.host"
	keyVectorAPIKey    = "vector_store.api_key"
	keyVectorNamespace = "vector_store.namespace"

	keyRetentionEnabled = "retention.enabled"
	keyRetentionHorizon = "retention.horizon"
	keyRetentionAt      = "retention.at"
	keyRetentionPage    = "retention.page_size"

	keyMonitorEnabled     = "monitor.enabled"
	keyMonitorInterval    = "monitor.interval"
	keyMonitorLookback    = "monitor.lookback"
	keyMonitorDelay       = "monitor.channel_delay"
	keyMonitorTopK        = "monitor.top_k"
	keyMonitorStrictToday = "monitor.strict_today"
	keyMonitorChannels    = "monitor.channels"
	keyMonitorWatchList   = "monitor.watch_list"

	keyNotifyProvider   = "notify.provider"
	keyNotifySID        = "notify.account_sid"
	keyNotifyToken      = "notify.auth_token"
	keyNotifyFrom       = "notify.from"
	keyNotifyRecipients = "notify.recipients"

	keyServerAddr = "server.addr"

	keyChannels = "channels"
)

// SettingsService maps the flat config store onto typed settings.
// Secret values may reference environment variables as ${NAME}.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	channels, err := s.getChannels()
	if err != nil {
		return nil, err
	}

	settings := &domain.AppSettings{
		DataDir: expandHome(s.getString(keyDataDir, d.DataDir)),
		Capture: domain.CaptureSettings{
			ChunkDuration:    s.getDuration(keyChunkDuration, d.Capture.ChunkDuration),
			ProbeInterval:    s.getDuration(keyProbeInterval, d.Capture.ProbeInterval),
			DeleteAfterIndex: s.getBool(keyDeleteAfterIndex, d.Capture.DeleteAfterIndex),
		},
		Transcription: domain.TranscriptionSettings{
			Provider:     s.getString(keyTranscribeProvider, d.Transcription.Provider),
			APIKey:       s.getSecret(keyTranscribeAPIKey),
			BaseURL:      s.configStore.GetString(keyTranscribeBaseURL),
			PollInterval: s.getDuration(keyTranscribePoll, d.Transcription.PollInterval),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:    s.configStore.GetString(keyEmbedModel),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.getSecret(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:    s.configStore.GetString(keyLLMModel),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.getSecret(keyLLMAPIKey),
		},
		VectorStore: domain.VectorStoreSettings{
			Provider:  s.getVectorProvider(d.VectorStore.Provider),
			Host:      s.configStore.GetString(keyVectorHost),
			APIKey:    s.getSecret(keyVectorAPIKey),
			Namespace: s.configStore.GetString(keyVectorNamespace),
		},
		Retention: domain.RetentionSettings{
			Enabled:  s.getBool(keyRetentionEnabled, d.Retention.Enabled),
			Horizon:  s.getDuration(keyRetentionHorizon, d.Retention.Horizon),
			At:       s.getString(keyRetentionAt, d.Retention.At),
			PageSize: s.getInt(keyRetentionPage, d.Retention.PageSize),
		},
		Monitor: domain.MonitorSettings{
			Enabled:      s.getBool(keyMonitorEnabled, d.Monitor.Enabled),
			Interval:     s.getDuration(keyMonitorInterval, d.Monitor.Interval),
			Lookback:     s.getDuration(keyMonitorLookback, d.Monitor.Lookback),
			ChannelDelay: s.getDuration(keyMonitorDelay, d.Monitor.ChannelDelay),
			TopK:         s.getInt(keyMonitorTopK, d.Monitor.TopK),
			StrictToday:  s.getBool(keyMonitorStrictToday, d.Monitor.StrictToday),
			Channels:     s.configStore.GetStringSlice(keyMonitorChannels),
			WatchList:    s.configStore.GetStringSlice(keyMonitorWatchList),
		},
		Notify: domain.NotifySettings{
			Provider:   domain.NotifyProvider(s.getString(keyNotifyProvider, string(d.Notify.Provider))),
			AccountSID: s.getSecret(keyNotifySID),
			AuthToken:  s.getSecret(keyNotifyToken),
			From:       s.configStore.GetString(keyNotifyFrom),
			Recipients: s.configStore.GetStringSlice(keyNotifyRecipients),
		},
		Server: domain.ServerSettings{
			Addr: s.getString(keyServerAddr, d.Server.Addr),
		},
		Channels: channels,
	}

	// Fill unset models from provider defaults
	if settings.Embedding.Model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	if settings.LLM.Model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}

	return settings, nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	// Validate provider supports embeddings
	valid := false
	for _, p := range domain.AllEmbeddingProviders() {
		if p == provider {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}

	cfg := domain.EmbeddingSettings{Provider: provider, Model: model, APIKey: apiKey}
	if provider.IsLocal() {
		cfg.BaseURL = s.getString(keyEmbedBaseURL, "http://localhost:11434")
	}
	if s.aiValidator != nil {
		if err := s.aiValidator.ValidateEmbedding(&cfg); err != nil {
			return err
		}
	}

	return s.setAll(map[string]any{
		keyEmbedProvider: provider.String(),
		keyEmbedModel:    cfg.Model,
		keyEmbedBaseURL:  cfg.BaseURL,
		keyEmbedAPIKey:   apiKey,
	})
}

// SetLLMProvider configures the summarisation provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}

	cfg := domain.LLMSettings{Provider: provider, Model: model, APIKey: apiKey}
	if provider.IsLocal() {
		cfg.BaseURL = s.getString(keyLLMBaseURL, "http://localhost:11434")
	}
	if s.aiValidator != nil {
		if err := s.aiValidator.ValidateLLM(&cfg); err != nil {
			return err
		}
	}

	return s.setAll(map[string]any{
		keyLLMProvider: provider.String(),
		keyLLMModel:    cfg.Model,
		keyLLMBaseURL:  cfg.BaseURL,
		keyLLMAPIKey:   apiKey,
	})
}

// Validate checks that the services the pipeline needs are configured.
// All problems are reported together.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var errs []error

	if len(settings.Channels) == 0 {
		errs = append(errs, fmt.Errorf("%w: no [[channels]] configured", domain.ErrInvalidInput))
	}
	seen := make(map[string]bool, len(settings.Channels))
	for _, c := range settings.Channels {
		if seen[c.ID] {
			errs = append(errs, fmt.Errorf("%w: duplicate channel %s", domain.ErrInvalidInput, c.ID))
		}
		seen[c.ID] = true
		if err := c.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	if !settings.Transcription.IsConfigured() {
		errs = append(errs, fmt.Errorf("%w: set transcription.api_key", domain.ErrTranscriberUnavailable))
	}
	if !settings.Embedding.IsConfigured() {
		errs = append(errs, fmt.Errorf("%w: set embedding.provider", domain.ErrEmbeddingUnavailable))
	}

	switch settings.VectorStore.Provider {
	case domain.VectorStorePinecone:
		if settings.VectorStore.Host == "" || settings.VectorStore.APIKey == "" {
			errs = append(errs, fmt.Errorf("%w: pinecone needs vector_store.host and vector_store.api_key",
				domain.ErrVectorStoreUnavailable))
		}
	case domain.VectorStoreSQLite, domain.VectorStoreMemory:
	default:
		errs = append(errs, fmt.Errorf("%w: vector store %q", domain.ErrUnsupportedType, settings.VectorStore.Provider))
	}

	if settings.Monitor.Enabled {
		if !settings.LLM.IsConfigured() {
			errs = append(errs, fmt.Errorf("%w: the monitor needs llm.provider", domain.ErrLLMUnavailable))
		}
		if len(settings.Monitor.WatchList) == 0 {
			errs = append(errs, fmt.Errorf("%w: monitor.watch_list is empty", domain.ErrInvalidInput))
		}
		for _, id := range settings.Monitor.Channels {
			if !seen[id] {
				errs = append(errs, fmt.Errorf("%w: monitor channel %s is not configured", domain.ErrInvalidInput, id))
			}
		}
		if settings.Notify.Provider == domain.NotifyTwilio &&
			(settings.Notify.AccountSID == "" || settings.Notify.AuthToken == "" || settings.Notify.From == "") {
			errs = append(errs, fmt.Errorf("%w: twilio needs account_sid, auth_token and from",
				domain.ErrNotifierUnavailable))
		}
	}

	if _, err := settings.SchedulerConfig().Task(domain.TaskIDRetentionSweep).NextRun(time.Now()); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) setAll(values map[string]any) error {
	for key, val := range values {
		if err := s.configStore.Set(key, val); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return nil
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getSecret reads a string and expands ${ENV} references.
func (s *SettingsService) getSecret(key string) string {
	return strings.TrimSpace(os.ExpandEnv(s.configStore.GetString(key)))
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetDuration(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getVectorProvider(defaultVal domain.VectorStoreProvider) domain.VectorStoreProvider {
	val := s.configStore.GetString(keyVectorProvider)
	if val == "" {
		return defaultVal
	}
	return domain.VectorStoreProvider(val)
}

// getChannels decodes the [[channels]] tables.
func (s *SettingsService) getChannels() ([]domain.Channel, error) {
	tables := s.configStore.GetMapSlice(keyChannels)
	channels := make([]domain.Channel, 0, len(tables))

	for i, t := range tables {
		c := domain.Channel{
			ID:       mapString(t, "id"),
			Name:     mapString(t, "name"),
			Kind:     domain.ChannelKind(mapString(t, "kind")),
			URL:      os.ExpandEnv(mapString(t, "url")),
			ProbeURL: os.ExpandEnv(mapString(t, "probe_url")),
			Dir:      expandHome(mapString(t, "dir")),
			Format:   mapString(t, "format"),
			Args:     mapStrings(t, "args"),
		}
		if c.Kind == "" {
			c.Kind = domain.ChannelKindStream
		}
		if c.ID == "" {
			return nil, fmt.Errorf("%w: channels[%d] has no id", domain.ErrInvalidInput, i)
		}
		channels = append(channels, c)
	}
	return channels, nil
}

func mapString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func mapStrings(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
