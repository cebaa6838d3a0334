package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or summarisation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google's Gemini API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// VectorStoreProvider selects the vector store backend.
type VectorStoreProvider string

// Available vector stores.
const (
	VectorStoreSQLite   VectorStoreProvider = "sqlite"
	VectorStorePinecone VectorStoreProvider = "pinecone"
	VectorStoreMemory   VectorStoreProvider = "memory"
)

// IsValid returns true if the provider is recognised.
func (p VectorStoreProvider) IsValid() bool {
	switch p {
	case VectorStoreSQLite, VectorStorePinecone, VectorStoreMemory:
		return true
	default:
		return false
	}
}

// NotifyProvider selects how alerts are delivered.
type NotifyProvider string

// Available notifiers.
const (
	NotifyTwilio NotifyProvider = "twilio"
	NotifyLog    NotifyProvider = "log"
)

// CaptureSettings configures segment capture.
type CaptureSettings struct {
	// ChunkDuration is the fixed segment length.
	ChunkDuration time.Duration

	// ProbeInterval is the recovery probe period.
	ProbeInterval time.Duration

	// DeleteAfterIndex removes segment files once indexed.
	DeleteAfterIndex bool
}

// TranscriptionSettings configures the transcription engine.
type TranscriptionSettings struct {
	Provider     string
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
}

// IsConfigured returns true if an engine can be built.
func (t TranscriptionSettings) IsConfigured() bool {
	return t.Provider != "" && t.APIKey != ""
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint override.
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds summarisation model configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint override.
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// VectorStoreSettings selects and configures the vector store.
type VectorStoreSettings struct {
	Provider VectorStoreProvider

	// Host is the Pinecone index host.
	Host      string
	APIKey    string
	Namespace string
}

// RetentionSettings configures the retention sweep.
type RetentionSettings struct {
	Enabled  bool
	Horizon  time.Duration
	At       string
	PageSize int
}

// MonitorSettings configures the scheduled entity monitor.
type MonitorSettings struct {
	Enabled      bool
	Interval     time.Duration
	Lookback     time.Duration
	ChannelDelay time.Duration
	TopK         int

	// StrictToday restricts queries to today's ingestion date only.
	StrictToday bool

	// Channels are the channel ids checked on each tick.
	Channels []string

	// WatchList names the entities to look for.
	WatchList []string
}

// NotifySettings configures alert delivery.
type NotifySettings struct {
	Provider   NotifyProvider
	AccountSID string
	AuthToken  string
	From       string
	Recipients []string
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Addr string
}

// AppSettings holds all application settings.
type AppSettings struct {
	DataDir       string
	Capture       CaptureSettings
	Transcription TranscriptionSettings
	Embedding     EmbeddingSettings
	LLM           LLMSettings
	VectorStore   VectorStoreSettings
	Retention     RetentionSettings
	Monitor       MonitorSettings
	Notify        NotifySettings
	Server        ServerSettings
	Channels      []Channel
}

// DefaultAppSettings returns settings with sensible defaults.
// External services are left unconfigured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Capture: CaptureSettings{
			ChunkDuration: 60 * time.Second,
			ProbeInterval: 10 * time.Second,
		},
		Transcription: TranscriptionSettings{
			Provider:     "assemblyai",
			PollInterval: 5 * time.Second,
		},
		VectorStore: VectorStoreSettings{
			Provider: VectorStoreSQLite,
		},
		Retention: RetentionSettings{
			Enabled:  true,
			Horizon:  48 * time.Hour,
			At:       "00:00",
			PageSize: 100,
		},
		Monitor: MonitorSettings{
			Enabled:      true,
			Interval:     10 * time.Minute,
			Lookback:     10 * time.Minute,
			ChannelDelay: 30 * time.Second,
			TopK:         10,
		},
		Notify: NotifySettings{
			Provider: NotifyLog,
		},
		Server: ServerSettings{
			Addr: ":3000",
		},
	}
}

// SchedulerConfig derives the scheduler task table from the settings.
func (s AppSettings) SchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled: s.Retention.Enabled || s.Monitor.Enabled,
		Tasks: map[string]TaskConfig{
			TaskIDRetentionSweep: {
				Enabled:  s.Retention.Enabled,
				Interval: 24 * time.Hour,
				At:       s.Retention.At,
			},
			TaskIDEntityMonitor: {
				Enabled:  s.Monitor.Enabled,
				Interval: s.Monitor.Interval,
			},
		},
	}
}

// Channel returns the configured channel with the given id.
func (s AppSettings) Channel(id string) (Channel, bool) {
	for _, c := range s.Channels {
		if c.ID == id {
			return c, true
		}
	}
	return Channel{}, false
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderGemini,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support summarisation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderGemini,
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini: "text-embedding-004",
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini:    "gemini-1.5-pro",
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}
