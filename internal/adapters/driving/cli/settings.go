package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/onair/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure capture, transcription, AI providers, the vector
store, retention, monitoring and alert delivery.

Channels and the watch list are edited in the config file directly.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used to index and query transcripts.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider used to summarise monitored coverage.`,
	RunE:  runSettingsLLM,
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration",
	Long: `Checks that every service the pipeline needs is configured, then
pings the embedding and LLM providers.`,
	RunE: runSettingsValidate,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
	rootCmd.AddCommand(settingsCmd)
}

// field is one "  Label: value" line of settings output.
type field struct {
	label, value string
}

func printSection(cmd *cobra.Command, title string, fields []field) {
	cmd.Printf("[%s]\n", title)
	for _, f := range fields {
		cmd.Printf("  %s: %s\n", f.label, f.value)
	}
	cmd.Println()
}

func aiFields(provider domain.AIProvider, model, baseURL, apiKey string, ok bool) []field {
	fields := []field{
		{"Provider", provider.Description()},
		{"Model", model},
	}
	if provider.IsLocal() {
		fields = append(fields, field{"Base URL", baseURL})
	}
	if provider.RequiresAPIKey() {
		fields = append(fields, field{"API Key", showKey(apiKey)})
	}
	return append(fields, field{"Status", configured(ok)})
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	printSection(cmd, "General", []field{
		{"Data dir", settings.DataDir},
		{"Server", settings.Server.Addr},
		{"Channels", strconv.Itoa(len(settings.Channels))},
	})

	printSection(cmd, "Capture", []field{
		{"Chunk duration", settings.Capture.ChunkDuration.String()},
		{"Probe interval", settings.Capture.ProbeInterval.String()},
		{"Delete after index", yesNo(settings.Capture.DeleteAfterIndex)},
	})

	printSection(cmd, "Transcription", []field{
		{"Provider", orUnset(settings.Transcription.Provider)},
		{"API Key", showKey(settings.Transcription.APIKey)},
		{"Poll interval", settings.Transcription.PollInterval.String()},
		{"Status", configured(settings.Transcription.IsConfigured())},
	})

	emb, llm := settings.Embedding, settings.LLM
	printSection(cmd, "Embedding", aiFields(emb.Provider, emb.Model, emb.BaseURL, emb.APIKey, emb.IsConfigured()))
	printSection(cmd, "LLM", aiFields(llm.Provider, llm.Model, llm.BaseURL, llm.APIKey, llm.IsConfigured()))

	store := []field{{"Provider", string(settings.VectorStore.Provider)}}
	if settings.VectorStore.Provider == domain.VectorStorePinecone {
		store = append(store,
			field{"Host", orUnset(settings.VectorStore.Host)},
			field{"Namespace", orUnset(settings.VectorStore.Namespace)},
			field{"API Key", showKey(settings.VectorStore.APIKey)},
		)
	}
	printSection(cmd, "Vector Store", store)

	retention := []field{{"Enabled", yesNo(settings.Retention.Enabled)}}
	if settings.Retention.Enabled {
		retention = append(retention,
			field{"Horizon", settings.Retention.Horizon.String()},
			field{"Runs at", settings.Retention.At})
	}
	printSection(cmd, "Retention", retention)

	monitor := []field{{"Enabled", yesNo(settings.Monitor.Enabled)}}
	if settings.Monitor.Enabled {
		monitor = append(monitor,
			field{"Interval", settings.Monitor.Interval.String()},
			field{"Lookback", settings.Monitor.Lookback.String()},
			field{"Channels", orUnset(strings.Join(settings.Monitor.Channels, ", "))},
			field{"Watch list", orUnset(strings.Join(settings.Monitor.WatchList, ", "))},
		)
	}
	printSection(cmd, "Monitor", monitor)

	notify := []field{{"Provider", orUnset(string(settings.Notify.Provider))}}
	if settings.Notify.Provider == domain.NotifyTwilio {
		notify = append(notify,
			field{"From", orUnset(settings.Notify.From)},
			field{"Auth token", showKey(settings.Notify.AuthToken)})
	}
	notify = append(notify, field{"Recipients", strconv.Itoa(len(settings.Notify.Recipients))})
	printSection(cmd, "Notify", notify)

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Edit the config file or run 'onair settings embedding' / 'onair settings llm'.")
		return nil
	}
	cmd.Println("Configuration is valid.")
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return setupProvider(cmd, providerSetup{
		kind:     "Embedding",
		choices:  domain.AllEmbeddingProviders(),
		models:   domain.DefaultEmbeddingModels(),
		save:     settingsService.SetEmbeddingProvider,
		validate: settingsService.ValidateEmbeddingConfig,
	})
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return setupProvider(cmd, providerSetup{
		kind:     "LLM",
		choices:  domain.AllLLMProviders(),
		models:   domain.DefaultLLMModels(),
		save:     settingsService.SetLLMProvider,
		validate: settingsService.ValidateLLMConfig,
	})
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	var errs []error
	if err := settingsService.Validate(); err != nil {
		errs = append(errs, err)
	}

	cmd.Print("Embedding provider... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		errs = append(errs, err)
	} else {
		cmd.Println("OK")
	}

	cmd.Print("LLM provider... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		errs = append(errs, err)
	} else {
		cmd.Println("OK")
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}
	cmd.Println("Configuration is valid.")
	return nil
}

// providerSetup describes one interactive provider choice.
type providerSetup struct {
	kind     string
	choices  []domain.AIProvider
	models   map[domain.AIProvider]string
	save     func(provider domain.AIProvider, model, apiKey string) error
	validate func() error
}

func setupProvider(cmd *cobra.Command, ps providerSetup) error {
	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Printf("Select %s Provider\n", ps.kind)
	for i, p := range ps.choices {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	provider := ps.choices[parseChoice(readLine(reader), len(ps.choices), 1)-1]

	model := ps.models[provider]
	cmd.Printf("Enter model name [%s]: ", model)
	if typed := readLine(reader); typed != "" {
		model = typed
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := ps.save(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", ps.kind, err)
	}

	cmd.Print("Validating configuration... ")
	if err := ps.validate(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s configuration validation failed: %w", ps.kind, err)
	}
	cmd.Println("OK")

	cmd.Printf("%s provider configured: %s (%s)\n\n", ps.kind, provider.Description(), model)
	return nil
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is a terminal.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func showKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	return maskAPIKey(key)
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}
