// Command onair captures live broadcast channels, transcribes and indexes
// them, and alerts on mentions of a watch list.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/onair/internal/adapters/driven/ai"
	"github.com/custodia-labs/onair/internal/adapters/driven/capture"
	"github.com/custodia-labs/onair/internal/adapters/driven/config/file"
	"github.com/custodia-labs/onair/internal/adapters/driven/notify/lognotify"
	"github.com/custodia-labs/onair/internal/adapters/driven/notify/twilio"
	"github.com/custodia-labs/onair/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/onair/internal/adapters/driven/storage/pinecone"
	"github.com/custodia-labs/onair/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/onair/internal/adapters/driven/transcription/assemblyai"
	"github.com/custodia-labs/onair/internal/adapters/driving/cli"
	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
	"github.com/custodia-labs/onair/internal/core/services"
	"github.com/custodia-labs/onair/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	configStore, err := file.NewConfigStore(os.Getenv("ONAIR_HOME"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	cli.SetVersion(version)

	settings, err := settingsService.Get()
	if err != nil {
		// Still let the user run 'settings' and 'version'
		logger.Warn("invalid configuration: %v", err)
		cli.SetServices(cli.Services{Settings: settingsService})
		return cli.Execute(ctx)
	}

	w, err := wire(ctx, settings)
	if err != nil {
		return err
	}
	defer w.Close()

	w.services.Settings = settingsService
	cli.SetServices(w.services)
	return cli.Execute(ctx)
}

// wiring holds the assembled services and everything that needs closing.
type wiring struct {
	services cli.Services
	closers  []io.Closer
	ai       *ai.Services
}

func (w *wiring) Close() {
	for i := len(w.closers) - 1; i >= 0; i-- {
		if err := w.closers[i].Close(); err != nil {
			logger.Warn("close: %v", err)
		}
	}
	if w.ai != nil {
		w.ai.Close()
	}
}

// wire builds adapters and services from settings. Services whose
// dependencies are missing are left nil; commands report them as not
// configured.
func wire(ctx context.Context, settings *domain.AppSettings) (*wiring, error) {
	w := &wiring{services: cli.Services{
		Channels:   settings.Channels,
		ServerAddr: settings.Server.Addr,
	}}

	dataDir := settings.DataDir
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".onair", "data")
	}

	db, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	w.closers = append(w.closers, db)

	store, err := vectorStore(settings.VectorStore, db)
	switch {
	case err != nil:
		logger.Warn("vector store unavailable: %v", err)
	case settings.VectorStore.Provider == domain.VectorStorePinecone:
		w.closers = append(w.closers, store)
	}

	aiServices, err := ai.Init(ctx, &settings.Embedding, &settings.LLM)
	if err != nil {
		logger.Warn("embedding unavailable: %v", err)
	} else {
		w.ai = aiServices
		for _, warning := range aiServices.Warnings {
			logger.Warn("%s", warning)
		}
	}

	if store != nil {
		w.services.Retention = services.NewRetentionSweeper(store, services.RetentionConfig{
			Horizon:  settings.Retention.Horizon,
			PageSize: settings.Retention.PageSize,
		})
		w.services.Repair = services.NewMetadataRepair(store, services.RepairConfig{
			ChunkDuration: settings.Capture.ChunkDuration,
		})
	}

	if store != nil && w.ai != nil {
		query := services.NewTimeWindowQuery(w.ai.Embedder, store, services.QueryConfig{
			TopK:        settings.Monitor.TopK,
			StrictToday: settings.Monitor.StrictToday,
		})
		w.services.Transcripts = query

		if w.ai.Summariser != nil {
			monitor, err := newMonitor(settings, query, w.ai.Summariser)
			if err != nil {
				logger.Warn("monitor unavailable: %v", err)
			} else {
				w.services.Monitor = monitor
			}
		}

		captureService, err := newCapture(settings, dataDir, store, w.ai.Embedder)
		if err != nil {
			logger.Warn("capture unavailable: %v", err)
		} else {
			w.services.Capture = captureService
		}
	}

	w.services.SchedulerConfig = settings.SchedulerConfig()
	// Tasks whose service is missing are skipped by the scheduler
	w.services.Scheduler = services.NewScheduler(
		w.services.SchedulerConfig,
		db.SchedulerStore(),
		w.services.Retention,
		w.services.Monitor,
	)

	return w, nil
}

func vectorStore(cfg domain.VectorStoreSettings, db *sqlite.Store) (driven.VectorStore, error) {
	switch cfg.Provider {
	case domain.VectorStorePinecone:
		store, err := pinecone.NewStore(pinecone.Config{
			Host:      cfg.Host,
			APIKey:    cfg.APIKey,
			Namespace: cfg.Namespace,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case domain.VectorStoreMemory:
		return memory.NewVectorStore(), nil
	case domain.VectorStoreSQLite, "":
		return db.VectorStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown vector store %q", domain.ErrInvalidInput, cfg.Provider)
	}
}

func newMonitor(settings *domain.AppSettings, query *services.TimeWindowQuery, summariser driven.Summariser) (*services.ScheduledMonitor, error) {
	notifier, err := newNotifier(settings.Notify)
	if err != nil {
		return nil, err
	}

	prompts, err := file.NewPromptStore(promptDir())
	if err != nil {
		return nil, err
	}

	var channels []domain.Channel
	for _, id := range settings.Monitor.Channels {
		ch, ok := settings.Channel(id)
		if !ok {
			// Monitored channels need not be captured by this process
			ch = domain.Channel{ID: id}
		}
		channels = append(channels, ch)
	}

	return services.NewScheduledMonitor(query, summariser, notifier, prompts, services.MonitorConfig{
		Channels:     channels,
		Recipients:   settings.Notify.Recipients,
		WatchList:    settings.Monitor.WatchList,
		Lookback:     settings.Monitor.Lookback,
		ChannelDelay: settings.Monitor.ChannelDelay,
	}), nil
}

func newNotifier(cfg domain.NotifySettings) (driven.Notifier, error) {
	switch cfg.Provider {
	case domain.NotifyTwilio:
		notifier, err := twilio.NewNotifier(twilio.Config{
			AccountSID: cfg.AccountSID,
			AuthToken:  cfg.AuthToken,
			From:       cfg.From,
		})
		if err != nil {
			return nil, err
		}
		return notifier, nil
	case domain.NotifyLog, "":
		return lognotify.NewNotifier(), nil
	default:
		return nil, fmt.Errorf("%w: unknown notifier %q", domain.ErrInvalidInput, cfg.Provider)
	}
}

func newCapture(settings *domain.AppSettings, dataDir string, store driven.VectorStore, embedder driven.Embedder) (*services.CaptureService, error) {
	if !settings.Transcription.IsConfigured() {
		return nil, fmt.Errorf("%w: transcription is not configured", domain.ErrTranscriberUnavailable)
	}
	if settings.Transcription.Provider != "assemblyai" {
		return nil, fmt.Errorf("%w: unknown transcription provider %q",
			domain.ErrTranscriberUnavailable, settings.Transcription.Provider)
	}

	engine, err := assemblyai.NewClient(assemblyai.Config{
		APIKey:  settings.Transcription.APIKey,
		BaseURL: settings.Transcription.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	index, err := file.NewChunkIndexStore(filepath.Join(dataDir, "state", "chunk-index"))
	if err != nil {
		return nil, err
	}

	pipeline := services.NewTranscriptionPipeline(engine, services.PipelineConfig{
		PollInterval: settings.Transcription.PollInterval,
	})

	return services.NewCaptureService(
		settings.Channels,
		capture.NewFactory(os.Getenv("ONAIR_FFMPEG")),
		index,
		pipeline,
		services.NewIndexWriter(embedder, store),
		services.CaptureConfig{
			SegmentDir:       filepath.Join(dataDir, "segments"),
			ChunkDuration:    settings.Capture.ChunkDuration,
			ProbeInterval:    settings.Capture.ProbeInterval,
			DeleteAfterIndex: settings.Capture.DeleteAfterIndex,
		},
	), nil
}

func promptDir() string {
	if home := os.Getenv("ONAIR_HOME"); home != "" {
		return filepath.Join(home, "prompts")
	}
	return ""
}
