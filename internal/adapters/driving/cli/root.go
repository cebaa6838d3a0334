// Package cli provides the cobra command tree for onair.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driving"
	"github.com/custodia-labs/onair/internal/logger"
)

var (
	version = "dev"
	verbose bool
)

// Services wired in by main. Commands check for nil before use.
var (
	settingsService  driving.SettingsService
	captureService   driving.CaptureService
	monitorService   driving.MonitorService
	transcriptSearch driving.TranscriptSearch
	retentionService driving.RetentionService
	repairService    driving.RepairService
	scheduler        driving.Scheduler
	schedulerConfig  domain.SchedulerConfig
	channels         []domain.Channel
	serverAddr       = ":3000"
)

// Services holds everything the commands may use.
type Services struct {
	Settings        driving.SettingsService
	Capture         driving.CaptureService
	Monitor         driving.MonitorService
	Transcripts     driving.TranscriptSearch
	Retention       driving.RetentionService
	Repair          driving.RepairService
	Scheduler       driving.Scheduler
	SchedulerConfig domain.SchedulerConfig
	Channels        []domain.Channel

	// ServerAddr is the API listen address, also used by clients of a running server.
	ServerAddr string
}

var rootCmd = &cobra.Command{
	Use:   "onair",
	Short: "Live broadcast capture, transcription and monitoring",
	Long: `onair records live radio and TV streams in fixed-length segments,
transcribes and indexes each segment, and watches recent coverage for
mentions of a watch list, sending a summary when something relevant airs.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetServices installs the services used by the commands.
func SetServices(s Services) {
	settingsService = s.Settings
	captureService = s.Capture
	monitorService = s.Monitor
	transcriptSearch = s.Transcripts
	retentionService = s.Retention
	repairService = s.Repair
	scheduler = s.Scheduler
	schedulerConfig = s.SchedulerConfig
	channels = s.Channels
	if s.ServerAddr != "" {
		serverAddr = s.ServerAddr
	}
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
