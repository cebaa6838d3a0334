package cli

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/onair/internal/adapters/driving/api"
	"github.com/custodia-labs/onair/internal/adapters/driving/tui"
)

var dashboardInterval time.Duration

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"tui"},
	Short:   "Watch channel status in an interactive terminal UI",
	Long: `Launch the terminal dashboard for a running 'onair serve'.

The dashboard polls the server for the capture state of every channel and
lets you run a monitor search against the selected channel.

Controls:
  ↑/k, ↓/j - Select channel
  /, Enter - Search the selected channel
  r        - Refresh now
  Esc      - Back / Cancel
  ?        - Toggle help
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

func init() {
	dashboardCmd.Flags().DurationVarP(&dashboardInterval, "interval", "i", tui.DefaultRefreshInterval, "status refresh interval")
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in dashboard: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := newDashboard()
	if err != nil {
		return err
	}

	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("dashboard error: %w", err)
	}
	return nil
}

func newDashboard() (*tui.App, error) {
	client := api.NewClient(serverAddr)
	app, err := tui.NewApp(&tui.Ports{
		Status:   client,
		Search:   client,
		Channels: channels,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create dashboard: %w", err)
	}
	return app.WithInterval(dashboardInterval), nil
}
