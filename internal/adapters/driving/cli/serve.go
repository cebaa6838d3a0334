package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/onair/internal/adapters/driving/api"
	"github.com/custodia-labs/onair/internal/adapters/driving/mcp"
	"github.com/custodia-labs/onair/internal/logger"
)

var (
	serveAddr      string
	serveNoCapture bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Capture channels, run scheduled tasks and serve the API",
	Long: `Runs the full pipeline until interrupted:

  - captures every configured channel into segments, then transcribes
    and indexes each closed segment
  - runs the scheduled retention sweep and entity monitor
  - serves POST /search, GET /status, GET /healthz, /ws and /mcp

Use --no-capture to run only the scheduler and API against an existing index.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "API listen address (default from server.addr)")
	serveCmd.Flags().BoolVar(&serveNoCapture, "no-capture", false, "do not capture channels")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr := serveAddr
	if addr == "" {
		addr = serverAddr
	}

	var server *api.Server
	if monitorService != nil {
		var err error
		if server, err = newAPIServer(); err != nil {
			return err
		}
	} else {
		logger.Warn("monitor service not configured, API disabled")
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	started := 0

	switch {
	case serveNoCapture:
	case captureService == nil:
		logger.Warn("capture service not configured, no channels will be recorded")
	case len(channels) == 0:
		logger.Warn("no channels configured, nothing to capture")
	default:
		started++
		g.Go(func() error {
			if err := captureService.Run(ctx); err != nil {
				return fmt.Errorf("capture: %w", err)
			}
			return nil
		})
	}

	if scheduler != nil && schedulerConfig.Enabled {
		started++
		g.Go(func() error {
			err := scheduler.Start(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("scheduler: %w", err)
			}
			return nil
		})
		defer func() {
			if err := scheduler.Stop(); err != nil {
				logger.Warn("scheduler stop: %v", err)
			}
		}()
	}

	if server != nil {
		started++
		g.Go(func() error {
			return server.Run(ctx, addr)
		})
	}

	if started == 0 {
		return errors.New("nothing to run: no capture, scheduler or monitor configured")
	}

	return g.Wait()
}

func newAPIServer() (*api.Server, error) {
	mcpServer, err := mcp.NewServer(mcpPorts())
	if err != nil {
		return nil, fmt.Errorf("creating MCP server: %w", err)
	}

	return api.NewServer(&api.Ports{
		Monitor: monitorService,
		Capture: captureService,
		MCP:     mcpServer.Handler(),
	})
}
