package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/onair/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

Tools:
  search_channel      summarise what a channel said about a topic
  recent_transcripts  raw transcript chunks similar to a query

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead. 'onair serve' also
mounts the MCP endpoint at /mcp.

Examples:
  # Stdio mode (default)
  onair mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  onair mcp serve --port 8080

Client configuration:
  {
    "mcpServers": {
      "onair": {
        "command": "/path/to/onair",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func mcpPorts() *mcp.Ports {
	return &mcp.Ports{
		Monitor:     monitorService,
		Transcripts: transcriptSearch,
		Capture:     captureService,
		Channels:    channels,
	}
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	server, err := mcp.NewServer(mcpPorts())
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
