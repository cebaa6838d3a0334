package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/onair/internal/adapters/driving/api"
	"github.com/custodia-labs/onair/internal/core/domain"
)

var (
	searchJSON   bool
	searchRemote bool
)

var searchCmd = &cobra.Command{
	Use:   "search <channel> [query]",
	Short: "Summarise recent coverage on a channel",
	Long: `Searches the most recent transcripts of a channel and asks the
summarisation model what was said. Without a query the configured
watch list is used, exactly as the scheduled monitor does.

With --remote the search runs on the server given by server.addr.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output the result as JSON")
	searchCmd.Flags().BoolVar(&searchRemote, "remote", false, "search on the running server")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	channelID := args[0]
	query := ""
	if len(args) > 1 {
		query = args[1]
	}

	var (
		result *domain.MonitorResult
		err    error
	)
	switch {
	case searchRemote:
		result, err = api.NewClient(serverAddr).Search(cmd.Context(), channelID, query)
	case monitorService != nil:
		result, err = monitorService.Search(cmd.Context(), channelID, query)
	default:
		return errors.New("monitor service not configured")
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, result)
	}
	outputSearchText(cmd, result)
	return nil
}

type searchOutput struct {
	Channel    string    `json:"channel"`
	Query      string    `json:"query"`
	Matches    int       `json:"matches"`
	Relevant   bool      `json:"relevant"`
	Summary    *string   `json:"summary"`
	SearchedAt time.Time `json:"searched_at"`
}

func outputSearchJSON(cmd *cobra.Command, result *domain.MonitorResult) error {
	out := searchOutput{
		Channel:    result.ChannelID,
		Query:      result.Query,
		Matches:    result.Matches,
		Relevant:   result.Relevant,
		SearchedAt: result.SearchedAt,
	}
	if result.Relevant {
		out.Summary = &result.Summary
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchText(cmd *cobra.Command, result *domain.MonitorResult) {
	name := channelName(result.ChannelID)
	if !result.Relevant {
		cmd.Printf("Nothing relevant on %s (%d chunks searched).\n", name, result.Matches)
		return
	}
	cmd.Printf("%s (%d chunks):\n\n", name, result.Matches)
	cmd.Println(result.Summary)
}

// channelName returns the configured display name of a channel.
func channelName(id string) string {
	for _, c := range channels {
		if c.ID == id {
			return c.DisplayName()
		}
	}
	return id
}
