package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/onair/internal/core/domain"
)

var (
	recentLookback time.Duration
	recentLimit    int
	recentJSON     bool
)

var recentCmd = &cobra.Command{
	Use:   "recent <channel> <text>",
	Short: "Show recent transcript chunks similar to text",
	Long: `Lists the transcript chunks of a channel, within the lookback window,
that are most similar to the given text. No summarisation is performed.`,
	Args: cobra.ExactArgs(2),
	RunE: runRecent,
}

func init() {
	recentCmd.Flags().DurationVarP(&recentLookback, "lookback", "l", 10*time.Minute, "how far back to look")
	recentCmd.Flags().IntVarP(&recentLimit, "limit", "n", 10, "maximum number of chunks")
	recentCmd.Flags().BoolVar(&recentJSON, "json", false, "output chunks as JSON")
	rootCmd.AddCommand(recentCmd)
}

type recentChunk struct {
	ID        string    `json:"id"`
	Channel   string    `json:"channel"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Score     float64   `json:"score"`
	Text      string    `json:"text"`

	Blocks []domain.SpeakerBlock `json:"blocks"`
}

func runRecent(cmd *cobra.Command, args []string) error {
	if transcriptSearch == nil {
		return errors.New("transcript search not configured")
	}

	matches, err := transcriptSearch.Query(cmd.Context(), args[0], args[1], recentLookback)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if recentLimit > 0 && len(matches) > recentLimit {
		matches = matches[:recentLimit]
	}

	if recentJSON {
		out := make([]recentChunk, len(matches))
		for i, m := range matches {
			out[i] = recentChunk{
				ID:        m.Entry.ID,
				Channel:   m.Entry.ChannelID,
				StartTime: m.Entry.StartTime,
				EndTime:   m.Entry.EndTime,
				Score:     m.Score,
				Text:      m.Entry.Text,
				Blocks:    m.Entry.SpeakerBlocks(),
			}
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal chunks: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(matches) == 0 {
		cmd.Println("No transcripts found.")
		return nil
	}

	for i, m := range matches {
		// Format: [N] 08:00:00-08:01:00 (score)
		cmd.Printf("  [%d] %s-%s (%.2f)\n", i+1,
			m.Entry.StartTime.Format("15:04:05"), m.Entry.EndTime.Format("15:04:05"), m.Score)
		for _, b := range m.Entry.SpeakerBlocks() {
			if b.Speaker == "" {
				cmd.Printf("      %s\n", b.Text)
				continue
			}
			cmd.Printf("      Speaker %s: %s\n", b.Speaker, b.Text)
		}
		cmd.Println()
	}
	return nil
}
