package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/onair/internal/adapters/driving/api"
	"github.com/custodia-labs/onair/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/onair/internal/core/domain"
)

var channelsStatus bool

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List configured channels",
	Long: `Lists the channels from the config file. With --status the capture
state of each channel is fetched from the running server.`,
	Args: cobra.NoArgs,
	RunE: runChannels,
}

func init() {
	channelsCmd.Flags().BoolVarP(&channelsStatus, "status", "s", false, "include live capture state from the server")
	rootCmd.AddCommand(channelsCmd)
}

func runChannels(cmd *cobra.Command, _ []string) error {
	if len(channels) == 0 {
		cmd.Println("No channels configured. Add [[channels]] entries to the config file.")
		return nil
	}

	var states map[string]domain.ChannelWatchState
	if channelsStatus {
		list, err := api.NewClient(serverAddr).Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetching status: %w", err)
		}
		states = make(map[string]domain.ChannelWatchState, len(list))
		for _, st := range list {
			states[st.ChannelID] = st
		}
	}

	styled := isTerminal(cmd.OutOrStdout())
	theme := styles.DefaultStyles()
	render := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	header := fmt.Sprintf("%-12s %-22s %-11s %s", "ID", "NAME", "KIND", "SOURCE")
	if states != nil {
		header += "  STATE"
	}
	cmd.Println(render(theme.Title, header))

	for _, c := range channels {
		line := fmt.Sprintf("%s %-22s %-11s %s",
			render(theme.Normal.Bold(true), fmt.Sprintf("%-12s", c.ID)),
			c.DisplayName(),
			c.Kind,
			render(theme.Muted, channelSource(c)),
		)
		if states != nil {
			st, ok := states[c.ID]
			state := "not running"
			if ok {
				state = string(st.State)
			}
			line += "  " + render(theme.ForState(st.State), state)
		}
		cmd.Println(line)
	}
	return nil
}

// channelSource returns where a channel's audio comes from.
func channelSource(c domain.Channel) string {
	switch c.Kind {
	case domain.ChannelKindSegmentDir:
		return c.Dir
	case domain.ChannelKindFFmpeg:
		if c.URL == "" && len(c.Args) > 0 {
			return "ffmpeg " + strings.Join(c.Args, " ")
		}
	case domain.ChannelKindStream:
	}
	return c.URL
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
