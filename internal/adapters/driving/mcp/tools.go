package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/onair/internal/core/domain"
)

const (
	defaultTranscriptLimit    = 10
	defaultTranscriptLookback = 10 * time.Minute
)

// errNoTranscriptSearch is returned by recent_transcripts when no store is wired.
var errNoTranscriptSearch = errors.New("transcript search is not configured")

// SearchChannelInput is the input schema for the search_channel tool.
type SearchChannelInput struct {
	Channel string `json:"channel" jsonschema:"the channel id, e.g. 3AW"`
	Query   string `json:"query,omitempty" jsonschema:"what to look for; empty uses the configured watch list"`
}

// SearchChannelOutput is the output schema for the search_channel tool.
type SearchChannelOutput struct {
	Channel  string `json:"channel"`
	Query    string `json:"query"`
	Matches  int    `json:"matches"`
	Relevant bool   `json:"relevant"`
	Summary  string `json:"summary,omitempty"`
}

// RecentTranscriptsInput is the input schema for the recent_transcripts tool.
type RecentTranscriptsInput struct {
	Channel string `json:"channel" jsonschema:"the channel id, e.g. 3AW"`
	Query   string `json:"query" jsonschema:"text the transcripts should be similar to"`
	Minutes int    `json:"minutes,omitempty" jsonschema:"how far back to look in minutes (default 10)"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum number of chunks to return (default 10)"`
}

// RecentTranscriptsOutput is the output schema for the recent_transcripts tool.
type RecentTranscriptsOutput struct {
	Chunks []TranscriptChunk `json:"chunks"`
	Count  int               `json:"count"`
}

// TranscriptChunk is one retrieved transcript chunk.
type TranscriptChunk struct {
	ID        string    `json:"id"`
	Channel   string    `json:"channel"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Score     float64   `json:"score"`
	Text      string    `json:"text"`

	// Blocks is Text grouped into contiguous runs per speaker.
	Blocks []domain.SpeakerBlock `json:"blocks"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_channel",
		Description: "Summarise what a channel said recently about a topic or the watch list",
	}, s.handleSearchChannel)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "recent_transcripts",
		Description: "Return recent transcript chunks of a channel most similar to a query",
	}, s.handleRecentTranscripts)
}

// handleSearchChannel handles the search_channel tool invocation.
func (s *Server) handleSearchChannel(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchChannelInput,
) (*mcp.CallToolResult, SearchChannelOutput, error) {
	result, err := s.ports.Monitor.Search(ctx, input.Channel, input.Query)
	if err != nil {
		return nil, SearchChannelOutput{}, err
	}

	return nil, SearchChannelOutput{
		Channel:  result.ChannelID,
		Query:    result.Query,
		Matches:  result.Matches,
		Relevant: result.Relevant,
		Summary:  result.Summary,
	}, nil
}

// handleRecentTranscripts handles the recent_transcripts tool invocation.
func (s *Server) handleRecentTranscripts(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RecentTranscriptsInput,
) (*mcp.CallToolResult, RecentTranscriptsOutput, error) {
	if s.ports.Transcripts == nil {
		return nil, RecentTranscriptsOutput{}, errNoTranscriptSearch
	}

	lookback := defaultTranscriptLookback
	if input.Minutes > 0 {
		lookback = time.Duration(input.Minutes) * time.Minute
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultTranscriptLimit
	}

	matches, err := s.ports.Transcripts.Query(ctx, input.Channel, input.Query, lookback)
	if err != nil {
		return nil, RecentTranscriptsOutput{}, err
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}

	output := RecentTranscriptsOutput{
		Chunks: make([]TranscriptChunk, len(matches)),
		Count:  len(matches),
	}
	for i := range matches {
		output.Chunks[i] = chunkFromMatch(matches[i])
	}

	return nil, output, nil
}

func chunkFromMatch(m domain.Match) TranscriptChunk {
	return TranscriptChunk{
		ID:        m.Entry.ID,
		Channel:   m.Entry.ChannelID,
		StartTime: m.Entry.StartTime,
		EndTime:   m.Entry.EndTime,
		Score:     m.Score,
		Text:      m.Entry.Text,
		Blocks:    m.Entry.SpeakerBlocks(),
	}
}
