package mcp

import (
	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Monitor answers channel searches with a summary.
	Monitor driving.MonitorService

	// Transcripts returns raw transcript chunks in a time window.
	Transcripts driving.TranscriptSearch

	// Capture reports per-channel capture state.
	Capture driving.CaptureService

	// Channels is the configured channel list.
	Channels []domain.Channel
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Monitor == nil {
		return ErrMissingMonitorService
	}
	// Transcripts and Capture are optional
	return nil
}
