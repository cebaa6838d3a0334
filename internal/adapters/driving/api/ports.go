package api

import (
	"net/http"

	"github.com/custodia-labs/onair/internal/core/ports/driving"
)

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	// Monitor answers POST /search.
	Monitor driving.MonitorService

	// Capture backs GET /status and the /ws feed. Optional.
	Capture driving.CaptureService

	// MCP is mounted at /mcp when set.
	MCP http.Handler
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Monitor == nil {
		return ErrMissingMonitorService
	}
	return nil
}
