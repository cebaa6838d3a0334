// Package mcp provides an MCP (Model Context Protocol) server adapter for onair.
// It lets AI assistants search recent broadcast transcripts and ask for
// watch-list summaries of a channel.
package mcp

import "errors"

// ErrMissingMonitorService is returned when the monitor service is not provided.
var ErrMissingMonitorService = errors.New("mcp: monitor service is required")
