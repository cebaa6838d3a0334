// Package api provides the HTTP adapter for onair: on-demand channel search,
// capture status and a websocket status feed.
package api

import "errors"

// ErrMissingMonitorService is returned when the monitor service is not provided.
var ErrMissingMonitorService = errors.New("api: monitor service is required")
