package tui

import "errors"

// ErrMissingStatusSource is returned when no status source is provided.
var ErrMissingStatusSource = errors.New("tui: status source is required")

// ErrNoChannelSelected is returned when a search is started with no channels.
var ErrNoChannelSelected = errors.New("tui: no channel selected")
