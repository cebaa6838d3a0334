package domain

import (
	"fmt"
	"time"
)

// ChannelKind identifies how a channel's audio is captured.
type ChannelKind string

// Available channel kinds.
const (
	// ChannelKindStream reads an HTTP audio byte stream (internet radio).
	ChannelKindStream ChannelKind = "stream"

	// ChannelKindFFmpeg reads audio from an ffmpeg process's stdout.
	// Used for TV, HLS and YouTube live sources.
	ChannelKindFFmpeg ChannelKind = "ffmpeg"

	// ChannelKindSegmentDir watches a directory written by an external
	// segmenter. A file is complete once the next one appears.
	ChannelKindSegmentDir ChannelKind = "segment_dir"
)

// IsValid returns true if the kind is recognised.
func (k ChannelKind) IsValid() bool {
	switch k {
	case ChannelKindStream, ChannelKindFFmpeg, ChannelKindSegmentDir:
		return true
	default:
		return false
	}
}

// Channel is a configured broadcast source.
type Channel struct {
	// ID is the channel identifier used in metadata and file names, e.g. "3AW".
	ID string

	// Name is a human-readable name. Defaults to ID.
	Name string

	// Kind selects the capture source.
	Kind ChannelKind

	// URL is the stream or ffmpeg input URL.
	URL string

	// ProbeURL is checked during recovery. Defaults to URL.
	ProbeURL string

	// Dir is the directory watched for segment_dir channels.
	Dir string

	// Format is the audio container extension, e.g. "mp3".
	Format string

	// Args overrides the generated command line: the full ffmpeg argument
	// list for ffmpeg channels, the segmenter command for segment_dir ones.
	Args []string
}

// DisplayName returns Name, falling back to ID.
func (c Channel) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// Validate checks the channel has what its kind needs.
func (c Channel) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: channel id is required", ErrInvalidInput)
	}
	switch c.Kind {
	case ChannelKindStream, ChannelKindFFmpeg:
		if c.URL == "" {
			return fmt.Errorf("%w: channel %s: url is required", ErrInvalidInput, c.ID)
		}
	case ChannelKindSegmentDir:
		if c.Dir == "" {
			return fmt.Errorf("%w: channel %s: dir is required", ErrInvalidInput, c.ID)
		}
	default:
		return fmt.Errorf("%w: channel kind %q", ErrUnsupportedType, c.Kind)
	}
	return nil
}

// StreamState is the supervisor state of a channel.
type StreamState string

// Supervisor states.
const (
	StreamStateConnecting StreamState = "connecting"
	StreamStateStreaming  StreamState = "streaming"
	StreamStateRecovering StreamState = "recovering"
	StreamStateStopped    StreamState = "stopped"
)

// ChannelWatchState is the per-channel capture state.
// Exactly one of "actively capturing" (IsStreaming) or "pinging for recovery"
// holds at any time while the supervisor runs.
type ChannelWatchState struct {
	ChannelID string
	State     StreamState

	// IsStreaming is true while bytes are flowing into a segment.
	IsStreaming bool

	// LastReconnectAttempt is the time of the latest probe or connect.
	LastReconnectAttempt time.Time

	// PingInterval is the delay between recovery probes.
	PingInterval time.Duration

	// Reconnects counts successful recoveries since start.
	Reconnects int

	// CurrentSequence is the sequence of the open segment, zero if none.
	CurrentSequence int64

	LastError string
	UpdatedAt time.Time
}
