package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/onair/internal/core/domain"
)

// StreamSource produces a continuous audio byte stream for one channel.
//
// Implementations may include:
//   - HTTP streams (internet radio)
//   - ffmpeg processes piping a TV or YouTube live source to stdout
type StreamSource interface {
	// Connect opens the stream. Reading returns io.EOF or an error when
	// the upstream ends; the caller closes the reader.
	Connect(ctx context.Context) (io.ReadCloser, error)

	// Probe performs a lightweight reachability check used while recovering.
	Probe(ctx context.Context) error
}

// SegmentSource produces already-closed segments written by an external
// segmenter (e.g. ffmpeg's segment muxer).
type SegmentSource interface {
	// Segments emits each segment once it is complete. A segmenter it
	// launches numbers its files from start. Both channels are closed when
	// ctx is cancelled or the segmenter stops; a stop is reported on the
	// error channel as ErrStreamUnavailable first.
	Segments(ctx context.Context, start int64) (<-chan domain.Segment, <-chan error)

	// Probe reports whether Segments can be started again.
	Probe(ctx context.Context) error
}

// ChunkIndexStore persists the next segment sequence per channel so
// sequences are never reused across restarts.
type ChunkIndexStore interface {
	// Next returns the next unused sequence for the channel, 1 if none is stored.
	Next(ctx context.Context, channelID string) (int64, error)

	// Save records next as the next unused sequence for the channel.
	Save(ctx context.Context, channelID string, next int64) error
}

// SourceFactory builds capture sources for configured channels.
type SourceFactory interface {
	// StreamSource returns the byte-stream source for stream and ffmpeg channels.
	StreamSource(channel domain.Channel) (StreamSource, error)

	// SegmentSource returns the file source for segment_dir channels.
	SegmentSource(channel domain.Channel) (SegmentSource, error)
}
