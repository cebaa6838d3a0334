package capture

import (
	"fmt"

	"github.com/custodia-labs/onair/internal/adapters/driven/capture/ffmpeg"
	"github.com/custodia-labs/onair/internal/adapters/driven/capture/httpstream"
	"github.com/custodia-labs/onair/internal/adapters/driven/capture/segmentdir"
	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.SourceFactory = (*Factory)(nil)

// Factory builds the capture source matching a channel's kind.
type Factory struct {
	// FFmpegBinary overrides the ffmpeg executable for ffmpeg channels.
	FFmpegBinary string
}

// NewFactory creates a source factory.
func NewFactory(ffmpegBinary string) *Factory {
	return &Factory{FFmpegBinary: ffmpegBinary}
}

// StreamSource builds the source for stream and ffmpeg channels.
func (f *Factory) StreamSource(channel domain.Channel) (driven.StreamSource, error) {
	if err := channel.Validate(); err != nil {
		return nil, err
	}

	switch channel.Kind {
	case domain.ChannelKindStream:
		return httpstream.NewSource(httpstream.Config{
			URL:      channel.URL,
			ProbeURL: channel.ProbeURL,
		})

	case domain.ChannelKindFFmpeg:
		return ffmpeg.NewSource(ffmpeg.Config{
			Input:  channel.URL,
			Binary: f.FFmpegBinary,
			Args:   channel.Args,
		})

	default:
		return nil, fmt.Errorf("%w: channel %s is not a stream (%s)", domain.ErrUnsupportedType, channel.ID, channel.Kind)
	}
}

// SegmentSource builds the source for segment_dir channels.
func (f *Factory) SegmentSource(channel domain.Channel) (driven.SegmentSource, error) {
	if err := channel.Validate(); err != nil {
		return nil, err
	}
	if channel.Kind != domain.ChannelKindSegmentDir {
		return nil, fmt.Errorf("%w: channel %s is not a segment directory (%s)",
			domain.ErrUnsupportedType, channel.ID, channel.Kind)
	}

	cfg := segmentdir.Config{
		ChannelID: channel.ID,
		Dir:       channel.Dir,
		Format:    channel.Format,
		Command:   channel.Args,
	}
	if channel.ProbeURL != "" {
		prober, err := httpstream.NewSource(httpstream.Config{URL: channel.ProbeURL})
		if err != nil {
			return nil, err
		}
		cfg.Prober = prober
	}
	return segmentdir.NewSource(cfg)
}
