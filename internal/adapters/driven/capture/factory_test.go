package capture

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/onair/internal/adapters/driven/capture/ffmpeg"
	"github.com/custodia-labs/onair/internal/adapters/driven/capture/httpstream"
	"github.com/custodia-labs/onair/internal/adapters/driven/capture/segmentdir"
	"github.com/custodia-labs/onair/internal/core/domain"
)

func TestFactory_StreamSource(t *testing.T) {
	f := NewFactory("")

	src, err := f.StreamSource(domain.Channel{ID: "2GB", Kind: domain.ChannelKindStream, URL: "http://radio/2gb"})
	require.NoError(t, err)
	assert.IsType(t, &httpstream.Source{}, src)

	src, err = f.StreamSource(domain.Channel{ID: "abc-news", Kind: domain.ChannelKindFFmpeg, URL: "https://yt/live"})
	require.NoError(t, err)
	assert.IsType(t, &ffmpeg.Source{}, src)
}

func TestFactory_StreamSource_Errors(t *testing.T) {
	f := NewFactory("")

	_, err := f.StreamSource(domain.Channel{ID: "2GB", Kind: domain.ChannelKindStream})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.StreamSource(domain.Channel{ID: "sky", Kind: domain.ChannelKindSegmentDir, Dir: t.TempDir()})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestFactory_SegmentSource(t *testing.T) {
	f := NewFactory("")
	dir := filepath.Join(t.TempDir(), "sky")

	src, err := f.SegmentSource(domain.Channel{ID: "sky", Kind: domain.ChannelKindSegmentDir, Dir: dir})
	require.NoError(t, err)
	assert.IsType(t, &segmentdir.Source{}, src)
	assert.DirExists(t, dir)

	_, err = f.SegmentSource(domain.Channel{ID: "2GB", Kind: domain.ChannelKindStream, URL: "http://x"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestFactory_SegmentSource_ProbeURL(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	src, err := NewFactory("").SegmentSource(domain.Channel{
		ID: "sky", Kind: domain.ChannelKindSegmentDir, Dir: t.TempDir(), ProbeURL: upstream.URL,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, src.Probe(context.Background()), domain.ErrStreamUnavailable)
}
