package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
	"github.com/custodia-labs/onair/internal/logger"
)

// defaultSegmentFormat is the file extension used when a channel sets none.
const defaultSegmentFormat = "mp3"

// SegmentRecorder writes a channel's audio into fixed-duration segment files.
// A recorder is owned by a single goroutine and is not safe for concurrent use.
type SegmentRecorder struct {
	channel  domain.Channel
	baseDir  string
	index    driven.ChunkIndexStore
	onClosed func(domain.Segment)
	now      func() time.Time

	file    *os.File
	current domain.Segment
	written int64
}

// NewSegmentRecorder creates a recorder writing under baseDir.
// onClosed receives every non-empty segment after its file is synced and closed.
func NewSegmentRecorder(
	channel domain.Channel,
	baseDir string,
	index driven.ChunkIndexStore,
	onClosed func(domain.Segment),
) *SegmentRecorder {
	if onClosed == nil {
		onClosed = func(domain.Segment) {}
	}
	return &SegmentRecorder{
		channel:  channel,
		baseDir:  baseDir,
		index:    index,
		onClosed: onClosed,
		now:      time.Now,
	}
}

// Open starts a new segment. The next sequence is persisted before the file
// is created so a crash never reuses a sequence.
func (r *SegmentRecorder) Open(ctx context.Context) (domain.Segment, error) {
	if r.file != nil {
		return domain.Segment{}, fmt.Errorf("%w: segment %s is still open", domain.ErrInvalidInput, r.current.Name())
	}

	seq, err := r.index.Next(ctx, r.channel.ID)
	if err != nil {
		return domain.Segment{}, fmt.Errorf("reading chunk index: %w", err)
	}
	if err := r.index.Save(ctx, r.channel.ID, seq+1); err != nil {
		return domain.Segment{}, fmt.Errorf("saving chunk index: %w", err)
	}

	start := r.now()
	path := r.segmentPath(seq, start)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return domain.Segment{}, fmt.Errorf("creating segment directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return domain.Segment{}, fmt.Errorf("creating segment file: %w", err)
	}

	r.file = f
	r.written = 0
	r.current = domain.Segment{
		ChannelID: r.channel.ID,
		Sequence:  seq,
		StartTime: start,
		Path:      path,
	}
	logger.Debug("recorder: started segment %s", r.current.Name())
	return r.current, nil
}

// Write appends audio bytes to the open segment.
func (r *SegmentRecorder) Write(p []byte) (int, error) {
	if r.file == nil {
		return 0, domain.ErrNoOpenSegment
	}
	n, err := r.file.Write(p)
	r.written += int64(n)
	if err != nil {
		return n, fmt.Errorf("writing segment %s: %w", r.current.Name(), err)
	}
	return n, nil
}

// Rotate closes the open segment, hands it off and opens the next one.
// With no segment open it only opens.
func (r *SegmentRecorder) Rotate(ctx context.Context) (domain.Segment, error) {
	if err := r.Close(); err != nil {
		return domain.Segment{}, err
	}
	return r.Open(ctx)
}

// Close syncs and closes the open segment and hands it off.
// Empty segments are removed instead. Close with nothing open is a no-op.
func (r *SegmentRecorder) Close() error {
	if r.file == nil {
		return nil
	}

	f := r.file
	seg := r.current
	written := r.written
	r.file = nil
	r.current = domain.Segment{}
	r.written = 0

	syncErr := f.Sync()
	closeErr := f.Close()
	if err := errors.Join(syncErr, closeErr); err != nil {
		return fmt.Errorf("closing segment %s: %w", seg.Name(), err)
	}

	if written == 0 {
		logger.Debug("recorder: dropping empty segment %s", seg.Name())
		if err := os.Remove(seg.Path); err != nil && !os.IsNotExist(err) {
			logger.Warn("recorder: removing empty segment %s: %v", seg.Path, err)
		}
		return nil
	}

	seg.EndTime = r.now()
	logger.Debug("recorder: completed segment %s (%d bytes)", seg.Name(), written)
	r.onClosed(seg)
	return nil
}

// Current returns the open segment, if any.
func (r *SegmentRecorder) Current() (domain.Segment, bool) {
	return r.current, r.file != nil
}

// segmentPath lays files out as <base>/<channel>/<day>/<channel>-<seq>.<format>.
func (r *SegmentRecorder) segmentPath(seq int64, start time.Time) string {
	format := r.channel.Format
	if format == "" {
		format = defaultSegmentFormat
	}
	name := fmt.Sprintf("%s-%d.%s", r.channel.ID, seq, format)
	return filepath.Join(r.baseDir, r.channel.ID, domain.DayString(start), name)
}
