// Package segmentdir watches a directory written by ffmpeg's segment muxer
// and emits each segment once the segmenter has moved on to the next file.
package segmentdir

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
	"github.com/custodia-labs/onair/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.SegmentSource = (*Source)(nil)

// Config describes the watched directory.
type Config struct {
	// ChannelID names the channel; files are expected as <ChannelID>-<n>.<Format>.
	ChannelID string

	// Dir is the directory the segmenter writes to (required).
	Dir string

	// Format is the file extension without the dot (default: mp3).
	Format string

	// Command optionally launches the segmenter itself, e.g. an ffmpeg
	// invocation with -f segment whose last argument is the output
	// pattern. It is killed when the context ends.
	Command []string

	// Prober optionally checks the upstream while recovering, e.g. the
	// channel's probe URL.
	Prober interface {
		Probe(ctx context.Context) error
	}
}

// Source emits segment N when segment N+1 is created.
type Source struct {
	channelID string
	dir       string
	format    string
	command   []string
	prober    interface{ Probe(context.Context) error }
	pattern   *regexp.Regexp
	now       func() time.Time
}

// NewSource creates a segment directory source. The directory is created
// if missing.
func NewSource(cfg Config) (*Source, error) {
	if cfg.ChannelID == "" || cfg.Dir == "" {
		return nil, fmt.Errorf("%w: channel id and directory are required", domain.ErrInvalidInput)
	}
	if cfg.Format == "" {
		cfg.Format = "mp3"
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("creating segment dir: %w", err)
	}

	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(cfg.ChannelID) + `-(\d+)\.` + regexp.QuoteMeta(cfg.Format) + `$`)
	return &Source{
		channelID: cfg.ChannelID,
		dir:       cfg.Dir,
		format:    cfg.Format,
		command:   cfg.Command,
		prober:    cfg.Prober,
		pattern:   pattern,
		now:       time.Now,
	}, nil
}

// sequenceOf parses the segment number from a file name.
func (s *Source) sequenceOf(name string) (int64, bool) {
	m := s.pattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (s *Source) pathOf(seq int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-%d.%s", s.channelID, seq, s.format))
}

// Segments starts watching, launching the segmenter if one is configured.
// While the segmenter runs, the last file is held back because it may
// still be written. Once the segmenter exits that file is emitted too and
// the exit is reported as ErrStreamUnavailable.
func (s *Source) Segments(ctx context.Context, start int64) (<-chan domain.Segment, <-chan error) {
	out := make(chan domain.Segment)
	errs := make(chan error, 1)

	fail := func(err error) (<-chan domain.Segment, <-chan error) {
		errs <- err
		close(out)
		close(errs)
		return out, errs
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fail(fmt.Errorf("creating watcher: %w", err))
	}
	if err := watcher.Add(s.dir); err != nil {
		_ = watcher.Close()
		return fail(fmt.Errorf("watching %s: %w", s.dir, err))
	}

	var exited <-chan error
	if len(s.command) > 0 {
		exited, err = s.startSegmenter(ctx, start)
		if err != nil {
			_ = watcher.Close()
			return fail(err)
		}
	}

	// Files below start belong to an earlier run of our own segmenter.
	var floor int64
	if exited != nil {
		floor = start
	}

	go s.watch(ctx, watcher, exited, floor, out, errs)
	return out, errs
}

// Probe checks the upstream through the configured prober, then that the
// segmenter could be started again.
func (s *Source) Probe(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.prober != nil {
		if err := s.prober.Probe(ctx); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStreamUnavailable, err)
	}
	if len(s.command) > 0 {
		if _, err := exec.LookPath(s.command[0]); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrStreamUnavailable, err)
		}
	}
	return nil
}

func (s *Source) watch(ctx context.Context, watcher *fsnotify.Watcher, exited <-chan error, floor int64, out chan<- domain.Segment, errs chan<- error) {
	defer close(errs)
	defer close(out)
	defer watcher.Close()

	// opened records when each file was first seen; it becomes StartTime.
	opened := make(map[int64]time.Time)
	var latest int64 = -1

	emit := func(seq int64, end time.Time) bool {
		if seq < floor {
			return true
		}
		start, seen := opened[seq]
		delete(opened, seq)
		if !seen {
			info, err := os.Stat(s.pathOf(seq))
			if err != nil {
				return true
			}
			start = info.ModTime()
		}

		seg := domain.Segment{
			ChannelID: s.channelID,
			Sequence:  seq,
			StartTime: start,
			EndTime:   end,
			Path:      s.pathOf(seq),
		}
		logger.Debug("segmentdir: %s complete", seg.Name())

		select {
		case out <- seg:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case err := <-exited:
			if latest >= 0 {
				if info, statErr := os.Stat(s.pathOf(latest)); statErr == nil && info.Size() > 0 {
					if !emit(latest, s.now()) {
						return
					}
				}
			}
			if err == nil {
				err = errors.New("exited")
			}
			errs <- fmt.Errorf("%w: segmenter for %s: %w", domain.ErrStreamUnavailable, s.channelID, err)
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			seq, ok := s.sequenceOf(event.Name)
			if !ok || seq <= latest {
				continue
			}
			now := s.now()
			opened[seq] = now
			latest = seq

			if !emit(seq-1, now) {
				return
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("segmentdir: watcher error on %s: %v", s.dir, err)
		}
	}
}

// startSegmenter launches the configured command bound to ctx. The
// returned channel receives the command's exit status unless ctx ended.
func (s *Source) startSegmenter(ctx context.Context, start int64) (<-chan error, error) {
	args := segmenterArgs(s.command, start)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = s.dir
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: starting segmenter: %w", domain.ErrStreamUnavailable, err)
	}
	logger.Debug("segmentdir: started segmenter for %s at %d", s.channelID, start)

	exited := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		if ctx.Err() != nil {
			return
		}
		logger.Warn("segmenter for %s exited: %v", s.channelID, err)
		exited <- err
	}()
	return exited, nil
}

// segmenterArgs numbers an ffmpeg segment muxer's files from start. The
// option goes before the output pattern, which is the last argument.
func segmenterArgs(command []string, start int64) []string {
	if !isSegmentMuxer(command) || slices.Contains(command, "-segment_start_number") {
		return command
	}
	last := len(command) - 1
	return slices.Concat(
		command[:last],
		[]string{"-segment_start_number", strconv.FormatInt(start, 10)},
		command[last:],
	)
}

func isSegmentMuxer(args []string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == "-f" && args[i+1] == "segment" {
			return true
		}
	}
	return false
}
