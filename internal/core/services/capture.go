package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
	"github.com/custodia-labs/onair/internal/core/ports/driving"
	"github.com/custodia-labs/onair/internal/logger"
)

// Ensure CaptureService implements the interface.
var _ driving.CaptureService = (*CaptureService)(nil)

// CaptureConfig configures channel capture.
type CaptureConfig struct {
	// SegmentDir is where recorded segments are written.
	SegmentDir string

	ChunkDuration time.Duration
	ProbeInterval time.Duration

	// DeleteAfterIndex removes a segment's file once its transcript is stored.
	DeleteAfterIndex bool
}

// CaptureService runs one capture worker per channel and hands every closed
// segment to a detached goroutine for transcription and indexing, so
// rotation never waits on the engine.
type CaptureService struct {
	channels []domain.Channel
	sources  driven.SourceFactory
	index    driven.ChunkIndexStore
	pipeline *TranscriptionPipeline
	indexer  *IndexWriter
	cfg      CaptureConfig

	mu          sync.RWMutex
	supervisors map[string]*StreamSupervisor
	dirStates   map[string]*domain.ChannelWatchState

	segments sync.WaitGroup
}

// NewCaptureService creates a capture service. A nil pipeline or indexer
// leaves segments on disk unprocessed.
func NewCaptureService(
	channels []domain.Channel,
	sources driven.SourceFactory,
	index driven.ChunkIndexStore,
	pipeline *TranscriptionPipeline,
	indexer *IndexWriter,
	cfg CaptureConfig,
) *CaptureService {
	return &CaptureService{
		channels:    channels,
		sources:     sources,
		index:       index,
		pipeline:    pipeline,
		indexer:     indexer,
		cfg:         cfg,
		supervisors: make(map[string]*StreamSupervisor),
		dirStates:   make(map[string]*domain.ChannelWatchState),
	}
}

// Run captures every channel until ctx is cancelled, then waits for
// in-flight segment work to return. Channels whose source cannot be built
// are skipped and reported in the joined error.
func (c *CaptureService) Run(ctx context.Context) error {
	if len(c.channels) == 0 {
		return fmt.Errorf("%w: no channels configured", domain.ErrInvalidInput)
	}

	var errs []error
	var workers sync.WaitGroup

	for _, channel := range c.channels {
		run, err := c.worker(channel)
		if err != nil {
			logger.Error("capture: %s: %v", channel.ID, err)
			errs = append(errs, fmt.Errorf("%s: %w", channel.ID, err))
			continue
		}

		workers.Add(1)
		go func() {
			defer workers.Done()
			run(ctx)
		}()
	}

	if len(errs) == len(c.channels) {
		return errors.Join(errs...)
	}

	workers.Wait()
	c.segments.Wait()
	return errors.Join(errs...)
}

// Status returns every channel's watch state in configuration order.
func (c *CaptureService) Status() []domain.ChannelWatchState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	states := make([]domain.ChannelWatchState, 0, len(c.channels))
	for _, channel := range c.channels {
		if sup, ok := c.supervisors[channel.ID]; ok {
			states = append(states, sup.State())
			continue
		}
		if st, ok := c.dirStates[channel.ID]; ok {
			states = append(states, *st)
			continue
		}
		states = append(states, domain.ChannelWatchState{
			ChannelID: channel.ID,
			State:     domain.StreamStateStopped,
		})
	}
	return states
}

// worker builds the channel's source and returns its capture loop.
func (c *CaptureService) worker(channel domain.Channel) (func(context.Context), error) {
	if channel.Kind == domain.ChannelKindSegmentDir {
		source, err := c.sources.SegmentSource(channel)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.dirStates[channel.ID] = &domain.ChannelWatchState{
			ChannelID:    channel.ID,
			State:        domain.StreamStateConnecting,
			PingInterval: c.probeInterval(),
			UpdatedAt:    time.Now(),
		}
		c.mu.Unlock()
		return func(ctx context.Context) { c.watchDir(ctx, channel, source) }, nil
	}

	source, err := c.sources.StreamSource(channel)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context) {
		recorder := NewSegmentRecorder(channel, c.cfg.SegmentDir, c.index, func(seg domain.Segment) {
			c.dispatch(ctx, seg)
		})
		sup := NewStreamSupervisor(channel.ID, source, recorder, SupervisorConfig{
			ChunkDuration: c.cfg.ChunkDuration,
			ProbeInterval: c.cfg.ProbeInterval,
		})

		c.mu.Lock()
		c.supervisors[channel.ID] = sup
		c.mu.Unlock()

		if err := sup.Run(ctx); err != nil {
			logger.Error("capture: %s supervisor: %v", channel.ID, err)
		}
	}, nil
}

// watchDir forwards segments written by an external segmenter. When the
// source stops, the channel recovers like a stream: the source is probed
// every ProbeInterval and started again, numbering from the chunk index.
func (c *CaptureService) watchDir(ctx context.Context, channel domain.Channel, source driven.SegmentSource) {
	log := logger.With("channel", channel.ID)
	defer c.setDirState(channel.ID, func(st *domain.ChannelWatchState) {
		st.State = domain.StreamStateStopped
		st.IsStreaming = false
		st.CurrentSequence = 0
	})

	for ctx.Err() == nil {
		c.setDirState(channel.ID, func(st *domain.ChannelWatchState) {
			st.State = domain.StreamStateConnecting
			st.LastReconnectAttempt = time.Now()
		})

		if err := c.forwardSegments(ctx, channel.ID, source); err != nil && ctx.Err() == nil {
			log.Warn("segment source stopped", "error", err)
			c.setDirState(channel.ID, func(st *domain.ChannelWatchState) {
				st.LastError = err.Error()
			})
		}

		if !c.recoverDir(ctx, channel.ID, source) {
			return
		}
		log.Info("segment source reachable again, restarting")
	}
}

// forwardSegments runs one session of the source. The next sequence is
// persisted before the segmenter can create a file with it, and moved past
// the file being written whenever a segment completes.
func (c *CaptureService) forwardSegments(ctx context.Context, channelID string, source driven.SegmentSource) error {
	start, err := c.index.Next(ctx, channelID)
	if err != nil {
		return fmt.Errorf("reading chunk index: %w", err)
	}
	next := start + 1
	if err := c.index.Save(ctx, channelID, next); err != nil {
		return fmt.Errorf("saving chunk index: %w", err)
	}

	segments, errs := source.Segments(ctx, start)
	c.setDirState(channelID, func(st *domain.ChannelWatchState) {
		st.State = domain.StreamStateStreaming
		st.IsStreaming = true
		st.CurrentSequence = start
	})

	var last error
	for segments != nil || errs != nil {
		select {
		case seg, ok := <-segments:
			if !ok {
				segments = nil
				continue
			}
			if seg.Sequence+2 > next {
				next = seg.Sequence + 2
				if err := c.index.Save(ctx, channelID, next); err != nil && ctx.Err() == nil {
					logger.Warn("capture: %s: saving chunk index: %v", channelID, err)
				}
			}
			c.setDirState(channelID, func(st *domain.ChannelWatchState) {
				st.CurrentSequence = seg.Sequence + 1
			})
			c.dispatch(ctx, seg)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Error("capture: %s: %v", channelID, err)
			c.setDirState(channelID, func(st *domain.ChannelWatchState) {
				st.LastError = err.Error()
			})
			last = err
		}
	}
	return last
}

// recoverDir probes the source every ProbeInterval until it answers.
// Returns false if ctx ended first.
func (c *CaptureService) recoverDir(ctx context.Context, channelID string, source driven.SegmentSource) bool {
	c.setDirState(channelID, func(st *domain.ChannelWatchState) {
		st.State = domain.StreamStateRecovering
		st.IsStreaming = false
		st.CurrentSequence = 0
	})

	ticker := time.NewTicker(c.probeInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			c.setDirState(channelID, func(st *domain.ChannelWatchState) {
				st.LastReconnectAttempt = time.Now()
			})
			if err := source.Probe(ctx); err != nil {
				logger.Debug("capture: %s still unreachable: %v", channelID, err)
				continue
			}
			c.setDirState(channelID, func(st *domain.ChannelWatchState) {
				st.Reconnects++
			})
			return true
		}
	}
}

func (c *CaptureService) probeInterval() time.Duration {
	if c.cfg.ProbeInterval > 0 {
		return c.cfg.ProbeInterval
	}
	return DefaultProbeInterval
}

// dispatch processes a closed segment on its own goroutine.
func (c *CaptureService) dispatch(ctx context.Context, seg domain.Segment) {
	c.segments.Add(1)
	go func() {
		defer c.segments.Done()
		c.Process(ctx, seg)
	}()
}

// Process transcribes and indexes one segment. Failures are logged and the
// segment is abandoned; they never reach the capture loop.
func (c *CaptureService) Process(ctx context.Context, seg domain.Segment) {
	log := logger.With("channel", seg.ChannelID, "sequence", seg.Sequence)

	if c.pipeline == nil || c.indexer == nil {
		log.Debug("no transcription pipeline, keeping segment", "path", seg.Path)
		return
	}

	job, text, err := c.pipeline.Transcribe(ctx, seg)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		log.Debug("transcription cancelled")
		return
	case errors.Is(err, domain.ErrSegmentNotReady):
		log.Warn("segment not ready, skipping", "error", err)
		return
	case errors.Is(err, domain.ErrTranscriptionFailed):
		log.Error("transcription failed, segment content lost", "job", job.ExternalID, "error", err)
		return
	default:
		log.Warn("transcription abandoned", "error", err)
		return
	}

	if text == "" {
		log.Info("empty transcript, nothing to index")
		c.cleanup(seg)
		return
	}

	id, err := c.indexer.Index(ctx, text, seg.ChannelID, seg.StartTime, seg.EndTime)
	if err != nil {
		log.Error("indexing failed, transcript dropped", "error", err)
		return
	}
	log.Info("indexed segment", "id", id, "chars", len(text))
	c.cleanup(seg)
}

func (c *CaptureService) cleanup(seg domain.Segment) {
	if !c.cfg.DeleteAfterIndex {
		return
	}
	if err := os.Remove(seg.Path); err != nil && !os.IsNotExist(err) {
		logger.Warn("capture: removing %s: %v", seg.Path, err)
	}
}

func (c *CaptureService) setDirState(channelID string, fn func(*domain.ChannelWatchState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.dirStates[channelID]
	if !ok {
		return
	}
	fn(st)
	st.UpdatedAt = time.Now()
}
