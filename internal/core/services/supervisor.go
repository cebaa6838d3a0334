package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
	"github.com/custodia-labs/onair/internal/logger"
)

// Default supervisor timings.
const (
	DefaultChunkDuration = 60 * time.Second
	DefaultProbeInterval = 10 * time.Second
	defaultReadBuffer    = 32 * 1024
)

// SupervisorConfig holds stream supervisor timings.
type SupervisorConfig struct {
	// ChunkDuration is the segment rotation period.
	ChunkDuration time.Duration

	// ProbeInterval is the delay between recovery probes.
	ProbeInterval time.Duration
}

// StreamSupervisor keeps one channel's stream flowing into its recorder.
// It cycles connecting, streaming and recovering until its context ends.
// All recorder calls happen on the goroutine running Run.
type StreamSupervisor struct {
	channelID string
	source    driven.StreamSource
	recorder  *SegmentRecorder
	cfg       SupervisorConfig

	mu    sync.RWMutex
	state domain.ChannelWatchState
}

// NewStreamSupervisor creates a supervisor for one channel.
func NewStreamSupervisor(
	channelID string,
	source driven.StreamSource,
	recorder *SegmentRecorder,
	cfg SupervisorConfig,
) *StreamSupervisor {
	if cfg.ChunkDuration <= 0 {
		cfg.ChunkDuration = DefaultChunkDuration
	}
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = DefaultProbeInterval
	}
	return &StreamSupervisor{
		channelID: channelID,
		source:    source,
		recorder:  recorder,
		cfg:       cfg,
		state: domain.ChannelWatchState{
			ChannelID:    channelID,
			State:        domain.StreamStateConnecting,
			PingInterval: cfg.ProbeInterval,
			UpdatedAt:    time.Now(),
		},
	}
}

// Run supervises the stream until ctx is cancelled. On return the current
// segment has been flushed and handed off.
func (s *StreamSupervisor) Run(ctx context.Context) error {
	log := logger.With("channel", s.channelID)
	defer s.update(func(st *domain.ChannelWatchState) {
		st.State = domain.StreamStateStopped
		st.IsStreaming = false
		st.CurrentSequence = 0
	})

	for ctx.Err() == nil {
		s.update(func(st *domain.ChannelWatchState) {
			st.State = domain.StreamStateConnecting
			st.LastReconnectAttempt = time.Now()
		})

		stream, err := s.source.Connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn("connect failed", "error", err)
			s.setError(err)
		} else {
			log.Info("connected to stream")
			s.stream(ctx, stream)
		}

		if !s.recover(ctx) {
			return nil
		}
		log.Info("stream reachable again, reconnecting")
	}
	return nil
}

// State returns a snapshot of the watch state.
func (s *StreamSupervisor) State() domain.ChannelWatchState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// stream copies bytes into segments until the stream ends, a write fails
// or ctx is cancelled. The open segment is always closed on return.
func (s *StreamSupervisor) stream(ctx context.Context, stream io.ReadCloser) {
	log := logger.With("channel", s.channelID)
	defer stream.Close()

	seg, err := s.recorder.Open(ctx)
	if err != nil {
		log.Error("opening segment", "error", err)
		s.setError(err)
		return
	}
	s.update(func(st *domain.ChannelWatchState) {
		st.State = domain.StreamStateStreaming
		st.IsStreaming = true
		st.CurrentSequence = seg.Sequence
		st.LastError = ""
	})
	defer s.closeSegment()

	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	data := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		buf := make([]byte, defaultReadBuffer)
		for {
			n, err := stream.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case data <- chunk:
				case <-readCtx.Done():
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	ticker := time.NewTicker(s.cfg.ChunkDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case chunk := <-data:
			if _, err := s.recorder.Write(chunk); err != nil {
				log.Error("writing segment", "error", err)
				s.setError(err)
				return
			}

		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				log.Info("stream ended")
			} else if ctx.Err() == nil {
				log.Warn("stream error", "error", err)
				s.setError(err)
			}
			return

		case <-ticker.C:
			seg, err := s.recorder.Rotate(ctx)
			if err != nil {
				log.Error("rotating segment", "error", err)
				s.setError(err)
				return
			}
			s.update(func(st *domain.ChannelWatchState) {
				st.CurrentSequence = seg.Sequence
			})
		}
	}
}

// recover probes the source every ProbeInterval until it answers.
// Returns false if ctx ended first.
func (s *StreamSupervisor) recover(ctx context.Context) bool {
	s.update(func(st *domain.ChannelWatchState) {
		st.State = domain.StreamStateRecovering
		st.IsStreaming = false
		st.CurrentSequence = 0
	})

	ticker := time.NewTicker(s.cfg.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			s.update(func(st *domain.ChannelWatchState) {
				st.LastReconnectAttempt = time.Now()
			})
			if err := s.source.Probe(ctx); err != nil {
				logger.Debug("supervisor: %s still unreachable: %v", s.channelID, err)
				continue
			}
			s.update(func(st *domain.ChannelWatchState) {
				st.Reconnects++
			})
			return true
		}
	}
}

func (s *StreamSupervisor) closeSegment() {
	if err := s.recorder.Close(); err != nil {
		logger.Error("supervisor: %s: %v", s.channelID, err)
	}
	s.update(func(st *domain.ChannelWatchState) {
		st.IsStreaming = false
		st.CurrentSequence = 0
	})
}

func (s *StreamSupervisor) setError(err error) {
	s.update(func(st *domain.ChannelWatchState) {
		st.LastError = err.Error()
	})
}

func (s *StreamSupervisor) update(fn func(*domain.ChannelWatchState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
	s.state.UpdatedAt = time.Now()
}
