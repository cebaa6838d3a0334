package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
	"github.com/custodia-labs/onair/internal/logger"
)

// DefaultPollInterval is the delay between transcription status checks.
const DefaultPollInterval = 5 * time.Second

// PipelineConfig configures the transcription pipeline.
type PipelineConfig struct {
	// PollInterval is the delay between status checks.
	PollInterval time.Duration

	// LanguageCode forces a transcription language. Empty lets the engine detect.
	LanguageCode string
}

// TranscriptionPipeline uploads segments to an asynchronous engine and
// waits for their transcripts.
type TranscriptionPipeline struct {
	engine driven.Transcriber
	cfg    PipelineConfig
}

// NewTranscriptionPipeline creates a pipeline over the given engine.
func NewTranscriptionPipeline(engine driven.Transcriber, cfg PipelineConfig) *TranscriptionPipeline {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &TranscriptionPipeline{
		engine: engine,
		cfg:    cfg,
	}
}

// Submit uploads the segment's audio and starts a job with speaker labels.
// Returns ErrSegmentNotReady if the file is missing or empty.
func (p *TranscriptionPipeline) Submit(ctx context.Context, seg domain.Segment) (*domain.TranscriptionJob, error) {
	if p.engine == nil {
		return nil, domain.ErrTranscriberUnavailable
	}

	info, err := os.Stat(seg.Path)
	if err != nil || info.Size() == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrSegmentNotReady, seg.Path)
	}

	f, err := os.Open(seg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSegmentNotReady, err)
	}
	defer f.Close()

	audioURL, err := p.engine.Upload(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", seg.Name(), err)
	}

	id, err := p.engine.Submit(ctx, audioURL, driven.TranscribeOptions{
		SpeakerLabels: true,
		LanguageCode:  p.cfg.LanguageCode,
	})
	if err != nil {
		return nil, fmt.Errorf("submitting %s: %w", seg.Name(), err)
	}

	logger.Debug("transcription: submitted %s as %s", seg.Name(), id)
	return &domain.TranscriptionJob{
		Segment:    seg,
		ExternalID: id,
		Status:     domain.JobStatusSubmitted,
	}, nil
}

// AwaitCompletion polls the job until it completes or fails. There is no
// timeout; only ctx ends the wait early. A failed status check abandons
// the job.
func (p *TranscriptionPipeline) AwaitCompletion(ctx context.Context, job *domain.TranscriptionJob) (string, error) {
	for {
		status, err := p.engine.Status(ctx, job.ExternalID)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", fmt.Errorf("polling job %s: %w", job.ExternalID, err)
		}

		if err := job.Advance(status.Status); err != nil {
			logger.Warn("transcription: job %s: ignoring status: %v", job.ExternalID, err)
		}

		switch job.Status {
		case domain.JobStatusCompleted:
			job.Utterances = status.Utterances
			if len(job.Utterances) == 0 {
				return strings.TrimSpace(status.Text), nil
			}
			return domain.CanonicalText(job.Utterances), nil

		case domain.JobStatusFailed:
			job.Error = status.Error
			return "", fmt.Errorf("%w: job %s: %s", domain.ErrTranscriptionFailed, job.ExternalID, status.Error)
		}

		timer := time.NewTimer(p.cfg.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
}

// Transcribe submits the segment and waits for its transcript.
func (p *TranscriptionPipeline) Transcribe(ctx context.Context, seg domain.Segment) (*domain.TranscriptionJob, string, error) {
	job, err := p.Submit(ctx, seg)
	if err != nil {
		return nil, "", err
	}
	text, err := p.AwaitCompletion(ctx, job)
	return job, text, err
}
