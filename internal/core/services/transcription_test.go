package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
)

func writeSegment(t *testing.T, content string) domain.Segment {
	t.Helper()
	path := filepath.Join(t.TempDir(), "2GB-7.mp3")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	start := time.Date(2024, 11, 4, 8, 0, 0, 0, time.Local)
	return domain.Segment{
		ChannelID: "2GB",
		Sequence:  7,
		StartTime: start,
		EndTime:   start.Add(time.Minute),
		Path:      path,
	}
}

func fastPipeline(engine driven.Transcriber) *TranscriptionPipeline {
	return NewTranscriptionPipeline(engine, PipelineConfig{PollInterval: time.Millisecond})
}

func TestNewTranscriptionPipeline_DefaultPollInterval(t *testing.T) {
	p := NewTranscriptionPipeline(&mockTranscriber{}, PipelineConfig{})
	assert.Equal(t, DefaultPollInterval, p.cfg.PollInterval)
}

func TestTranscriptionPipeline_Submit(t *testing.T) {
	engine := &mockTranscriber{}
	p := NewTranscriptionPipeline(engine, PipelineConfig{LanguageCode: "en_au"})
	seg := writeSegment(t, "audio bytes")

	job, err := p.Submit(context.Background(), seg)
	require.NoError(t, err)

	assert.Equal(t, "job-1", job.ExternalID)
	assert.Equal(t, domain.JobStatusSubmitted, job.Status)
	assert.Equal(t, seg, job.Segment)
	require.Len(t, engine.uploads, 1)
	assert.Equal(t, "audio bytes", string(engine.uploads[0]))
	require.Len(t, engine.submitted, 1)
	assert.True(t, engine.submitted[0].SpeakerLabels)
	assert.Equal(t, "en_au", engine.submitted[0].LanguageCode)
}

func TestTranscriptionPipeline_Submit_SegmentNotReady(t *testing.T) {
	tests := []struct {
		name string
		seg  func(t *testing.T) domain.Segment
	}{
		{
			name: "missing file",
			seg: func(t *testing.T) domain.Segment {
				return domain.Segment{ChannelID: "2GB", Path: filepath.Join(t.TempDir(), "gone.mp3")}
			},
		},
		{
			name: "empty file",
			seg: func(t *testing.T) domain.Segment {
				return writeSegment(t, "")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &mockTranscriber{}
			p := fastPipeline(engine)

			_, err := p.Submit(context.Background(), tt.seg(t))

			assert.ErrorIs(t, err, domain.ErrSegmentNotReady)
			assert.Empty(t, engine.uploads, "nothing may be uploaded")
		})
	}
}

func TestTranscriptionPipeline_Submit_NoEngine(t *testing.T) {
	p := NewTranscriptionPipeline(nil, PipelineConfig{})

	_, err := p.Submit(context.Background(), writeSegment(t, "audio"))

	assert.ErrorIs(t, err, domain.ErrTranscriberUnavailable)
}

func TestTranscriptionPipeline_Submit_EngineErrors(t *testing.T) {
	t.Run("upload", func(t *testing.T) {
		p := fastPipeline(&mockTranscriber{uploadErr: errBoom})
		_, err := p.Submit(context.Background(), writeSegment(t, "audio"))
		assert.ErrorIs(t, err, errBoom)
	})
	t.Run("submit", func(t *testing.T) {
		p := fastPipeline(&mockTranscriber{submitErr: errBoom})
		_, err := p.Submit(context.Background(), writeSegment(t, "audio"))
		assert.ErrorIs(t, err, errBoom)
	})
}

func TestTranscriptionPipeline_Transcribe_Completed(t *testing.T) {
	engine := &mockTranscriber{statuses: []driven.TranscriptStatus{
		{Status: domain.JobStatusProcessing},
		{Status: domain.JobStatusProcessing},
		{Status: domain.JobStatusCompleted, Utterances: []domain.Utterance{
			{Speaker: "A", Text: "Good morning, it's eight o'clock."},
			{Speaker: "B", Text: "The budget lands tonight."},
			{Speaker: "B", Text: "More after the break."},
		}},
	}}
	p := fastPipeline(engine)

	job, text, err := p.Transcribe(context.Background(), writeSegment(t, "audio"))
	require.NoError(t, err)

	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Len(t, job.Utterances, 3)
	assert.Equal(t,
		"Speaker A: Good morning, it's eight o'clock.\n"+
			"Speaker B: The budget lands tonight.\n"+
			"Speaker B: More after the break.",
		text)
	assert.Equal(t, 3, engine.pollCount())
}

func TestTranscriptionPipeline_Transcribe_FlatText(t *testing.T) {
	engine := &mockTranscriber{statuses: []driven.TranscriptStatus{
		{Status: domain.JobStatusCompleted, Text: "  music only  "},
	}}
	p := fastPipeline(engine)

	_, text, err := p.Transcribe(context.Background(), writeSegment(t, "audio"))
	require.NoError(t, err)
	assert.Equal(t, "music only", text)
}

func TestTranscriptionPipeline_Transcribe_Failed(t *testing.T) {
	engine := &mockTranscriber{statuses: []driven.TranscriptStatus{
		{Status: domain.JobStatusProcessing},
		{Status: domain.JobStatusFailed, Error: "audio too short"},
	}}
	p := fastPipeline(engine)

	job, text, err := p.Transcribe(context.Background(), writeSegment(t, "audio"))

	assert.ErrorIs(t, err, domain.ErrTranscriptionFailed)
	assert.Empty(t, text)
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Equal(t, "audio too short", job.Error)
}

func TestTranscriptionPipeline_AwaitCompletion_IgnoresRegression(t *testing.T) {
	engine := &mockTranscriber{statuses: []driven.TranscriptStatus{
		{Status: domain.JobStatusProcessing},
		{Status: domain.JobStatusSubmitted},
		{Status: domain.JobStatusCompleted, Text: "done"},
	}}
	p := fastPipeline(engine)
	job := &domain.TranscriptionJob{ExternalID: "job-1", Status: domain.JobStatusSubmitted}

	text, err := p.AwaitCompletion(context.Background(), job)

	require.NoError(t, err)
	assert.Equal(t, "done", text)
}

func TestTranscriptionPipeline_AwaitCompletion_StatusError(t *testing.T) {
	engine := &mockTranscriber{statusErr: errBoom}
	p := fastPipeline(engine)
	job := &domain.TranscriptionJob{ExternalID: "job-1", Status: domain.JobStatusSubmitted}

	_, err := p.AwaitCompletion(context.Background(), job)

	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, engine.pollCount(), "a failed poll abandons the job")
}

func TestTranscriptionPipeline_AwaitCompletion_Cancelled(t *testing.T) {
	engine := &mockTranscriber{} // processing forever
	p := NewTranscriptionPipeline(engine, PipelineConfig{PollInterval: 10 * time.Millisecond})
	job := &domain.TranscriptionJob{ExternalID: "job-1", Status: domain.JobStatusSubmitted}

	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Millisecond)
	defer cancel()

	_, err := p.AwaitCompletion(ctx, job)

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.GreaterOrEqual(t, engine.pollCount(), 2)
	assert.Equal(t, domain.JobStatusProcessing, job.Status)
}
