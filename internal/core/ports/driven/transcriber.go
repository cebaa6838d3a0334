package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/onair/internal/core/domain"
)

// Transcriber is an asynchronous speech-to-text engine.
//
// Implementations may include:
//   - AssemblyAI
type Transcriber interface {
	// Upload sends audio bytes and returns a URL the engine can read them from.
	Upload(ctx context.Context, audio io.Reader) (string, error)

	// Submit starts a transcription job and returns its external id.
	Submit(ctx context.Context, audioURL string, opts TranscribeOptions) (string, error)

	// Status returns the current state of a job.
	Status(ctx context.Context, jobID string) (*TranscriptStatus, error)
}

// TranscribeOptions configures a transcription job.
type TranscribeOptions struct {
	// SpeakerLabels enables speaker diarization.
	SpeakerLabels bool

	// LanguageCode forces a language, e.g. "en_au". Empty lets the engine detect.
	LanguageCode string
}

// TranscriptStatus is one status response from the engine.
type TranscriptStatus struct {
	ID         string
	Status     domain.JobStatus
	Utterances []domain.Utterance

	// Text is the flat transcript, used when no utterances are returned.
	Text string

	// Error is set when Status is failed.
	Error string
}
