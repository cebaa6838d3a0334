package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown channel kind or provider.
	ErrUnsupportedType = errors.New("unsupported type")

	// Capture errors.

	// ErrNoOpenSegment indicates a write was attempted with no segment open.
	ErrNoOpenSegment = errors.New("no open segment")

	// ErrSegmentNotReady indicates a segment file is missing or empty.
	// Transcription of the segment is skipped.
	ErrSegmentNotReady = errors.New("segment not ready")

	// ErrStreamUnavailable indicates the upstream source could not be reached.
	ErrStreamUnavailable = errors.New("stream unavailable")

	// Transcription errors.

	// ErrTranscriptionFailed indicates the engine reported a terminal failure.
	// The segment's content is lost for indexing.
	ErrTranscriptionFailed = errors.New("transcription failed")

	// ErrJobTerminal indicates a status change on a completed or failed job.
	ErrJobTerminal = errors.New("job already terminal")

	// ErrStatusRegression indicates a status change that moves backwards.
	ErrStatusRegression = errors.New("job status regression")

	// Service availability errors.

	// ErrTranscriberUnavailable indicates no transcription engine is configured.
	ErrTranscriberUnavailable = errors.New("transcription service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the summarisation model is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrVectorStoreUnavailable indicates the vector store is not configured.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")

	// ErrNotifierUnavailable indicates no notification channel is configured.
	ErrNotifierUnavailable = errors.New("notifier unavailable")

	// ErrRateLimited indicates an external service rejected a request for rate.
	ErrRateLimited = errors.New("rate limited")
)
