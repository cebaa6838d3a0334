package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrNoOpenSegment", ErrNoOpenSegment},
		{"ErrSegmentNotReady", ErrSegmentNotReady},
		{"ErrStreamUnavailable", ErrStreamUnavailable},
		{"ErrTranscriptionFailed", ErrTranscriptionFailed},
		{"ErrJobTerminal", ErrJobTerminal},
		{"ErrStatusRegression", ErrStatusRegression},
		{"ErrTranscriberUnavailable", ErrTranscriberUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrVectorStoreUnavailable", ErrVectorStoreUnavailable},
		{"ErrNotifierUnavailable", ErrNotifierUnavailable},
		{"ErrRateLimited", ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrors_Wrapping(t *testing.T) {
	wrapped := fmt.Errorf("segment 3AW-12: %w", ErrTranscriptionFailed)

	assert.True(t, errors.Is(wrapped, ErrTranscriptionFailed))
	assert.False(t, errors.Is(wrapped, ErrSegmentNotReady))
	assert.Contains(t, wrapped.Error(), "transcription failed")
}
