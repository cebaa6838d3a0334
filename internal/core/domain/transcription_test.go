package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatus_IsTerminal(t *testing.T) {
	assert.False(t, JobStatusSubmitted.IsTerminal())
	assert.False(t, JobStatusProcessing.IsTerminal())
	assert.True(t, JobStatusCompleted.IsTerminal())
	assert.True(t, JobStatusFailed.IsTerminal())
	assert.False(t, JobStatus("queued").IsValid())
}

func TestTranscriptionJob_Advance(t *testing.T) {
	tests := []struct {
		name    string
		from    JobStatus
		to      JobStatus
		wantErr error
	}{
		{"submitted to processing", JobStatusSubmitted, JobStatusProcessing, nil},
		{"submitted to completed", JobStatusSubmitted, JobStatusCompleted, nil},
		{"processing to failed", JobStatusProcessing, JobStatusFailed, nil},
		{"repeat processing", JobStatusProcessing, JobStatusProcessing, nil},
		{"processing to submitted", JobStatusProcessing, JobStatusSubmitted, ErrStatusRegression},
		{"completed to processing", JobStatusCompleted, JobStatusProcessing, ErrJobTerminal},
		{"completed to failed", JobStatusCompleted, JobStatusFailed, ErrJobTerminal},
		{"failed to completed", JobStatusFailed, JobStatusCompleted, ErrJobTerminal},
		{"unknown status", JobStatusSubmitted, JobStatus("queued"), ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &TranscriptionJob{Status: tt.from}
			err := job.Advance(tt.to)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.from, job.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, job.Status)
		})
	}
}

func TestCanonicalText(t *testing.T) {
	utterances := []Utterance{
		{Speaker: "A", Text: "hello"},
		{Speaker: "A", Text: "again"},
		{Speaker: "B", Text: "hi"},
	}

	assert.Equal(t, "Speaker A: hello\nSpeaker A: again\nSpeaker B: hi", CanonicalText(utterances))
	assert.Equal(t, "", CanonicalText(nil))
}

func TestGroupBySpeaker(t *testing.T) {
	t.Run("merges contiguous runs", func(t *testing.T) {
		blocks := GroupBySpeaker([]Utterance{
			{Speaker: "A", Text: "x"},
			{Speaker: "A", Text: " y "},
			{Speaker: "B", Text: "z"},
			{Speaker: "A", Text: "w"},
		})

		assert.Equal(t, []SpeakerBlock{
			{Speaker: "A", Text: "x y"},
			{Speaker: "B", Text: "z"},
			{Speaker: "A", Text: "w"},
		}, blocks)
	})

	t.Run("adjacent blocks always differ", func(t *testing.T) {
		blocks := GroupBySpeaker([]Utterance{
			{Speaker: "A", Text: "1"}, {Speaker: "B", Text: "2"}, {Speaker: "B", Text: "3"},
			{Speaker: "C", Text: "4"}, {Speaker: "C", Text: "5"}, {Speaker: "A", Text: "6"},
		})
		require.Len(t, blocks, 4)
		for i := 1; i < len(blocks); i++ {
			assert.NotEqual(t, blocks[i-1].Speaker, blocks[i].Speaker)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, GroupBySpeaker(nil))
	})

	t.Run("single utterance", func(t *testing.T) {
		assert.Equal(t, []SpeakerBlock{{Speaker: "A", Text: "only"}},
			GroupBySpeaker([]Utterance{{Speaker: "A", Text: "only"}}))
	})
}

func TestParseCanonicalText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Utterance
	}{
		{name: "empty", text: ""},
		{
			name: "round trip",
			text: CanonicalText([]Utterance{{"A", "hello"}, {"A", "again"}, {"B", "hi: there"}}),
			want: []Utterance{{"A", "hello"}, {"A", "again"}, {"B", "hi: there"}},
		},
		{
			name: "continuation and blank lines",
			text: "Speaker A: the budget\n\nis out tonight\nSpeaker B: thanks",
			want: []Utterance{{"A", "the budget is out tonight"}, {"B", "thanks"}},
		},
		{
			name: "no speaker labels",
			text: "plain transcript",
			want: []Utterance{{Text: "plain transcript"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCanonicalText(tt.text))
		})
	}
}
