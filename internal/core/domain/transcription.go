package domain

import (
	"fmt"
	"strings"
)

// JobStatus is the state of a transcription job at the engine.
type JobStatus string

// Job statuses. Transitions are monotone: submitted, processing, then
// exactly one of completed or failed.
const (
	JobStatusSubmitted  JobStatus = "submitted"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// rank orders statuses for monotonicity checks.
func (s JobStatus) rank() int {
	switch s {
	case JobStatusSubmitted:
		return 1
	case JobStatusProcessing:
		return 2
	case JobStatusCompleted, JobStatusFailed:
		return 3
	default:
		return 0
	}
}

// IsValid returns true if the status is recognised.
func (s JobStatus) IsValid() bool {
	return s.rank() > 0
}

// IsTerminal returns true for completed and failed.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Utterance is one speaker turn as returned by the engine.
type Utterance struct {
	Speaker string
	Text    string
}

// SpeakerBlock is a run of contiguous utterances by the same speaker.
type SpeakerBlock struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// TranscriptionJob tracks one segment through the transcription engine.
type TranscriptionJob struct {
	Segment    Segment
	ExternalID string
	Status     JobStatus
	Utterances []Utterance

	// Error is the engine's failure message when Status is failed.
	Error string
}

// IsTerminal reports whether the job has finished.
func (j *TranscriptionJob) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// Advance moves the job to next. Repeating the current status is allowed;
// moving backwards or leaving a terminal status is not.
func (j *TranscriptionJob) Advance(next JobStatus) error {
	if !next.IsValid() {
		return fmt.Errorf("%w: job status %q", ErrInvalidInput, next)
	}
	if j.Status == next {
		return nil
	}
	if j.Status.IsTerminal() {
		return fmt.Errorf("%w: %s -> %s", ErrJobTerminal, j.Status, next)
	}
	if next.rank() < j.Status.rank() {
		return fmt.Errorf("%w: %s -> %s", ErrStatusRegression, j.Status, next)
	}
	j.Status = next
	return nil
}

// CanonicalText renders utterances one per line as "Speaker <label>: <text>"
// in their original order. Adjacent same-speaker utterances are not merged.
func CanonicalText(utterances []Utterance) string {
	lines := make([]string, 0, len(utterances))
	for _, u := range utterances {
		lines = append(lines, fmt.Sprintf("Speaker %s: %s", u.Speaker, u.Text))
	}
	return strings.Join(lines, "\n")
}

// ParseCanonicalText reverses CanonicalText. A line without a speaker
// prefix continues the previous utterance.
func ParseCanonicalText(text string) []Utterance {
	var utterances []Utterance
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "Speaker "); ok {
			if speaker, said, ok := strings.Cut(rest, ": "); ok {
				utterances = append(utterances, Utterance{Speaker: speaker, Text: said})
				continue
			}
		}
		if n := len(utterances); n > 0 {
			utterances[n-1].Text += " " + line
			continue
		}
		utterances = append(utterances, Utterance{Text: line})
	}
	return utterances
}

// GroupBySpeaker merges contiguous runs of the same speaker into blocks.
// Each block's text is the run's trimmed texts joined by single spaces.
// Blocks preserve order and adjacent blocks always differ in speaker.
func GroupBySpeaker(utterances []Utterance) []SpeakerBlock {
	var blocks []SpeakerBlock
	var current *SpeakerBlock
	var parts []string

	flush := func() {
		if current == nil {
			return
		}
		current.Text = strings.Join(parts, " ")
		blocks = append(blocks, *current)
		current = nil
		parts = nil
	}

	for _, u := range utterances {
		if current != nil && current.Speaker != u.Speaker {
			flush()
		}
		if current == nil {
			current = &SpeakerBlock{Speaker: u.Speaker}
		}
		if text := strings.TrimSpace(u.Text); text != "" {
			parts = append(parts, text)
		}
	}
	flush()

	return blocks
}
