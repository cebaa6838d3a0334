package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Metadata keys stored with every vector.
const (
	MetaSource      = "source"
	MetaChannelName = "channel_name"
	MetaStartTime   = "start_time"
	MetaEndTime     = "end_time"
	MetaDate        = "date"
)

// IndexEntry is one transcript chunk stored in the vector store.
type IndexEntry struct {
	// ID is a unique identifier, generated at write time.
	ID string

	// Vector is the embedding of Text.
	Vector []float32

	// Text is the canonical transcript of the segment.
	Text string

	ChannelID string

	// StartTime and EndTime bound the audio the text came from.
	// A zero StartTime means the metadata is missing.
	StartTime time.Time
	EndTime   time.Time

	// IngestionDate is the calendar day the entry was written, YYYY-MM-DD.
	IngestionDate string

	// Legacy holds clock-only times from older records, if any.
	Legacy *LegacyTimes
}

// LegacyTimes are "HH:MM:SS" clock strings written by older ingesters
// instead of epoch milliseconds. They are resolved against IngestionDate.
type LegacyTimes struct {
	StartClock string
	EndClock   string
}

// Validate checks the entry can be written.
func (e *IndexEntry) Validate() error {
	switch {
	case e.ID == "":
		return fmt.Errorf("%w: entry id is required", ErrInvalidInput)
	case strings.TrimSpace(e.Text) == "":
		return fmt.Errorf("%w: entry text is required", ErrInvalidInput)
	case e.ChannelID == "":
		return fmt.Errorf("%w: entry channel is required", ErrInvalidInput)
	case e.StartTime.IsZero() || e.EndTime.IsZero():
		return fmt.Errorf("%w: entry times are required", ErrInvalidInput)
	case !e.StartTime.Before(e.EndTime):
		return fmt.Errorf("%w: entry start must precede end", ErrInvalidInput)
	}
	return nil
}

// Match is a query hit.
type Match struct {
	Entry IndexEntry
	Score float64
}

// QueryFilter restricts a similarity query.
type QueryFilter struct {
	// ChannelID must equal the entry's channel. Empty matches all channels.
	ChannelID string

	// StartFrom keeps entries whose StartTime is at or after it.
	StartFrom time.Time

	// IngestionDates keeps entries whose IngestionDate is one of these.
	// Empty matches any date.
	IngestionDates []string
}

// Matches reports whether e satisfies the filter.
func (f QueryFilter) Matches(e *IndexEntry) bool {
	if f.ChannelID != "" && e.ChannelID != f.ChannelID {
		return false
	}
	if !f.StartFrom.IsZero() && (e.StartTime.IsZero() || e.StartTime.Before(f.StartFrom)) {
		return false
	}
	if len(f.IngestionDates) > 0 {
		found := false
		for _, d := range f.IngestionDates {
			if d == e.IngestionDate {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// MetadataPatch is a partial metadata update. Nil fields are left unchanged.
type MetadataPatch struct {
	StartTime     *time.Time
	EndTime       *time.Time
	IngestionDate *string
}

// IsEmpty reports whether the patch changes nothing.
func (p MetadataPatch) IsEmpty() bool {
	return p.StartTime == nil && p.EndTime == nil && p.IngestionDate == nil
}

// Apply writes the patch onto e.
func (p MetadataPatch) Apply(e *IndexEntry) {
	if p.StartTime != nil {
		e.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		e.EndTime = *p.EndTime
	}
	if p.IngestionDate != nil {
		e.IngestionDate = *p.IngestionDate
	}
	if p.StartTime != nil || p.EndTime != nil {
		e.Legacy = nil
	}
}

// ListPage is one page of ids from a store listing.
// An empty NextToken marks the last page.
type ListPage struct {
	IDs       []string
	NextToken string
}

// ParseClock resolves a legacy "HH:MM:SS" clock on a YYYY-MM-DD day in loc.
func ParseClock(day, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout+" 15:04:05", day+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: clock %q on %q", ErrInvalidInput, clock, day)
	}
	return t, nil
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Mismatched or zero-length vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// IsNullSummary reports whether a model response means "nothing relevant".
// Empty text, a literal null and any text containing
// "no relevant information" all count.
func IsNullSummary(text string) bool {
	t := strings.TrimSpace(text)
	t = strings.Trim(t, `"'`+"`")
	t = strings.TrimSpace(t)
	if t == "" || strings.EqualFold(t, "null") {
		return true
	}
	return strings.Contains(strings.ToLower(t), "no relevant information")
}

// SpeakerBlocks groups a stored transcript's lines by speaker.
func (e IndexEntry) SpeakerBlocks() []SpeakerBlock {
	return GroupBySpeaker(ParseCanonicalText(e.Text))
}
