package domain

import (
	"fmt"
	"time"
)

// DayLayout is the calendar-day format used for folders and ingestion dates.
const DayLayout = "2006-01-02"

// Segment is one closed, fixed-duration audio file from a channel.
// Segments of a channel are contiguous and non-overlapping except across
// a reconnect gap. Sequence strictly increases for a channel and is never
// reused, including across restarts.
type Segment struct {
	// ChannelID identifies the channel the audio was captured from.
	ChannelID string

	// Sequence is the persisted, monotonically increasing chunk index.
	Sequence int64

	// StartTime is when the first byte was written.
	StartTime time.Time

	// EndTime is when the file was closed.
	EndTime time.Time

	// Path is the location of the audio file on disk.
	Path string
}

// Duration returns the wall-clock span of the segment.
func (s Segment) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// Name returns a short identifier for logging, e.g. "2GB-41".
func (s Segment) Name() string {
	return fmt.Sprintf("%s-%d", s.ChannelID, s.Sequence)
}

// DayString formats t as a calendar day in t's location.
func DayString(t time.Time) string {
	return t.Format(DayLayout)
}

// UnixMillis converts t to epoch milliseconds.
func UnixMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromUnixMillis converts epoch milliseconds to a local time.
func FromUnixMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// DaysSpanned returns every calendar day touched by [from, to], oldest first.
// Days are computed in from's location.
func DaysSpanned(from, to time.Time) []string {
	if to.Before(from) {
		from, to = to, from
	}
	to = to.In(from.Location())

	var days []string
	y, m, d := from.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, from.Location())
	for !day.After(to) {
		days = append(days, DayString(day))
		day = day.AddDate(0, 0, 1)
	}
	return days
}
