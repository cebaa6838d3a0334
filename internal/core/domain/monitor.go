package domain

import "time"

// MonitorResult is the outcome of one channel search.
type MonitorResult struct {
	ChannelID string

	// Query is the probe text that was embedded.
	Query string

	// Matches is the number of transcript chunks retrieved.
	Matches int

	// Summary is the model's answer. Empty when nothing relevant was found.
	Summary string

	// Relevant is false when the model returned the null sentinel or
	// no transcripts were retrieved.
	Relevant bool

	SearchedAt time.Time
}
