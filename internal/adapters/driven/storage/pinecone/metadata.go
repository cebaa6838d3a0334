package pinecone

import (
	"github.com/custodia-labs/onair/internal/core/domain"
)

// toMetadata renders an entry's metadata in the index's schema.
func toMetadata(e *domain.IndexEntry) map[string]any {
	md := map[string]any{
		domain.MetaSource:      e.Text,
		domain.MetaChannelName: e.ChannelID,
	}
	if e.IngestionDate != "" {
		md[domain.MetaDate] = e.IngestionDate
	}
	if !e.StartTime.IsZero() {
		md[domain.MetaStartTime] = domain.UnixMillis(e.StartTime)
	} else if e.Legacy != nil && e.Legacy.StartClock != "" {
		md[domain.MetaStartTime] = e.Legacy.StartClock
	}
	if !e.EndTime.IsZero() {
		md[domain.MetaEndTime] = domain.UnixMillis(e.EndTime)
	} else if e.Legacy != nil && e.Legacy.EndClock != "" {
		md[domain.MetaEndTime] = e.Legacy.EndClock
	}
	return md
}

// toFilter builds a metadata filter. Top-level keys are ANDed by Pinecone.
func toFilter(f domain.QueryFilter) map[string]any {
	filter := map[string]any{}
	if f.ChannelID != "" {
		filter[domain.MetaChannelName] = map[string]any{"$eq": f.ChannelID}
	}
	if !f.StartFrom.IsZero() {
		filter[domain.MetaStartTime] = map[string]any{"$gte": domain.UnixMillis(f.StartFrom)}
	}
	if len(f.IngestionDates) > 0 {
		filter[domain.MetaDate] = map[string]any{"$in": f.IngestionDates}
	}
	if len(filter) == 0 {
		return nil
	}
	return filter
}

// fromVector decodes a stored vector. Numeric times are epoch
// milliseconds; string times are legacy wall-clock values.
func fromVector(v vector) domain.IndexEntry {
	e := domain.IndexEntry{
		ID:     v.ID,
		Vector: v.Values,
	}
	md := v.Metadata
	if md == nil {
		return e
	}

	e.Text, _ = md[domain.MetaSource].(string)
	e.IngestionDate, _ = md[domain.MetaDate].(string)
	e.ChannelID, _ = md[domain.MetaChannelName].(string)
	if e.ChannelID == "" {
		e.ChannelID, _ = md[metaRadioName].(string)
	}

	var legacy domain.LegacyTimes
	switch t := md[domain.MetaStartTime].(type) {
	case float64:
		e.StartTime = domain.FromUnixMillis(int64(t))
	case string:
		legacy.StartClock = t
	}
	switch t := md[domain.MetaEndTime].(type) {
	case float64:
		e.EndTime = domain.FromUnixMillis(int64(t))
	case string:
		legacy.EndClock = t
	}
	if legacy.StartClock != "" || legacy.EndClock != "" {
		e.Legacy = &legacy
	}
	return e
}
