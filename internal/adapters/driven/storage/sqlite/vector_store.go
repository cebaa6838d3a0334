package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
)

// vectorStore implements driven.VectorStore on the index_entries table.
// Filters are applied in SQL; similarity is computed in Go over the
// filtered rows, which stay small because queries are time-windowed.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

const entryColumns = `id, channel_id, text, start_time, end_time, ingestion_date, legacy_start, legacy_end, vector`

// Upsert inserts or replaces entries by ID.
func (s *vectorStore) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO index_entries (`+entryColumns+`, dimensions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			channel_id = excluded.channel_id,
			text = excluded.text,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			ingestion_date = excluded.ingestion_date,
			legacy_start = excluded.legacy_start,
			legacy_end = excluded.legacy_end,
			vector = excluded.vector,
			dimensions = excluded.dimensions
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for i := range entries {
		e := &entries[i]
		if e.ID == "" {
			return fmt.Errorf("%w: entry id is required", domain.ErrInvalidInput)
		}
		var legacyStart, legacyEnd string
		if e.Legacy != nil {
			legacyStart, legacyEnd = e.Legacy.StartClock, e.Legacy.EndClock
		}
		if _, err := stmt.ExecContext(ctx,
			e.ID, e.ChannelID, e.Text,
			nullMillis(e.StartTime), nullMillis(e.EndTime),
			nullable(e.IngestionDate), nullable(legacyStart), nullable(legacyEnd),
			encodeVector(e.Vector), len(e.Vector),
		); err != nil {
			return fmt.Errorf("upserting entry %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

// Query returns the topK most similar entries passing the filter.
func (s *vectorStore) Query(
	ctx context.Context,
	vector []float32,
	topK int,
	filter domain.QueryFilter,
) ([]domain.Match, error) {
	if topK <= 0 {
		return nil, nil
	}

	var where []string
	var args []any
	if filter.ChannelID != "" {
		where = append(where, "channel_id = ?")
		args = append(args, filter.ChannelID)
	}
	if !filter.StartFrom.IsZero() {
		where = append(where, "start_time >= ?")
		args = append(args, domain.UnixMillis(filter.StartFrom))
	}
	if len(filter.IngestionDates) > 0 {
		where = append(where, "ingestion_date IN ("+inList(len(filter.IngestionDates))+")")
		for _, d := range filter.IngestionDates {
			args = append(args, d)
		}
	}

	query := `SELECT ` + entryColumns + ` FROM index_entries`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var matches []domain.Match
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, domain.Match{
			Entry: *entry,
			Score: domain.CosineSimilarity(vector, entry.Vector),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Fetch returns entries by ID. Unknown IDs are absent from the result.
func (s *vectorStore) Fetch(ctx context.Context, ids []string) (map[string]domain.IndexEntry, error) {
	result := make(map[string]domain.IndexEntry, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.store.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM index_entries WHERE id IN (`+inList(len(ids))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result[entry.ID] = *entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}
	return result, nil
}

// List pages through IDs in ascending order. The token is the last ID of
// the previous page.
func (s *vectorStore) List(ctx context.Context, limit int, token string) (*domain.ListPage, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: list limit must be positive", domain.ErrInvalidInput)
	}

	// One extra row tells us whether another page exists
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT id FROM index_entries WHERE id > ? ORDER BY id LIMIT ?`, token, limit+1)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	page := &domain.ListPage{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning entry id: %w", err)
		}
		page.IDs = append(page.IDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entry ids: %w", err)
	}

	if len(page.IDs) > limit {
		page.IDs = page.IDs[:limit]
		page.NextToken = page.IDs[limit-1]
	}
	return page, nil
}

// DeleteMany removes the given IDs.
func (s *vectorStore) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	if _, err := s.store.db.ExecContext(ctx,
		`DELETE FROM index_entries WHERE id IN (`+inList(len(ids))+`)`, args...); err != nil {
		return fmt.Errorf("deleting entries: %w", err)
	}
	return nil
}

// Update applies a partial metadata change. Setting either time clears
// the legacy clock columns.
func (s *vectorStore) Update(ctx context.Context, id string, patch domain.MetadataPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	var sets []string
	var args []any
	if patch.StartTime != nil {
		sets = append(sets, "start_time = ?")
		args = append(args, domain.UnixMillis(*patch.StartTime))
	}
	if patch.EndTime != nil {
		sets = append(sets, "end_time = ?")
		args = append(args, domain.UnixMillis(*patch.EndTime))
	}
	if patch.StartTime != nil || patch.EndTime != nil {
		sets = append(sets, "legacy_start = NULL", "legacy_end = NULL")
	}
	if patch.IngestionDate != nil {
		sets = append(sets, "ingestion_date = ?")
		args = append(args, *patch.IngestionDate)
	}
	args = append(args, id)

	res, err := s.store.db.ExecContext(ctx,
		`UPDATE index_entries SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("updating entry %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating entry %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("entry %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Close is a no-op; the owning Store holds the connection.
func (s *vectorStore) Close() error {
	return nil
}

func scanEntry(row rowScanner) (*domain.IndexEntry, error) {
	var e domain.IndexEntry
	var start, end sql.NullInt64
	var date, legacyStart, legacyEnd sql.NullString
	var vec []byte

	if err := row.Scan(&e.ID, &e.ChannelID, &e.Text, &start, &end,
		&date, &legacyStart, &legacyEnd, &vec); err != nil {
		return nil, fmt.Errorf("scanning entry: %w", err)
	}

	if start.Valid {
		e.StartTime = domain.FromUnixMillis(start.Int64)
	}
	if end.Valid {
		e.EndTime = domain.FromUnixMillis(end.Int64)
	}
	e.IngestionDate = date.String
	if legacyStart.Valid || legacyEnd.Valid {
		e.Legacy = &domain.LegacyTimes{StartClock: legacyStart.String, EndClock: legacyEnd.String}
	}
	e.Vector = decodeVector(vec)
	return &e, nil
}

// nullMillis stores the zero time as NULL.
func nullMillis(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return domain.UnixMillis(t)
}
