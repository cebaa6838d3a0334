package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/onair/internal/core/domain"
)

func testEntry(id, channel string, start time.Time, vec []float32) domain.IndexEntry {
	return domain.IndexEntry{
		ID:            id,
		Vector:        vec,
		Text:          "Speaker A: " + id,
		ChannelID:     channel,
		StartTime:     start,
		EndTime:       start.Add(time.Minute),
		IngestionDate: domain.DayString(start),
	}
}

func TestVectorStore_UpsertAndFetch(t *testing.T) {
	vs := setupTestStore(t).VectorStore()
	ctx := context.Background()
	start := time.Date(2024, 11, 5, 9, 30, 0, 0, time.UTC)

	require.NoError(t, vs.Upsert(ctx, []domain.IndexEntry{
		testEntry("e1", "2GB", start, []float32{1, 0}),
		testEntry("e2", "3AW", start, []float32{0, 1}),
	}))

	got, err := vs.Fetch(ctx, []string{"e1", "missing"})
	require.NoError(t, err)
	require.Len(t, got, 1)

	e1 := got["e1"]
	assert.Equal(t, "2GB", e1.ChannelID)
	assert.True(t, start.Equal(e1.StartTime))
	assert.True(t, start.Add(time.Minute).Equal(e1.EndTime))
	assert.Equal(t, "2024-11-05", e1.IngestionDate)
	assert.Equal(t, []float32{1, 0}, e1.Vector)
	assert.Nil(t, e1.Legacy)

	// Upsert replaces by ID
	replaced := testEntry("e1", "2GB", start, []float32{0.5, 0.5})
	replaced.Text = "updated"
	require.NoError(t, vs.Upsert(ctx, []domain.IndexEntry{replaced}))
	got, err = vs.Fetch(ctx, []string{"e1"})
	require.NoError(t, err)
	assert.Equal(t, "updated", got["e1"].Text)

	assert.ErrorIs(t, vs.Upsert(ctx, []domain.IndexEntry{{Text: "no id"}}), domain.ErrInvalidInput)
}

func TestVectorStore_QueryFiltersAndRanks(t *testing.T) {
	vs := setupTestStore(t).VectorStore()
	ctx := context.Background()
	now := time.Date(2024, 11, 5, 10, 0, 0, 0, time.UTC)

	require.NoError(t, vs.Upsert(ctx, []domain.IndexEntry{
		testEntry("close", "2GB", now.Add(-2*time.Minute), []float32{1, 0.1}),
		testEntry("far", "2GB", now.Add(-3*time.Minute), []float32{0, 1}),
		testEntry("old", "2GB", now.Add(-time.Hour), []float32{1, 0}),
		testEntry("other", "3AW", now.Add(-time.Minute), []float32{1, 0}),
	}))

	matches, err := vs.Query(ctx, []float32{1, 0}, 10, domain.QueryFilter{
		ChannelID:      "2GB",
		StartFrom:      now.Add(-10 * time.Minute),
		IngestionDates: []string{"2024-11-05"},
	})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "close", matches[0].Entry.ID)
	assert.Equal(t, "far", matches[1].Entry.ID)
	assert.Greater(t, matches[0].Score, matches[1].Score)

	top1, err := vs.Query(ctx, []float32{1, 0}, 1, domain.QueryFilter{ChannelID: "2GB"})
	require.NoError(t, err)
	require.Len(t, top1, 1)
	assert.Contains(t, []string{"close", "old"}, top1[0].Entry.ID)

	none, err := vs.Query(ctx, []float32{1, 0}, 10, domain.QueryFilter{IngestionDates: []string{"2024-11-04"}})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestVectorStore_ListPaginates(t *testing.T) {
	vs := setupTestStore(t).VectorStore()
	ctx := context.Background()
	start := time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC)

	entries := make([]domain.IndexEntry, 0, 250)
	for i := 0; i < 250; i++ {
		entries = append(entries, testEntry(fmt.Sprintf("id-%03d", i), "2GB", start, []float32{1}))
	}
	require.NoError(t, vs.Upsert(ctx, entries))

	var all []string
	token := ""
	pages := 0
	for {
		page, err := vs.List(ctx, 100, token)
		require.NoError(t, err)
		all = append(all, page.IDs...)
		pages++
		if page.NextToken == "" {
			break
		}
		token = page.NextToken
	}

	assert.Equal(t, 3, pages)
	assert.Len(t, all, 250)
	assert.Equal(t, "id-000", all[0])
	assert.Equal(t, "id-249", all[249])

	_, err := vs.List(ctx, 0, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVectorStore_ListExactPage(t *testing.T) {
	vs := setupTestStore(t).VectorStore()
	ctx := context.Background()
	start := time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC)

	require.NoError(t, vs.Upsert(ctx, []domain.IndexEntry{
		testEntry("a", "2GB", start, []float32{1}),
		testEntry("b", "2GB", start, []float32{1}),
	}))

	page, err := vs.List(ctx, 2, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, page.IDs)
	assert.Empty(t, page.NextToken)
}

func TestVectorStore_DeleteMany(t *testing.T) {
	vs := setupTestStore(t).VectorStore()
	ctx := context.Background()
	start := time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC)

	require.NoError(t, vs.Upsert(ctx, []domain.IndexEntry{
		testEntry("a", "2GB", start, []float32{1}),
		testEntry("b", "2GB", start, []float32{1}),
		testEntry("c", "2GB", start, []float32{1}),
	}))

	require.NoError(t, vs.DeleteMany(ctx, []string{"a", "c", "missing"}))
	require.NoError(t, vs.DeleteMany(ctx, nil))

	page, err := vs.List(ctx, 10, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, page.IDs)
}

func TestVectorStore_UpdateRepairsLegacyEntry(t *testing.T) {
	vs := setupTestStore(t).VectorStore()
	ctx := context.Background()

	legacy := domain.IndexEntry{
		ID:        "legacy",
		Vector:    []float32{1},
		Text:      "Speaker A: old",
		ChannelID: "2GB",
		Legacy:    &domain.LegacyTimes{StartClock: "09:30:00", EndClock: "09:31:00"},
	}
	require.NoError(t, vs.Upsert(ctx, []domain.IndexEntry{legacy}))

	got, err := vs.Fetch(ctx, []string{"legacy"})
	require.NoError(t, err)
	require.NotNil(t, got["legacy"].Legacy)
	assert.Equal(t, "09:30:00", got["legacy"].Legacy.StartClock)
	assert.True(t, got["legacy"].StartTime.IsZero())
	assert.Empty(t, got["legacy"].IngestionDate)

	start := time.Date(2024, 11, 5, 9, 30, 0, 0, time.UTC)
	end := start.Add(time.Minute)
	day := "2024-11-05"
	require.NoError(t, vs.Update(ctx, "legacy", domain.MetadataPatch{
		StartTime: &start, EndTime: &end, IngestionDate: &day,
	}))

	got, err = vs.Fetch(ctx, []string{"legacy"})
	require.NoError(t, err)
	repaired := got["legacy"]
	assert.Nil(t, repaired.Legacy)
	assert.True(t, start.Equal(repaired.StartTime))
	assert.True(t, end.Equal(repaired.EndTime))
	assert.Equal(t, day, repaired.IngestionDate)
}

func TestVectorStore_Update_NotFoundAndEmpty(t *testing.T) {
	vs := setupTestStore(t).VectorStore()
	ctx := context.Background()
	day := "2024-11-05"

	err := vs.Update(ctx, "missing", domain.MetadataPatch{IngestionDate: &day})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, vs.Update(ctx, "missing", domain.MetadataPatch{}))
}
