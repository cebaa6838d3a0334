package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/onair/internal/core/domain"
)

func TestSchedulerStore_SaveAndGetTask(t *testing.T) {
	store := setupTestStore(t).SchedulerStore()
	ctx := context.Background()

	now := time.Now().UTC()
	task := &domain.ScheduledTask{
		ID:          domain.TaskIDRetentionSweep,
		Name:        "Retention Sweep",
		Interval:    24 * time.Hour,
		At:          "03:00",
		LastRun:     now.Add(-time.Hour),
		NextRun:     now.Add(23 * time.Hour),
		LastSuccess: now.Add(-time.Hour),
		Enabled:     true,
	}
	require.NoError(t, store.SaveTask(ctx, task))

	got, err := store.GetTask(ctx, domain.TaskIDRetentionSweep)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, task.Name, got.Name)
	assert.Equal(t, task.Interval, got.Interval)
	assert.Equal(t, "03:00", got.At)
	assert.True(t, got.Enabled)
	assert.True(t, task.LastRun.Equal(got.LastRun))
	assert.True(t, task.NextRun.Equal(got.NextRun))
	assert.Empty(t, got.LastError)
}

func TestSchedulerStore_GetTask_NotFound(t *testing.T) {
	store := setupTestStore(t).SchedulerStore()

	got, err := store.GetTask(context.Background(), "missing")

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSchedulerStore_SaveTask_UpdateAndZeroTimes(t *testing.T) {
	store := setupTestStore(t).SchedulerStore()
	ctx := context.Background()

	task := &domain.ScheduledTask{ID: domain.TaskIDEntityMonitor, Name: "Entity Monitor", Interval: 10 * time.Minute}
	require.NoError(t, store.SaveTask(ctx, task))

	task.LastError = "summariser timeout"
	task.Enabled = true
	require.NoError(t, store.SaveTask(ctx, task))

	got, err := store.GetTask(ctx, domain.TaskIDEntityMonitor)
	require.NoError(t, err)
	assert.Equal(t, "summariser timeout", got.LastError)
	assert.True(t, got.Enabled)
	assert.True(t, got.LastRun.IsZero())
	assert.True(t, got.NextRun.IsZero())

	assert.ErrorIs(t, store.SaveTask(ctx, nil), domain.ErrInvalidInput)
}

func TestSchedulerStore_ListAndDelete(t *testing.T) {
	store := setupTestStore(t).SchedulerStore()
	ctx := context.Background()

	tasks, err := store.ListTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{ID: "b", Name: "B", Interval: time.Minute}))
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{ID: "a", Name: "A", Interval: time.Minute}))

	tasks, err = store.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "a", tasks[0].ID)

	require.NoError(t, store.DeleteTask(ctx, "a"))
	tasks, err = store.ListTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestSchedulerStore_ResultsHistory(t *testing.T) {
	store := setupTestStore(t).SchedulerStore()
	ctx := context.Background()
	base := time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		started := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.RecordResult(ctx, &domain.TaskResult{
			TaskID:         domain.TaskIDEntityMonitor,
			StartedAt:      started,
			EndedAt:        started.Add(30 * time.Second),
			Success:        i%2 == 0,
			Error:          map[bool]string{true: "", false: "boom"}[i%2 == 0],
			ItemsProcessed: i,
		}))
	}
	require.NoError(t, store.RecordResult(ctx, &domain.TaskResult{
		TaskID: domain.TaskIDRetentionSweep, StartedAt: base, EndedAt: base.Add(time.Second), Success: true, ItemsProcessed: 12,
	}))

	history, err := store.GetTaskHistory(ctx, domain.TaskIDEntityMonitor, 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 4, history[0].ItemsProcessed)
	assert.Equal(t, "boom", history[1].Error)
	assert.True(t, history[0].StartedAt.Equal(base.Add(4*time.Minute)))

	latest, err := store.LatestResults(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, domain.TaskIDEntityMonitor, latest[0].TaskID)
	assert.Equal(t, 4, latest[0].ItemsProcessed)
	assert.Equal(t, domain.TaskIDRetentionSweep, latest[1].TaskID)
	assert.Equal(t, 12, latest[1].ItemsProcessed)

	require.NoError(t, store.PruneHistory(ctx, 2))
	history, err = store.GetTaskHistory(ctx, domain.TaskIDEntityMonitor, 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	assert.ErrorIs(t, store.RecordResult(ctx, nil), domain.ErrInvalidInput)
}

func TestFormatAndParseTime(t *testing.T) {
	assert.Nil(t, formatTime(time.Time{}))

	ts := time.Date(2024, 11, 5, 10, 0, 0, 500, time.FixedZone("AEDT", 11*3600))
	formatted, ok := formatTime(ts).(string)
	require.True(t, ok)
	assert.Equal(t, "2024-11-04T23:00:00.000000500Z", formatted)
}
