package services

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
	"github.com/custodia-labs/onair/internal/core/ports/driving"
)

// --- Mock implementations for scheduler testing ---

// mockSchedulerStore implements driven.SchedulerStore for testing.
type mockSchedulerStore struct {
	mu       sync.RWMutex
	tasks    map[string]*domain.ScheduledTask
	results  map[string][]domain.TaskResult
	saveErr  error
	listErr  error
	getErr   error
	pruneErr error
}

func newMockSchedulerStore() *mockSchedulerStore {
	return &mockSchedulerStore{
		tasks:   make(map[string]*domain.ScheduledTask),
		results: make(map[string][]domain.TaskResult),
	}
}

func (m *mockSchedulerStore) GetTask(_ context.Context, taskID string) (*domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	task, exists := m.tasks[taskID]
	if !exists {
		return nil, nil
	}
	taskCopy := *task
	return &taskCopy, nil
}

func (m *mockSchedulerStore) ListTasks(_ context.Context) ([]domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	tasks := make([]domain.ScheduledTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, *t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (m *mockSchedulerStore) SaveTask(_ context.Context, task *domain.ScheduledTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if task == nil {
		return domain.ErrInvalidInput
	}
	taskCopy := *task
	m.tasks[task.ID] = &taskCopy
	return nil
}

func (m *mockSchedulerStore) DeleteTask(_ context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, taskID)
	return nil
}

func (m *mockSchedulerStore) RecordResult(_ context.Context, result *domain.TaskResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if result == nil {
		return domain.ErrInvalidInput
	}
	m.results[result.TaskID] = append(m.results[result.TaskID], *result)
	return nil
}

func (m *mockSchedulerStore) GetTaskHistory(_ context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	results := m.results[taskID]
	if len(results) > limit {
		results = results[len(results)-limit:]
	}
	return results, nil
}

func (m *mockSchedulerStore) LatestResults(_ context.Context) ([]domain.TaskResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest []domain.TaskResult
	for _, results := range m.results {
		if len(results) > 0 {
			latest = append(latest, results[len(results)-1])
		}
	}
	return latest, nil
}

func (m *mockSchedulerStore) PruneHistory(_ context.Context, _ int) error {
	return m.pruneErr
}

func (m *mockSchedulerStore) task(id string) domain.ScheduledTask {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.tasks[id]; ok {
		return *t
	}
	return domain.ScheduledTask{}
}

func (m *mockSchedulerStore) resultsFor(id string) []domain.TaskResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.TaskResult(nil), m.results[id]...)
}

// mockRetention implements driving.RetentionService.
type mockRetention struct {
	mu      sync.Mutex
	calls   int
	deleted int
	err     error
	block   chan struct{}
}

func (m *mockRetention) Sweep(_ context.Context) (int, error) {
	m.mu.Lock()
	m.calls++
	block := m.block
	m.mu.Unlock()
	if block != nil {
		<-block
	}
	return m.deleted, m.err
}

func (m *mockRetention) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockMonitor implements driving.MonitorService.
type mockMonitor struct {
	mu    sync.Mutex
	ticks int
	sent  int
	err   error
}

func (m *mockMonitor) Search(_ context.Context, channelID, query string) (*domain.MonitorResult, error) {
	return &domain.MonitorResult{ChannelID: channelID, Query: query}, nil
}

func (m *mockMonitor) Tick(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks++
	return m.sent, m.err
}

func (m *mockMonitor) tickCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ticks
}

// Ensure mocks implement interfaces
var _ driven.SchedulerStore = (*mockSchedulerStore)(nil)
var _ driving.RetentionService = (*mockRetention)(nil)
var _ driving.MonitorService = (*mockMonitor)(nil)

// ==================== Scheduler Tests ====================

func TestNewScheduler(t *testing.T) {
	config := domain.DefaultSchedulerConfig()
	store := newMockSchedulerStore()

	scheduler := NewScheduler(config, store, &mockRetention{}, &mockMonitor{})

	require.NotNil(t, scheduler)
	assert.Equal(t, config.Enabled, scheduler.config.Enabled)
	assert.Equal(t, time.Minute, scheduler.checkInterval)
}

func TestScheduler_StartStop(t *testing.T) {
	config := domain.DefaultSchedulerConfig()
	store := newMockSchedulerStore()

	scheduler := NewScheduler(config, store, &mockRetention{}, &mockMonitor{})

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = scheduler.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)

	cancel()
	err := scheduler.Stop()
	require.NoError(t, err)

	wg.Wait()
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), nil, nil)

	// Stop without starting should be safe
	err := scheduler.Stop()
	require.NoError(t, err)
}

func TestScheduler_DoubleStart(t *testing.T) {
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), &mockRetention{}, &mockMonitor{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = scheduler.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)

	// Second start should return immediately (already running)
	err := scheduler.Start(context.Background())
	assert.NoError(t, err)

	cancel()
	scheduler.Stop() //nolint:errcheck
	wg.Wait()
}

func TestScheduler_Disabled(t *testing.T) {
	config := domain.DefaultSchedulerConfig()
	config.Enabled = false
	store := newMockSchedulerStore()
	retention := &mockRetention{}

	scheduler := NewScheduler(config, store, retention, &mockMonitor{})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := scheduler.Start(ctx)

	require.NoError(t, err)
	assert.Zero(t, retention.callCount())
	assert.Empty(t, store.tasks, "a disabled scheduler creates no tasks")
}

func TestScheduler_Register(t *testing.T) {
	config := domain.DefaultSchedulerConfig()
	store := newMockSchedulerStore()

	scheduler := NewScheduler(config, store, nil, nil)
	scheduler.now = func() time.Time { return time.Date(2024, 11, 4, 15, 4, 0, 0, time.Local) }

	ctx := context.Background()
	err := scheduler.register(ctx)
	require.NoError(t, err)

	sweep, err := store.GetTask(ctx, domain.TaskIDRetentionSweep)
	require.NoError(t, err)
	require.NotNil(t, sweep)
	assert.Equal(t, "Retention Sweep", sweep.Name)
	assert.True(t, sweep.Enabled)
	assert.Equal(t, time.Date(2024, 11, 5, 0, 0, 0, 0, time.Local), sweep.NextRun, "sweeps run at midnight")

	monitor, err := store.GetTask(ctx, domain.TaskIDEntityMonitor)
	require.NoError(t, err)
	require.NotNil(t, monitor)
	assert.Equal(t, "Entity Monitor", monitor.Name)
	assert.Equal(t, time.Date(2024, 11, 4, 15, 14, 0, 0, time.Local), monitor.NextRun)
}

func TestScheduler_Register_BadClock(t *testing.T) {
	config := domain.DefaultSchedulerConfig()
	config.Tasks[domain.TaskIDRetentionSweep] = domain.TaskConfig{Enabled: true, Interval: 24 * time.Hour, At: "midnight"}
	store := newMockSchedulerStore()

	scheduler := NewScheduler(config, store, nil, nil)
	err := scheduler.register(context.Background())

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	// The monitor task is still created
	assert.Equal(t, domain.TaskIDEntityMonitor, store.task(domain.TaskIDEntityMonitor).ID)
}

func TestScheduler_EnsureTask_UpdateInterval(t *testing.T) {
	store := newMockSchedulerStore()
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, nil, nil)
	ctx := context.Background()

	taskCfg := domain.TaskConfig{
		Enabled:  true,
		Interval: 1 * time.Hour,
	}
	err := scheduler.ensureTask(ctx, "test-task", "Test Task", taskCfg)
	require.NoError(t, err)

	taskCfg.Interval = 2 * time.Hour
	err = scheduler.ensureTask(ctx, "test-task", "Test Task", taskCfg)
	require.NoError(t, err)

	task, err := store.GetTask(ctx, "test-task")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, task.Interval)
}

func TestScheduler_EnsureTask_UpdateAt(t *testing.T) {
	store := newMockSchedulerStore()
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, nil, nil)
	scheduler.now = func() time.Time { return time.Date(2024, 11, 4, 15, 4, 0, 0, time.Local) }
	ctx := context.Background()

	taskCfg := domain.TaskConfig{Enabled: true, Interval: 24 * time.Hour, At: "00:00"}
	require.NoError(t, scheduler.ensureTask(ctx, domain.TaskIDRetentionSweep, "Retention Sweep", taskCfg))
	midnight := time.Date(2024, 11, 5, 0, 0, 0, 0, time.Local)
	assert.True(t, midnight.Equal(store.task(domain.TaskIDRetentionSweep).NextRun))

	taskCfg.At = "03:00"
	require.NoError(t, scheduler.ensureTask(ctx, domain.TaskIDRetentionSweep, "Retention Sweep", taskCfg))

	task := store.task(domain.TaskIDRetentionSweep)
	assert.Equal(t, "03:00", task.At)
	assert.True(t, time.Date(2024, 11, 5, 3, 0, 0, 0, time.Local).Equal(task.NextRun), "got %s", task.NextRun)
}

func TestScheduler_EnsureTask_KeepsScheduleAcrossRestart(t *testing.T) {
	store := newMockSchedulerStore()
	ctx := context.Background()
	next := time.Now().Add(3 * time.Minute)
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       domain.TaskIDEntityMonitor,
		Interval: 10 * time.Minute,
		NextRun:  next,
	}))

	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, nil, nil)
	require.NoError(t, scheduler.register(ctx))

	task := store.task(domain.TaskIDEntityMonitor)
	assert.True(t, next.Equal(task.NextRun))
	assert.True(t, task.Enabled)
}

func TestScheduler_RunDue(t *testing.T) {
	store := newMockSchedulerStore()
	retention := &mockRetention{deleted: 12}
	monitor := &mockMonitor{sent: 2}

	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, retention, monitor)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       domain.TaskIDRetentionSweep,
		Interval: 24 * time.Hour,
		NextRun:  now.Add(-time.Minute),
		Enabled:  true,
	}))
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       domain.TaskIDEntityMonitor,
		Interval: 10 * time.Minute,
		NextRun:  now.Add(time.Hour), // not due
		Enabled:  true,
	}))

	scheduler.runDue(ctx)
	scheduler.wg.Wait()

	assert.Equal(t, 1, retention.callCount())
	assert.Zero(t, monitor.tickCount())

	results := store.resultsFor(domain.TaskIDRetentionSweep)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, 12, results[0].ItemsProcessed)

	task := store.task(domain.TaskIDRetentionSweep)
	assert.True(t, task.NextRun.After(now))
	assert.False(t, task.LastSuccess.IsZero())
	assert.Empty(t, task.LastError)
}

func TestScheduler_RunDue_SkipsDisabled(t *testing.T) {
	store := newMockSchedulerStore()
	retention := &mockRetention{}

	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, retention, nil)
	ctx := context.Background()

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:      domain.TaskIDRetentionSweep,
		NextRun: time.Now().Add(-time.Minute),
		Enabled: false,
	}))

	scheduler.runDue(ctx)
	scheduler.wg.Wait()

	assert.Zero(t, retention.callCount())
}

func TestScheduler_RunTask_RecordsFailure(t *testing.T) {
	store := newMockSchedulerStore()
	monitor := &mockMonitor{sent: 1, err: errBoom}

	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, nil, monitor)
	ctx := context.Background()

	task := &domain.ScheduledTask{ID: domain.TaskIDEntityMonitor, Interval: 10 * time.Minute, Enabled: true}
	scheduler.runTask(ctx, task)
	scheduler.wg.Wait()

	results := store.resultsFor(domain.TaskIDEntityMonitor)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, errBoom.Error(), results[0].Error)
	assert.Equal(t, 1, results[0].ItemsProcessed)

	saved := store.task(domain.TaskIDEntityMonitor)
	assert.Equal(t, errBoom.Error(), saved.LastError)
	assert.True(t, saved.LastSuccess.IsZero())
	assert.Equal(t, results[0].EndedAt.Add(10*time.Minute), saved.NextRun)
}

func TestScheduler_RunTask_NoOverlap(t *testing.T) {
	store := newMockSchedulerStore()
	retention := &mockRetention{block: make(chan struct{})}

	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, retention, nil)
	ctx := context.Background()
	task := domain.ScheduledTask{ID: domain.TaskIDRetentionSweep, Interval: time.Hour, Enabled: true}

	first := task
	scheduler.runTask(ctx, &first)
	require.Eventually(t, func() bool { return retention.callCount() == 1 }, time.Second, time.Millisecond)

	// Still running: the second start is dropped
	second := task
	scheduler.runTask(ctx, &second)

	close(retention.block)
	scheduler.wg.Wait()

	assert.Equal(t, 1, retention.callCount())
	assert.Len(t, store.resultsFor(domain.TaskIDRetentionSweep), 1)
}

func TestScheduler_RunTask_NilServices(t *testing.T) {
	store := newMockSchedulerStore()
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, nil, nil)
	ctx := context.Background()

	scheduler.runTask(ctx, &domain.ScheduledTask{ID: domain.TaskIDRetentionSweep, Enabled: true})
	scheduler.runTask(ctx, &domain.ScheduledTask{ID: domain.TaskIDEntityMonitor, Enabled: true})
	scheduler.wg.Wait()

	assert.True(t, store.resultsFor(domain.TaskIDRetentionSweep)[0].Success)
	assert.True(t, store.resultsFor(domain.TaskIDEntityMonitor)[0].Success)
}

func TestScheduler_RunTask_UnknownTaskID(t *testing.T) {
	store := newMockSchedulerStore()
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, nil, nil)
	ctx := context.Background()

	task := &domain.ScheduledTask{
		ID:      "unknown-task",
		Name:    "Unknown",
		Enabled: true,
	}

	// This should just log and return, not panic
	scheduler.runTask(ctx, task)
	scheduler.wg.Wait()

	assert.Empty(t, store.resultsFor("unknown-task"))
}
