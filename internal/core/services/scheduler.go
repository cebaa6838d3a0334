package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
	"github.com/custodia-labs/onair/internal/core/ports/driving"
	"github.com/custodia-labs/onair/internal/logger"
)

var _ driving.Scheduler = (*Scheduler)(nil)

const (
	// historyKeep is the number of results kept per task.
	historyKeep = 100

	// persistTimeout bounds the bookkeeping after a run, which happens
	// even when the run was cut short by shutdown.
	persistTimeout = 5 * time.Second
)

// job is a built-in task: its display name and the work it does. The
// returned count is stored as the run's ItemsProcessed.
type job struct {
	name string
	run  func(ctx context.Context) (int, error)
}

// Scheduler runs the retention sweep and the entity monitor on the
// schedule in SchedulerConfig, persisting task state so a restart picks
// up where it left off. A run still in progress when its task comes due
// again is not duplicated.
type Scheduler struct {
	config domain.SchedulerConfig
	store  driven.SchedulerStore
	jobs   map[string]job

	checkInterval time.Duration
	now           func() time.Time

	mu      sync.Mutex
	running bool
	active  map[string]bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler wires the built-in jobs. A nil retention or monitor turns
// its job into a successful no-op.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	retention driving.RetentionService,
	monitor driving.MonitorService,
) *Scheduler {
	noop := func(context.Context) (int, error) { return 0, nil }

	sweep, tick := noop, noop
	if retention != nil {
		sweep = retention.Sweep
	}
	if monitor != nil {
		tick = monitor.Tick
	}

	return &Scheduler{
		config: config,
		store:  store,
		jobs: map[string]job{
			domain.TaskIDRetentionSweep: {name: "Retention Sweep", run: sweep},
			domain.TaskIDEntityMonitor:  {name: "Entity Monitor", run: tick},
		},
		checkInterval: time.Minute,
		now:           time.Now,
		active:        make(map[string]bool),
	}
}

// Start blocks until Stop is called or ctx ends. Starting a running
// scheduler returns immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stop := s.stopCh
	s.mu.Unlock()

	if !s.config.Enabled {
		logger.Info("scheduler: disabled")
		select {
		case <-ctx.Done():
		case <-stop:
		}
		return nil
	}

	if err := s.register(ctx); err != nil {
		logger.Error("scheduler: registering tasks: %v", err)
	}

	s.runDue(ctx)

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		case <-stop:
			return nil
		case <-ticker.C:
			s.runDue(ctx)
		}
	}
}

// Stop ends the loop and waits for in-flight runs.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// register stores every built-in task that is missing and refreshes the
// rest from config.
func (s *Scheduler) register(ctx context.Context) error {
	var errs []error
	for _, id := range []string{domain.TaskIDRetentionSweep, domain.TaskIDEntityMonitor} {
		if err := s.ensureTask(ctx, id, s.jobs[id].name, s.config.Task(id)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ensureTask keeps a stored NextRun unless the interval or pinned time
// changed, so a restart does not reset the schedule.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	next, err := cfg.NextRun(s.now())
	if err != nil {
		return err
	}

	if task == nil {
		task = &domain.ScheduledTask{ID: id, Interval: cfg.Interval, At: cfg.At, NextRun: next}
	} else if task.Interval != cfg.Interval || task.At != cfg.At || task.NextRun.IsZero() {
		task.Interval = cfg.Interval
		task.At = cfg.At
		task.NextRun = next
	}
	task.Name = name
	task.Enabled = cfg.Enabled

	return s.store.SaveTask(ctx, task)
}

// runDue starts every enabled task whose NextRun has passed.
func (s *Scheduler) runDue(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Error("scheduler: listing tasks: %v", err)
		return
	}

	now := s.now()
	for i := range tasks {
		if tasks[i].Enabled && !tasks[i].NextRun.After(now) {
			s.runTask(ctx, &tasks[i])
		}
	}
}

// runTask starts task on its own goroutine unless it is already running.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	j, ok := s.jobs[task.ID]
	if !ok {
		logger.Warn("scheduler: unknown task %q", task.ID)
		return
	}

	s.mu.Lock()
	if s.active[task.ID] {
		s.mu.Unlock()
		logger.Debug("scheduler: %s still running, skipping", task.ID)
		return
	}
	s.active[task.ID] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.active, task.ID)
			s.mu.Unlock()
		}()

		result := &domain.TaskResult{TaskID: task.ID, StartedAt: s.now()}
		n, err := j.run(ctx)
		result.EndedAt = s.now()
		result.ItemsProcessed = n

		s.finish(ctx, task, result, err)
	}()
}

// finish records the outcome and schedules the next run.
func (s *Scheduler) finish(ctx context.Context, task *domain.ScheduledTask, result *domain.TaskResult, err error) {
	task.LastRun = result.StartedAt
	if err != nil {
		result.Error = err.Error()
		task.LastError = result.Error
		logger.Error("scheduler: %s failed: %v", task.ID, err)
	} else {
		result.Success = true
		task.LastError = ""
		task.LastSuccess = result.EndedAt
		logger.Debug("scheduler: %s processed %d items", task.ID, result.ItemsProcessed)
	}

	next, nextErr := s.config.Task(task.ID).NextRun(result.EndedAt)
	if nextErr != nil {
		next = result.EndedAt.Add(task.Interval)
	}
	task.NextRun = next

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := s.store.SaveTask(ctx, task); err != nil {
		logger.Error("scheduler: saving %s: %v", task.ID, err)
	}
	if err := s.store.RecordResult(ctx, result); err != nil {
		logger.Error("scheduler: recording %s result: %v", task.ID, err)
	}
	if err := s.store.PruneHistory(ctx, historyKeep); err != nil {
		logger.Error("scheduler: pruning history: %v", err)
	}
}
