package domain

import (
	"fmt"
	"time"
)

// Built-in task IDs.
const (
	TaskIDRetentionSweep = "retention-sweep"
	TaskIDEntityMonitor  = "entity-monitor"
)

// ScheduledTask is the persisted state of one recurring task, kept so a
// restart resumes the schedule instead of running everything at once.
type ScheduledTask struct {
	ID       string
	Name     string
	Interval time.Duration
	Enabled  bool

	// At is the wall-clock time NextRun was pinned to, if any.
	At string

	LastRun     time.Time
	NextRun     time.Time
	LastSuccess time.Time

	// LastError is empty after a successful run.
	LastError string
}

// TaskResult records one run of a task.
type TaskResult struct {
	TaskID    string
	StartedAt time.Time
	EndedAt   time.Time
	Success   bool
	Error     string

	// ItemsProcessed counts entries deleted by a sweep or alerts sent by
	// a monitor tick.
	ItemsProcessed int
}

// SchedulerConfig switches the scheduler and each task on or off.
type SchedulerConfig struct {
	Enabled bool
	Tasks   map[string]TaskConfig
}

// TaskConfig schedules one task.
type TaskConfig struct {
	Enabled  bool
	Interval time.Duration

	// At pins runs to a local wall-clock time ("00:00"). When empty, runs
	// are spaced Interval apart.
	At string
}

// NextRun returns the first run time strictly after from. With At set,
// intervals of a day or more (or none) step a day at a time and shorter
// intervals step from the pinned time.
func (c TaskConfig) NextRun(from time.Time) (time.Time, error) {
	if c.At == "" {
		return from.Add(c.Interval), nil
	}
	clock, err := time.Parse("15:04", c.At)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: task time %q", ErrInvalidInput, c.At)
	}

	y, m, d := from.Date()
	next := time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, from.Location())
	daily := c.Interval <= 0 || c.Interval >= 24*time.Hour
	for !next.After(from) {
		if daily {
			next = next.AddDate(0, 0, 1)
		} else {
			next = next.Add(c.Interval)
		}
	}
	return next, nil
}

// Task returns the configuration for id, or a disabled zero value.
func (c SchedulerConfig) Task(id string) TaskConfig {
	return c.Tasks[id]
}

// DefaultSchedulerConfig sweeps at midnight and checks the watch list
// every ten minutes.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled: true,
		Tasks: map[string]TaskConfig{
			TaskIDRetentionSweep: {Enabled: true, Interval: 24 * time.Hour, At: "00:00"},
			TaskIDEntityMonitor:  {Enabled: true, Interval: 10 * time.Minute},
		},
	}
}
