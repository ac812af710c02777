package schedule

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Runner schedules named tasks on cron cadences. Each task name owns at
// most one cron entry, replaced wholesale on reschedule, and overlapping
// firings of the same task are skipped. Together these give the
// non-overlap guarantee the single-threaded mutation model relies on.
type Runner struct {
	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]taskEntry
	log     *logrus.Entry
}

type taskEntry struct {
	id   cron.EntryID
	spec string
	fn   func()
}

// NewRunner creates a runner. Tasks do not fire until Start is called.
func NewRunner(log *logrus.Logger) *Runner {
	entry := log.WithField("component", "scheduler")
	return &Runner{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{entry}),
			cron.SkipIfStillRunning(cronLogger{entry}),
		)),
		entries: make(map[string]taskEntry),
		log:     entry,
	}
}

// Schedule registers or replaces the named task at the given cron spec.
// Replacing removes the previous timer before adding the new one, so a
// task never has two active timers.
func (r *Runner) Schedule(name, spec string, fn func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[name]; ok {
		if existing.spec == spec {
			return nil
		}
		r.cron.Remove(existing.id)
	}

	id, err := r.cron.AddFunc(spec, fn)
	if err != nil {
		return fmt.Errorf("scheduling task %s with spec %q: %w", name, spec, err)
	}
	r.entries[name] = taskEntry{id: id, spec: spec, fn: fn}
	r.log.WithFields(logrus.Fields{"task": name, "spec": spec}).Info("task scheduled")
	return nil
}

// Reschedule moves an existing task to a new cron spec, keeping its
// function. No-op when the spec is unchanged.
func (r *Runner) Reschedule(name, spec string) error {
	r.mu.Lock()
	existing, ok := r.entries[name]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("rescheduling unknown task %s", name)
	}
	return r.Schedule(name, spec, existing.fn)
}

// Spec returns the active cron spec for a task, or "" if unscheduled.
func (r *Runner) Spec(name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[name].spec
}

// Next returns the next scheduled firing time of a task, or the zero
// time when the task is unscheduled or the runner is not started.
func (r *Runner) Next(name string) time.Time {
	r.mu.Lock()
	entry, ok := r.entries[name]
	r.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return r.cron.Entry(entry.id).Next
}

// Start begins firing scheduled tasks.
func (r *Runner) Start() {
	r.cron.Start()
}

// Stop prevents future firings and blocks until any in-flight task has
// finished. This is the graceful-shutdown path.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

// cronLogger adapts logrus to cron's logging interface.
type cronLogger struct {
	entry *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithField("detail", keysAndValues).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithError(err).WithField("detail", keysAndValues).Error(msg)
}
