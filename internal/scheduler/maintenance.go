package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/library/internal/tasks"
)

// Enqueuer hands tasks to the background queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
}

// MaintenanceConfig holds the cron schedules. An empty schedule disables that
// job.
type MaintenanceConfig struct {
	AuditCleanupSchedule string
	ReconcileSchedule    string
	AuditRetentionDays   int
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(expr string) error {
	_, err := parser.Parse(expr)
	return err
}

// MaintenanceScheduler enqueues the periodic upkeep tasks. It never runs the
// work itself, so a slow job cannot block the cron loop.
type MaintenanceScheduler struct {
	queue Enqueuer
	cfg   MaintenanceConfig

	cron      *cron.Cron
	entries   map[string]cron.EntryID
	mu        sync.RWMutex
	isRunning bool
	cancel    context.CancelFunc
}

func NewMaintenanceScheduler(queue Enqueuer, cfg MaintenanceConfig) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		queue:   queue,
		cfg:     cfg,
		cron:    cron.New(cron.WithParser(parser)),
		entries: make(map[string]cron.EntryID),
	}
}

type job struct {
	schedule string
	task     backlite.Task
}

func (s *MaintenanceScheduler) jobs() []job {
	return []job{
		{s.cfg.AuditCleanupSchedule, tasks.CleanupAuditEventsTask{RetentionDays: s.cfg.AuditRetentionDays}},
		{s.cfg.ReconcileSchedule, tasks.ReconcileLoansTask{}},
	}
}

// Start registers the configured jobs and starts the cron loop. The loop stops
// when ctx is cancelled.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	for _, j := range s.jobs() {
		name := j.task.Config().Name
		if j.schedule == "" {
			log.Printf("[SCHEDULER] %s: disabled", name)
			continue
		}
		task := j.task
		entryID, err := s.cron.AddFunc(j.schedule, func() { s.enqueue(runCtx, task) })
		if err != nil {
			cancel()
			return fmt.Errorf("invalid cron schedule '%s' for %s: %w", j.schedule, name, err)
		}
		s.entries[name] = entryID
	}
	if len(s.entries) == 0 {
		cancel()
		log.Printf("[SCHEDULER] no maintenance jobs configured")
		return nil
	}

	s.cancel = cancel
	s.cron.Start()
	s.isRunning = true

	for name, id := range s.entries {
		log.Printf("[SCHEDULER] %s: next run %v", name, s.cron.Entry(id).Next)
	}

	go func() {
		<-runCtx.Done()
		s.Stop()
	}()
	return nil
}

// Stop stops the loop and waits for in-flight enqueues.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	cancel()
	log.Printf("[SCHEDULER] stopped")
}

func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRuns returns the next run time per task name.
func (s *MaintenanceScheduler) NextRuns() map[string]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	next := make(map[string]time.Time, len(s.entries))
	if !s.isRunning {
		return next
	}
	for name, id := range s.entries {
		next[name] = s.cron.Entry(id).Next
	}
	return next
}

// RunNow enqueues every job immediately, regardless of schedule.
func (s *MaintenanceScheduler) RunNow(ctx context.Context) {
	for _, j := range s.jobs() {
		s.enqueue(ctx, j.task)
	}
}

func (s *MaintenanceScheduler) enqueue(ctx context.Context, task backlite.Task) {
	id, err := s.queue.Enqueue(ctx, task)
	if err != nil {
		log.Printf("[SCHEDULER] failed to enqueue %s: %v", task.Config().Name, err)
		return
	}
	log.Printf("[SCHEDULER] enqueued %s (task %s)", task.Config().Name, id)
}
