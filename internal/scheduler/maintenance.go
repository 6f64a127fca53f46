// Package scheduler enqueues recurring maintenance work on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/elibrary/internal/config"
	"github.com/mrlokans/elibrary/internal/tasks"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule checks a standard five-field cron expression.
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// NextRunTime returns the first activation of schedule after from.
func NextRunTime(schedule string, from time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}

// Enqueuer accepts tasks for background processing.
type Enqueuer interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
}

type job struct {
	name     string
	schedule string
	task     func() backlite.Task
	entryID  cron.EntryID
}

// MaintenanceScheduler enqueues the overdue scan and the audit cleanup on
// their configured schedules. The work itself runs on the task queue.
type MaintenanceScheduler struct {
	queue Enqueuer
	jobs  []*job

	cron       *cron.Cron
	mu         sync.Mutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewMaintenanceScheduler builds the job list from cfg. A disabled job is
// left out.
func NewMaintenanceScheduler(queue Enqueuer, cfg config.Maintenance, audit config.Audit) *MaintenanceScheduler {
	s := &MaintenanceScheduler{
		queue: queue,
		cron:  cron.New(cron.WithParser(cronParser)),
	}

	if cfg.OverdueScanEnabled {
		s.jobs = append(s.jobs, &job{
			name:     tasks.QueueScanOverdueLoans,
			schedule: cfg.OverdueScanSchedule,
			task:     func() backlite.Task { return tasks.ScanOverdueLoansTask{} },
		})
	}
	if cfg.AuditCleanupEnabled {
		retentionDays := audit.RetentionDays
		s.jobs = append(s.jobs, &job{
			name:     tasks.QueueCleanupAuditEvents,
			schedule: cfg.AuditCleanupSchedule,
			task:     func() backlite.Task { return tasks.CleanupAuditEventsTask{RetentionDays: retentionDays} },
		})
	}
	return s
}

// Start registers every job with cron and starts it. The scheduler stops on
// its own when ctx is cancelled.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if len(s.jobs) == 0 {
		log.Printf("Maintenance scheduler: no jobs enabled")
		return nil
	}

	for _, j := range s.jobs {
		if err := ValidateCronSchedule(j.schedule); err != nil {
			return fmt.Errorf("invalid cron schedule '%s' for %s: %w", j.schedule, j.name, err)
		}
		j := j
		entryID, err := s.cron.AddFunc(j.schedule, func() { s.enqueue(context.Background(), j) })
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", j.name, err)
		}
		j.entryID = entryID
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	for _, j := range s.jobs {
		next, _ := NextRunTime(j.schedule, time.Now())
		log.Printf("Maintenance scheduler: %s scheduled '%s'. Next run: %v", j.name, j.schedule, next)
	}

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for in-flight enqueues and stops cron. Safe to call twice.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.isRunning = false

	log.Printf("Maintenance scheduler: stopped")
}

// RunNow enqueues the named job immediately.
func (s *MaintenanceScheduler) RunNow(ctx context.Context, name string) (string, error) {
	for _, j := range s.jobs {
		if j.name == name {
			return s.enqueue(ctx, j)
		}
	}
	return "", fmt.Errorf("unknown maintenance job %q", name)
}

// Jobs lists the names of the enabled jobs.
func (s *MaintenanceScheduler) Jobs() []string {
	names := make([]string, 0, len(s.jobs))
	for _, j := range s.jobs {
		names = append(names, j.name)
	}
	return names
}

// NextRuns maps each job to its next activation while running.
func (s *MaintenanceScheduler) NextRuns() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]time.Time)
	if !s.isRunning {
		return out
	}
	for _, j := range s.jobs {
		out[j.name] = s.cron.Entry(j.entryID).Next
	}
	return out
}

func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *MaintenanceScheduler) enqueue(ctx context.Context, j *job) (string, error) {
	id, err := s.queue.Enqueue(ctx, j.task())
	if err != nil {
		log.Printf("Maintenance scheduler: failed to enqueue %s: %v", j.name, err)
		return "", err
	}
	log.Printf("Maintenance scheduler: enqueued %s (task %s)", j.name, id)
	return id, nil
}
