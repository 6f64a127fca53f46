package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/elibrary/internal/config"
	"github.com/mrlokans/elibrary/internal/tasks"
)

type mockQueue struct {
	mu    sync.Mutex
	tasks []backlite.Task
	err   error
}

func (m *mockQueue) Enqueue(ctx context.Context, task backlite.Task) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.tasks = append(m.tasks, task)
	return "task-1", nil
}

func defaultMaintenance() config.Maintenance {
	return config.Maintenance{
		OverdueScanEnabled:   true,
		OverdueScanSchedule:  "0 8 * * *",
		AuditCleanupEnabled:  true,
		AuditCleanupSchedule: "30 3 * * *",
	}
}

func TestValidateCronSchedule(t *testing.T) {
	tests := []struct {
		schedule string
		valid    bool
	}{
		{"0 8 * * *", true},
		{"*/15 * * * *", true},
		{"30 3 * * 0", true},
		{"not a schedule", false},
		{"0 8 * *", false},
		{"0 0 8 * * *", false},
	}

	for _, tc := range tests {
		t.Run(tc.schedule, func(t *testing.T) {
			err := ValidateCronSchedule(tc.schedule)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestNextRunTime(t *testing.T) {
	from := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	next, err := NextRunTime("0 8 * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC), next)
}

func TestMaintenanceScheduler_Jobs(t *testing.T) {
	s := NewMaintenanceScheduler(&mockQueue{}, defaultMaintenance(), config.Audit{RetentionDays: 30})
	assert.Equal(t, []string{tasks.QueueScanOverdueLoans, tasks.QueueCleanupAuditEvents}, s.Jobs())

	cfg := defaultMaintenance()
	cfg.AuditCleanupEnabled = false
	s = NewMaintenanceScheduler(&mockQueue{}, cfg, config.Audit{})
	assert.Equal(t, []string{tasks.QueueScanOverdueLoans}, s.Jobs())
}

func TestMaintenanceScheduler_RunNow(t *testing.T) {
	queue := &mockQueue{}
	s := NewMaintenanceScheduler(queue, defaultMaintenance(), config.Audit{RetentionDays: 30})

	id, err := s.RunNow(context.Background(), tasks.QueueCleanupAuditEvents)
	require.NoError(t, err)
	assert.Equal(t, "task-1", id)
	require.Len(t, queue.tasks, 1)
	assert.Equal(t, tasks.CleanupAuditEventsTask{RetentionDays: 30}, queue.tasks[0])

	_, err = s.RunNow(context.Background(), "reindex")
	assert.Error(t, err)

	queue.err = errors.New("queue closed")
	_, err = s.RunNow(context.Background(), tasks.QueueScanOverdueLoans)
	assert.ErrorContains(t, err, "queue closed")
}

func TestMaintenanceScheduler_StartStop(t *testing.T) {
	s := NewMaintenanceScheduler(&mockQueue{}, defaultMaintenance(), config.Audit{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	assert.True(t, s.IsRunning())
	require.NoError(t, s.Start(ctx), "second start is a no-op")

	next := s.NextRuns()
	assert.Len(t, next, 2)
	assert.True(t, next[tasks.QueueScanOverdueLoans].After(time.Now()))

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Empty(t, s.NextRuns())
	s.Stop()
}

func TestMaintenanceScheduler_StopsOnCancel(t *testing.T) {
	s := NewMaintenanceScheduler(&mockQueue{}, defaultMaintenance(), config.Audit{})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, 2*time.Second, 10*time.Millisecond)
}

func TestMaintenanceScheduler_InvalidSchedule(t *testing.T) {
	cfg := defaultMaintenance()
	cfg.OverdueScanSchedule = "every morning"

	s := NewMaintenanceScheduler(&mockQueue{}, cfg, config.Audit{})
	err := s.Start(context.Background())
	assert.ErrorContains(t, err, "invalid cron schedule")
	assert.False(t, s.IsRunning())
}

func TestMaintenanceScheduler_NoJobs(t *testing.T) {
	s := NewMaintenanceScheduler(&mockQueue{}, config.Maintenance{}, config.Audit{})
	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}
