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

	"github.com/mrlokans/library/internal/tasks"
)

type recordingQueue struct {
	mu    sync.Mutex
	tasks []backlite.Task
	err   error
}

func (q *recordingQueue) Enqueue(ctx context.Context, task backlite.Task) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return "", q.err
	}
	q.tasks = append(q.tasks, task)
	return "task-id", nil
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("0 3 * * *"))
	assert.NoError(t, ValidateSchedule("*/15 * * * *"))
	assert.Error(t, ValidateSchedule("0 0 3 * * *"), "seconds field is not accepted")
	assert.Error(t, ValidateSchedule("nonsense"))
}

func TestMaintenanceScheduler_StartStop(t *testing.T) {
	s := NewMaintenanceScheduler(&recordingQueue{}, MaintenanceConfig{
		AuditCleanupSchedule: "0 3 * * *",
		ReconcileSchedule:    "*/30 * * * *",
	})

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	require.NoError(t, s.Start(context.Background()), "second start is a no-op")

	next := s.NextRuns()
	assert.Contains(t, next, "cleanup_audit_events")
	assert.Contains(t, next, "reconcile_loans")

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Empty(t, s.NextRuns())
	s.Stop()
}

func TestMaintenanceScheduler_DisabledJobs(t *testing.T) {
	s := NewMaintenanceScheduler(&recordingQueue{}, MaintenanceConfig{ReconcileSchedule: "0 * * * *"})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	next := s.NextRuns()
	assert.NotContains(t, next, "cleanup_audit_events")
	assert.Contains(t, next, "reconcile_loans")
}

func TestMaintenanceScheduler_NothingConfigured(t *testing.T) {
	s := NewMaintenanceScheduler(&recordingQueue{}, MaintenanceConfig{})
	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestMaintenanceScheduler_InvalidSchedule(t *testing.T) {
	s := NewMaintenanceScheduler(&recordingQueue{}, MaintenanceConfig{AuditCleanupSchedule: "every day"})
	err := s.Start(context.Background())
	assert.ErrorContains(t, err, "cleanup_audit_events")
	assert.False(t, s.IsRunning())
}

func TestMaintenanceScheduler_StopsWithContext(t *testing.T) {
	s := NewMaintenanceScheduler(&recordingQueue{}, MaintenanceConfig{ReconcileSchedule: "0 * * * *"})
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))

	cancel()
	assert.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 10*time.Millisecond)
}

func TestMaintenanceScheduler_RunNow(t *testing.T) {
	queue := &recordingQueue{}
	s := NewMaintenanceScheduler(queue, MaintenanceConfig{AuditRetentionDays: 30})

	s.RunNow(context.Background())

	require.Len(t, queue.tasks, 2)
	assert.Equal(t, tasks.CleanupAuditEventsTask{RetentionDays: 30}, queue.tasks[0])
	assert.Equal(t, tasks.ReconcileLoansTask{}, queue.tasks[1])
}

func TestMaintenanceScheduler_EnqueueFailureIsLogged(t *testing.T) {
	queue := &recordingQueue{err: errors.New("queue closed")}
	s := NewMaintenanceScheduler(queue, MaintenanceConfig{})

	assert.NotPanics(t, func() { s.RunNow(context.Background()) })
	assert.Empty(t, queue.tasks)
}
