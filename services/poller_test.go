package services

import (
	"context"
	"testing"
	"time"

	"task-management/backend/models"
	"task-management/backend/repositories"
)

func TestTaskPollerDeliversSnapshotsUntilCancelled(t *testing.T) {
	taskRepo := repositories.NewInMemoryTaskRepo()
	userRepo := repositories.NewInMemoryUserRepo()
	svc := NewTaskService(taskRepo, userRepo, NoopNotifier{})
	ctx, cancel := context.WithCancel(context.Background())

	user := seedUser(t, userRepo, "Ana", "ana@example.com", "ana")
	task := models.Task{
		Title:     "Polled",
		Status:    models.StatusPending,
		Priority:  models.PriorityMedium,
		Assignee:  &user.ID,
		DueDate:   time.Now().Add(48 * time.Hour),
		CreatedAt: time.Now(),
	}
	if err := taskRepo.Insert(ctx, &task); err != nil {
		t.Fatalf("Failed to seed task: %v", err)
	}

	snapshots := make(chan []models.Task, 16)
	poller := NewTaskPoller(svc, user.ID, 10*time.Millisecond, func(tasks []models.Task) {
		snapshots <- tasks
	})

	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	// The first snapshot arrives immediately, then on every tick.
	for i := 0; i < 2; i++ {
		select {
		case tasks := <-snapshots:
			if len(tasks) != 1 || tasks[0].Title != "Polled" {
				t.Errorf("Snapshot %d = %v, want the one seeded task", i, tasks)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("Timed out waiting for snapshot %d", i)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Poller did not stop after cancellation")
	}
}
