package services

import (
	"context"
	"time"

	"task-management/backend/logging"
	"task-management/backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskPoller re-fetches one user's tasks on a fixed interval and hands each
// snapshot to a callback. It is a read-only refresh loop; cancel the context
// to stop it. Fetch errors are logged and the loop keeps going.
type TaskPoller struct {
	interval time.Duration
	fetch    func(ctx context.Context) ([]models.Task, error)
	onUpdate func(tasks []models.Task)
}

func NewTaskPoller(svc *TaskService, userID primitive.ObjectID, interval time.Duration, onUpdate func([]models.Task)) *TaskPoller {
	return &TaskPoller{
		interval: interval,
		fetch: func(ctx context.Context) ([]models.Task, error) {
			return svc.GetTasksForUser(ctx, userID)
		},
		onUpdate: onUpdate,
	}
}

// Run polls until ctx is cancelled. The first fetch happens immediately.
func (p *TaskPoller) Run(ctx context.Context) {
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *TaskPoller) poll(ctx context.Context) {
	tasks, err := p.fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logging.Logger.Warnf("Event ID: POLL_FETCH_FAILED, Description: Task refresh failed: %v", err)
		}
		return
	}
	p.onUpdate(tasks)
}
