package services

import (
	"context"
	"sort"

	"task-management/backend/models"
	"task-management/backend/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ComputeMetrics buckets tasks by status. The buckets sum to Total because
// status is constrained to the three valid values on every write.
func ComputeMetrics(tasks []models.Task) models.TaskMetrics {
	metrics := models.TaskMetrics{Total: len(tasks)}
	for _, task := range tasks {
		switch task.Status {
		case models.StatusPending:
			metrics.Pending++
		case models.StatusInProgress:
			metrics.InProgress++
		case models.StatusCompleted:
			metrics.Completed++
		}
	}
	return metrics
}

// RecentTasks returns at most limit tasks ordered by creation time, newest
// first. The input slice is not modified.
func RecentTasks(tasks []models.Task, limit int) []models.Task {
	sorted := make([]models.Task, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if limit < 0 {
		limit = 0
	}
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// ScopeToUser filters tasks down to one assignee. Applying it twice gives
// the same result.
func ScopeToUser(tasks []models.Task, userID primitive.ObjectID) []models.Task {
	scoped := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.Assignee != nil && *task.Assignee == userID {
			scoped = append(scoped, task)
		}
	}
	return scoped
}

// MetricsService derives dashboard snapshots. Every call recomputes from the
// full current task collection; nothing is cached.
type MetricsService struct {
	tasks repositories.TaskRepository
}

func NewMetricsService(tasks repositories.TaskRepository) *MetricsService {
	return &MetricsService{tasks: tasks}
}

// AdminDashboard computes global counters plus the recentLimit most recently
// created tasks.
func (s *MetricsService) AdminDashboard(ctx context.Context, recentLimit int) (*models.DashboardSnapshot, error) {
	tasks, err := s.tasks.Find(ctx, models.TaskFilter{})
	if err != nil {
		return nil, err
	}
	return &models.DashboardSnapshot{
		Metrics:     ComputeMetrics(tasks),
		RecentTasks: RecentTasks(tasks, recentLimit),
	}, nil
}

// UserDashboard computes the same snapshot scoped to one assignee. The
// identity is an explicit parameter, threaded in from the session context by
// the caller.
func (s *MetricsService) UserDashboard(ctx context.Context, userID primitive.ObjectID, recentLimit int) (*models.DashboardSnapshot, error) {
	tasks, err := s.tasks.Find(ctx, models.TaskFilter{})
	if err != nil {
		return nil, err
	}
	scoped := ScopeToUser(tasks, userID)
	return &models.DashboardSnapshot{
		Metrics:     ComputeMetrics(scoped),
		RecentTasks: RecentTasks(scoped, recentLimit),
	}, nil
}
