package services

import (
	"context"
	"strings"
	"time"

	"task-management/backend/apperrors"
	"task-management/backend/logging"
	"task-management/backend/models"
	"task-management/backend/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskService is the validation-and-persistence boundary for task mutations.
type TaskService struct {
	tasks    repositories.TaskRepository
	users    repositories.UserRepository
	notifier Notifier
}

func NewTaskService(tasks repositories.TaskRepository, users repositories.UserRepository, notifier Notifier) *TaskService {
	return &TaskService{tasks: tasks, users: users, notifier: notifier}
}

type CreateTaskInput struct {
	Title       string
	Description string
	Priority    models.TaskPriority
	DueDate     time.Time
	Assignee    *primitive.ObjectID
}

// CreateTask validates the input and stores a new task. Status is always
// Pending and CreatedAt is always set here, regardless of what the caller
// sends.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.Validationf("title is required")
	}
	if input.DueDate.IsZero() {
		return nil, apperrors.Validationf("due date is required")
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.Validationf("invalid priority %q", priority)
	}

	var assignee *models.User
	if input.Assignee != nil {
		user, err := s.users.FindByID(ctx, *input.Assignee)
		if err != nil {
			return nil, err
		}
		assignee = user
	}

	task := &models.Task{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Status:      models.StatusPending,
		Priority:    priority,
		Assignee:    input.Assignee,
		DueDate:     input.DueDate,
		CreatedAt:   time.Now(),
	}

	if err := s.tasks.Insert(ctx, task); err != nil {
		return nil, err
	}
	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s (%q) created", task.ID.Hex(), task.Title)

	if assignee != nil {
		s.notifyAssigned(assignee, task)
	}

	return task, nil
}

// TaskPatch carries a partial task update; nil fields are left untouched.
// Unassign removes the current assignee.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
	Priority    *models.TaskPriority
	DueDate     *time.Time
	Assignee    *primitive.ObjectID
	Unassign    bool
}

// UpdateTask applies a partial update. Validation failures leave the stored
// task unchanged. Any transition between the three statuses is permitted.
func (s *TaskService) UpdateTask(ctx context.Context, id primitive.ObjectID, patch TaskPatch) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Status != nil && !patch.Status.Valid() {
		return nil, apperrors.Validationf("invalid status %q", *patch.Status)
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return nil, apperrors.Validationf("invalid priority %q", *patch.Priority)
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, apperrors.Validationf("title cannot be blank")
	}
	if patch.DueDate != nil && patch.DueDate.IsZero() {
		return nil, apperrors.Validationf("due date cannot be blank")
	}

	var newAssignee *models.User
	if patch.Assignee != nil {
		user, err := s.users.FindByID(ctx, *patch.Assignee)
		if err != nil {
			return nil, err
		}
		newAssignee = user
	}

	previousAssignee := task.Assignee

	if patch.Title != nil {
		task.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		task.DueDate = *patch.DueDate
	}
	if patch.Unassign {
		task.Assignee = nil
	} else if patch.Assignee != nil {
		task.Assignee = patch.Assignee
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	logging.Logger.Infof("Event ID: TASK_UPDATED, Description: Task %s updated", task.ID.Hex())

	if newAssignee != nil && (previousAssignee == nil || *previousAssignee != newAssignee.ID) {
		s.notifyAssigned(newAssignee, task)
	}

	return task, nil
}

// DeleteTask removes a task. Deleting the same id twice fails the second
// time; absence is not treated as success.
func (s *TaskService) DeleteTask(ctx context.Context, id primitive.ObjectID) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}
	logging.Logger.Infof("Event ID: TASK_DELETED, Description: Task %s deleted", id.Hex())
	return nil
}

func (s *TaskService) GetTask(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	return s.tasks.FindByID(ctx, id)
}

func (s *TaskService) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	return s.tasks.Find(ctx, filter)
}

func (s *TaskService) GetTasksForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Task, error) {
	return s.tasks.Find(ctx, models.TaskFilter{Assignee: &userID})
}

func (s *TaskService) notifyAssigned(user *models.User, task *models.Task) {
	if err := s.notifier.TaskAssigned(user, task); err != nil {
		logging.Logger.Warnf("Event ID: ASSIGNMENT_NOTIFY_FAILED, Description: Could not notify %s about task %s: %v", user.Email, task.ID.Hex(), err)
	}
}
