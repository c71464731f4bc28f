package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"task-management/backend/apperrors"
	"task-management/backend/models"
	"task-management/backend/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recordingNotifier struct {
	assigned []string // assignee emails in notification order
}

func (n *recordingNotifier) TaskAssigned(user *models.User, _ *models.Task) error {
	n.assigned = append(n.assigned, user.Email)
	return nil
}

func newTaskServiceForTest(t *testing.T) (*TaskService, *repositories.InMemoryTaskRepo, *repositories.InMemoryUserRepo, *recordingNotifier) {
	t.Helper()
	taskRepo := repositories.NewInMemoryTaskRepo()
	userRepo := repositories.NewInMemoryUserRepo()
	notifier := &recordingNotifier{}
	return NewTaskService(taskRepo, userRepo, notifier), taskRepo, userRepo, notifier
}

func seedUser(t *testing.T, repo *repositories.InMemoryUserRepo, name, email, handle string) *models.User {
	t.Helper()
	user := &models.User{
		Name:       name,
		Email:      email,
		UserID:     handle,
		Role:       models.RoleUser,
		Department: "Engineering",
	}
	if err := repo.Insert(context.Background(), user); err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return user
}

func dueTomorrow() time.Time {
	return time.Now().Add(24 * time.Hour)
}

func TestCreateTaskDefaults(t *testing.T) {
	svc, _, _, _ := newTaskServiceForTest(t)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, CreateTaskInput{Title: "Write report", DueDate: dueTomorrow()})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if task.Status != models.StatusPending {
		t.Errorf("New task status = %q, want %q", task.Status, models.StatusPending)
	}
	if task.Priority != models.PriorityMedium {
		t.Errorf("New task priority = %q, want %q", task.Priority, models.PriorityMedium)
	}
	if task.CreatedAt.IsZero() {
		t.Error("New task has zero CreatedAt")
	}
	if task.ID.IsZero() {
		t.Error("New task has zero ID")
	}
}

func TestCreateTaskValidation(t *testing.T) {
	svc, _, _, _ := newTaskServiceForTest(t)
	ctx := context.Background()

	if _, err := svc.CreateTask(ctx, CreateTaskInput{DueDate: dueTomorrow()}); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("Missing title: got %v, want validation error", err)
	}
	if _, err := svc.CreateTask(ctx, CreateTaskInput{Title: "   ", DueDate: dueTomorrow()}); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("Blank title: got %v, want validation error", err)
	}
	if _, err := svc.CreateTask(ctx, CreateTaskInput{Title: "No due date"}); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("Missing due date: got %v, want validation error", err)
	}
	if _, err := svc.CreateTask(ctx, CreateTaskInput{Title: "Bad priority", DueDate: dueTomorrow(), Priority: "Urgent"}); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("Invalid priority: got %v, want validation error", err)
	}
}

func TestCreateTaskUnknownAssignee(t *testing.T) {
	svc, _, _, _ := newTaskServiceForTest(t)

	missing := primitive.NewObjectID()
	_, err := svc.CreateTask(context.Background(), CreateTaskInput{
		Title:    "Orphan",
		DueDate:  dueTomorrow(),
		Assignee: &missing,
	})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("Unknown assignee: got %v, want not-found error", err)
	}
}

func TestCreateTaskNotifiesAssignee(t *testing.T) {
	svc, _, userRepo, notifier := newTaskServiceForTest(t)
	user := seedUser(t, userRepo, "Ana", "ana@example.com", "ana")

	_, err := svc.CreateTask(context.Background(), CreateTaskInput{
		Title:    "Review PR",
		DueDate:  dueTomorrow(),
		Assignee: &user.ID,
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if len(notifier.assigned) != 1 || notifier.assigned[0] != "ana@example.com" {
		t.Errorf("Notifications = %v, want one to ana@example.com", notifier.assigned)
	}
}

func TestUpdateTaskPatch(t *testing.T) {
	svc, _, userRepo, _ := newTaskServiceForTest(t)
	ctx := context.Background()
	user := seedUser(t, userRepo, "Ana", "ana@example.com", "ana")

	task, err := svc.CreateTask(ctx, CreateTaskInput{Title: "Initial", DueDate: dueTomorrow()})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	title := "Renamed"
	status := models.StatusInProgress
	priority := models.PriorityHigh
	updated, err := svc.UpdateTask(ctx, task.ID, TaskPatch{
		Title:    &title,
		Status:   &status,
		Priority: &priority,
		Assignee: &user.ID,
	})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if updated.Title != "Renamed" || updated.Status != models.StatusInProgress || updated.Priority != models.PriorityHigh {
		t.Errorf("Patched task = %+v, fields not applied", updated)
	}
	if updated.Assignee == nil || *updated.Assignee != user.ID {
		t.Error("Assignee not applied")
	}
	if !updated.CreatedAt.Equal(task.CreatedAt) {
		t.Error("CreatedAt changed on update")
	}
}

func TestUpdateTaskInvalidStatusLeavesTaskUnchanged(t *testing.T) {
	svc, taskRepo, _, _ := newTaskServiceForTest(t)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, CreateTaskInput{Title: "Stable", DueDate: dueTomorrow()})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	bad := models.TaskStatus("Archived")
	title := "Should not stick"
	_, err = svc.UpdateTask(ctx, task.ID, TaskPatch{Title: &title, Status: &bad})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("Invalid status: got %v, want validation error", err)
	}

	stored, err := taskRepo.FindByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if stored.Status != models.StatusPending || stored.Title != "Stable" {
		t.Errorf("Stored task mutated by failed update: %+v", stored)
	}
}

func TestUpdateTaskAnyTransitionAllowed(t *testing.T) {
	svc, _, _, _ := newTaskServiceForTest(t)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, CreateTaskInput{Title: "Cycling", DueDate: dueTomorrow()})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	// No status is terminal; walk Completed back to Pending.
	for _, status := range []models.TaskStatus{models.StatusCompleted, models.StatusPending, models.StatusInProgress} {
		s := status
		if _, err := svc.UpdateTask(ctx, task.ID, TaskPatch{Status: &s}); err != nil {
			t.Fatalf("Transition to %q failed: %v", status, err)
		}
	}
}

func TestUpdateTaskReassignmentNotifies(t *testing.T) {
	svc, _, userRepo, notifier := newTaskServiceForTest(t)
	ctx := context.Background()
	ana := seedUser(t, userRepo, "Ana", "ana@example.com", "ana")
	bob := seedUser(t, userRepo, "Bob", "bob@example.com", "bob")

	task, err := svc.CreateTask(ctx, CreateTaskInput{Title: "Handover", DueDate: dueTomorrow(), Assignee: &ana.ID})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	// Re-saving the same assignee must not renotify.
	if _, err := svc.UpdateTask(ctx, task.ID, TaskPatch{Assignee: &ana.ID}); err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if _, err := svc.UpdateTask(ctx, task.ID, TaskPatch{Assignee: &bob.ID}); err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}

	want := []string{"ana@example.com", "bob@example.com"}
	if len(notifier.assigned) != len(want) {
		t.Fatalf("Notifications = %v, want %v", notifier.assigned, want)
	}
	for i := range want {
		if notifier.assigned[i] != want[i] {
			t.Errorf("Notification %d = %q, want %q", i, notifier.assigned[i], want[i])
		}
	}
}

func TestUpdateTaskUnknownID(t *testing.T) {
	svc, _, _, _ := newTaskServiceForTest(t)
	status := models.StatusCompleted
	_, err := svc.UpdateTask(context.Background(), primitive.NewObjectID(), TaskPatch{Status: &status})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("Unknown id: got %v, want not-found error", err)
	}
}

func TestDeleteTaskTwice(t *testing.T) {
	svc, _, _, _ := newTaskServiceForTest(t)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, CreateTaskInput{Title: "Doomed", DueDate: dueTomorrow()})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if err := svc.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("First delete failed: %v", err)
	}
	if err := svc.DeleteTask(ctx, task.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("Second delete: got %v, want not-found error", err)
	}
}

func TestListTasksFilter(t *testing.T) {
	svc, _, userRepo, _ := newTaskServiceForTest(t)
	ctx := context.Background()
	ana := seedUser(t, userRepo, "Ana", "ana@example.com", "ana")

	if _, err := svc.CreateTask(ctx, CreateTaskInput{Title: "A", DueDate: dueTomorrow(), Assignee: &ana.ID}); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	b, err := svc.CreateTask(ctx, CreateTaskInput{Title: "B", DueDate: dueTomorrow(), Assignee: &ana.ID})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if _, err := svc.CreateTask(ctx, CreateTaskInput{Title: "C", DueDate: dueTomorrow()}); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	completed := models.StatusCompleted
	if _, err := svc.UpdateTask(ctx, b.ID, TaskPatch{Status: &completed}); err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}

	all, err := svc.ListTasks(ctx, models.TaskFilter{})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Empty filter returned %d tasks, want 3", len(all))
	}

	byStatus, err := svc.ListTasks(ctx, models.TaskFilter{Status: &completed})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].Title != "B" {
		t.Errorf("Status filter returned %v, want just B", byStatus)
	}

	forAna, err := svc.GetTasksForUser(ctx, ana.ID)
	if err != nil {
		t.Fatalf("GetTasksForUser failed: %v", err)
	}
	if len(forAna) != 2 {
		t.Errorf("GetTasksForUser returned %d tasks, want 2", len(forAna))
	}
	for _, task := range forAna {
		if task.Assignee == nil || *task.Assignee != ana.ID {
			t.Errorf("GetTasksForUser returned foreign task %q", task.Title)
		}
	}
}
