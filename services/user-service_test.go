package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"task-management/backend/apperrors"
	"task-management/backend/models"
	"task-management/backend/repositories"
	"task-management/backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newUserServiceForTest(t *testing.T) (*UserService, *repositories.InMemoryUserRepo, *repositories.InMemoryTaskRepo) {
	t.Helper()
	userRepo := repositories.NewInMemoryUserRepo()
	taskRepo := repositories.NewInMemoryTaskRepo()
	return NewUserService(userRepo, taskRepo), userRepo, taskRepo
}

func validUserInput() CreateUserInput {
	return CreateUserInput{
		Name:       "Ana Petrova",
		Email:      "ana@example.com",
		UserID:     "ana",
		Password:   "S3cret!pass",
		Role:       models.RoleUser,
		Department: "Engineering",
	}
}

func TestCreateUser(t *testing.T) {
	svc, _, _ := newUserServiceForTest(t)

	user, err := svc.CreateUser(context.Background(), validUserInput())
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.ID.IsZero() {
		t.Error("Created user has zero ID")
	}
	if user.Password == "S3cret!pass" {
		t.Error("Password stored in plain text")
	}
	if !utils.CheckPassword(user.Password, "S3cret!pass") {
		t.Error("Stored hash does not verify against the original password")
	}
}

func TestCreateUserRequiredFields(t *testing.T) {
	svc, _, _ := newUserServiceForTest(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CreateUserInput)
	}{
		{"name", func(in *CreateUserInput) { in.Name = "" }},
		{"email", func(in *CreateUserInput) { in.Email = "  " }},
		{"userid", func(in *CreateUserInput) { in.UserID = "" }},
		{"role", func(in *CreateUserInput) { in.Role = "" }},
		{"department", func(in *CreateUserInput) { in.Department = "" }},
	}
	for _, tc := range cases {
		input := validUserInput()
		tc.mutate(&input)
		if _, err := svc.CreateUser(ctx, input); !errors.Is(err, apperrors.ErrValidation) {
			t.Errorf("Missing %s: got %v, want validation error", tc.name, err)
		}
	}
}

func TestCreateUserDuplicateDoesNotMutateStore(t *testing.T) {
	svc, userRepo, _ := newUserServiceForTest(t)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, validUserInput()); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	dupEmail := validUserInput()
	dupEmail.UserID = "ana2"
	if _, err := svc.CreateUser(ctx, dupEmail); !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("Duplicate email: got %v, want conflict error", err)
	}

	dupHandle := validUserInput()
	dupHandle.Email = "other@example.com"
	if _, err := svc.CreateUser(ctx, dupHandle); !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("Duplicate userid: got %v, want conflict error", err)
	}

	users, err := userRepo.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll failed: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("Store holds %d users after rejected duplicates, want 1", len(users))
	}
}

func TestCreateUserGeneratesPasswordWhenBlank(t *testing.T) {
	svc, _, _ := newUserServiceForTest(t)

	input := validUserInput()
	input.Password = ""
	user, err := svc.CreateUser(context.Background(), input)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.Password == "" {
		t.Error("No password hash stored for generated password")
	}
}

func TestUpdateUser(t *testing.T) {
	svc, _, _ := newUserServiceForTest(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, validUserInput())
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	other := validUserInput()
	other.Email = "bob@example.com"
	other.UserID = "bob"
	if _, err := svc.CreateUser(ctx, other); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	dept := "Support"
	updated, err := svc.UpdateUser(ctx, user.ID, UserPatch{Department: &dept})
	if err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	if updated.Department != "Support" {
		t.Errorf("Department = %q, want Support", updated.Department)
	}

	taken := "bob@example.com"
	if _, err := svc.UpdateUser(ctx, user.ID, UserPatch{Email: &taken}); !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("Update to taken email: got %v, want conflict error", err)
	}

	// Re-saving one's own email is not a conflict.
	own := "ana@example.com"
	if _, err := svc.UpdateUser(ctx, user.ID, UserPatch{Email: &own}); err != nil {
		t.Errorf("Re-saving own email failed: %v", err)
	}

	if _, err := svc.UpdateUser(ctx, primitive.NewObjectID(), UserPatch{Department: &dept}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Update unknown user: got %v, want not-found error", err)
	}
}

func TestDeleteUserBlockedByUnfinishedTasks(t *testing.T) {
	svc, _, taskRepo := newUserServiceForTest(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, validUserInput())
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	pending := models.Task{
		Title:     "Open work",
		Status:    models.StatusPending,
		Priority:  models.PriorityMedium,
		Assignee:  &user.ID,
		DueDate:   time.Now().Add(48 * time.Hour),
		CreatedAt: time.Now(),
	}
	if err := taskRepo.Insert(ctx, &pending); err != nil {
		t.Fatalf("Failed to seed task: %v", err)
	}

	if err := svc.DeleteUser(ctx, user.ID); !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("Delete with open task: got %v, want conflict error", err)
	}

	// Finishing the task unblocks deletion, and the completed task is
	// unassigned rather than left dangling.
	pending.Status = models.StatusCompleted
	if err := taskRepo.Update(ctx, &pending); err != nil {
		t.Fatalf("Failed to complete task: %v", err)
	}
	if err := svc.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}

	stored, err := taskRepo.FindByID(ctx, pending.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if stored.Assignee != nil {
		t.Errorf("Deleted user still referenced by task %v", stored.ID)
	}

	if err := svc.DeleteUser(ctx, user.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Second delete: got %v, want not-found error", err)
	}
}

func TestTaskCountDerived(t *testing.T) {
	svc, _, taskRepo := newUserServiceForTest(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, validUserInput())
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		task := models.Task{
			Title:     "Work",
			Status:    models.StatusPending,
			Priority:  models.PriorityMedium,
			Assignee:  &user.ID,
			DueDate:   time.Now().Add(48 * time.Hour),
			CreatedAt: time.Now(),
		}
		if err := taskRepo.Insert(ctx, &task); err != nil {
			t.Fatalf("Failed to seed task: %v", err)
		}
	}

	fetched, err := svc.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if fetched.TaskCount != 3 {
		t.Errorf("TaskCount = %d, want 3", fetched.TaskCount)
	}

	users, err := svc.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 1 || users[0].TaskCount != 3 {
		t.Errorf("ListUsers task count wrong: %+v", users)
	}
}
