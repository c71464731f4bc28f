package services

import (
	"context"
	"errors"
	"strings"

	"task-management/backend/apperrors"
	"task-management/backend/logging"
	"task-management/backend/models"
	"task-management/backend/repositories"
	"task-management/backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserService manages team member records and enforces email/handle
// uniqueness.
type UserService struct {
	users repositories.UserRepository
	tasks repositories.TaskRepository
}

func NewUserService(users repositories.UserRepository, tasks repositories.TaskRepository) *UserService {
	return &UserService{users: users, tasks: tasks}
}

type CreateUserInput struct {
	Name       string
	Email      string
	UserID     string
	Password   string
	Role       string
	Department string
	Phone      string
}

// CreateUser stores a new team member. Duplicate email or login handle is a
// conflict and leaves the store untouched. A blank password gets a generated
// one; either way only the bcrypt hash is stored.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.UserID = strings.TrimSpace(input.UserID)
	input.Role = strings.TrimSpace(input.Role)
	input.Department = strings.TrimSpace(input.Department)

	if input.Name == "" {
		return nil, apperrors.Validationf("name is required")
	}
	if input.Email == "" {
		return nil, apperrors.Validationf("email is required")
	}
	if input.UserID == "" {
		return nil, apperrors.Validationf("userid is required")
	}
	if input.Role == "" {
		return nil, apperrors.Validationf("role is required")
	}
	if input.Department == "" {
		return nil, apperrors.Validationf("department is required")
	}

	if err := s.checkUnique(ctx, input.Email, input.UserID, primitive.NilObjectID); err != nil {
		return nil, err
	}

	password := input.Password
	if password == "" {
		password = utils.GenerateRandomPassword()
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:       input.Name,
		Email:      input.Email,
		UserID:     input.UserID,
		Password:   hashed,
		Role:       input.Role,
		Department: input.Department,
		Phone:      input.Phone,
	}

	if err := s.users.Insert(ctx, user); err != nil {
		return nil, err
	}
	logging.Logger.Infof("Event ID: USER_CREATED, Description: User %s (%s) created", user.UserID, user.ID.Hex())
	return user, nil
}

// UserPatch carries a partial user update; nil fields are left untouched.
type UserPatch struct {
	Name       *string
	Email      *string
	UserID     *string
	Role       *string
	Department *string
	Phone      *string
	Image      *string
	Password   *string
}

func (s *UserService) UpdateUser(ctx context.Context, id primitive.ObjectID, patch UserPatch) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	email := user.Email
	if patch.Email != nil {
		email = strings.TrimSpace(*patch.Email)
		if email == "" {
			return nil, apperrors.Validationf("email cannot be blank")
		}
	}
	handle := user.UserID
	if patch.UserID != nil {
		handle = strings.TrimSpace(*patch.UserID)
		if handle == "" {
			return nil, apperrors.Validationf("userid cannot be blank")
		}
	}
	if email != user.Email || handle != user.UserID {
		if err := s.checkUnique(ctx, email, handle, user.ID); err != nil {
			return nil, err
		}
	}

	user.Email = email
	user.UserID = handle
	if patch.Name != nil {
		user.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Role != nil {
		user.Role = strings.TrimSpace(*patch.Role)
	}
	if patch.Department != nil {
		user.Department = strings.TrimSpace(*patch.Department)
	}
	if patch.Phone != nil {
		user.Phone = *patch.Phone
	}
	if patch.Image != nil {
		user.Image = *patch.Image
	}
	if patch.Password != nil && *patch.Password != "" {
		hashed, err := utils.HashPassword(*patch.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	logging.Logger.Infof("Event ID: USER_UPDATED, Description: User %s updated", user.ID.Hex())
	return user, nil
}

// DeleteUser removes a team member. Deletion is rejected while the user still
// has Pending or In Progress tasks; completed tasks are unassigned so no
// dangling reference survives the delete.
func (s *UserService) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return err
	}

	active, err := s.tasks.CountByAssignee(ctx, id, []models.TaskStatus{models.StatusPending, models.StatusInProgress})
	if err != nil {
		return err
	}
	if active > 0 {
		return apperrors.Conflictf("user has %d unfinished assigned task(s)", active)
	}

	if err := s.tasks.UnassignAll(ctx, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	logging.Logger.Infof("Event ID: USER_DELETED, Description: User %s deleted", id.Hex())
	return nil
}

// ListUsers returns all team members with TaskCount filled in from the task
// collection.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		count, err := s.tasks.CountByAssignee(ctx, users[i].ID, nil)
		if err != nil {
			return nil, err
		}
		users[i].TaskCount = int(count)
	}
	return users, nil
}

func (s *UserService) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.tasks.CountByAssignee(ctx, user.ID, nil)
	if err != nil {
		return nil, err
	}
	user.TaskCount = int(count)
	return user, nil
}

func (s *UserService) checkUnique(ctx context.Context, email, handle string, self primitive.ObjectID) error {
	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil && existing.ID != self {
		return apperrors.Conflictf("email %s is already in use", email)
	}
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	existing, err = s.users.FindByHandle(ctx, handle)
	if err == nil && existing.ID != self {
		return apperrors.Conflictf("userid %s is already in use", handle)
	}
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	return nil
}
