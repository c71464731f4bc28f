package services

import (
	"context"
	"strings"

	"task-management/backend/apperrors"
	"task-management/backend/logging"
	"task-management/backend/models"
	"task-management/backend/repositories"
	"task-management/backend/utils"
)

// AuthService authenticates admins and team members and issues auth tokens.
// Logout is token disposal on the client; no server-side state is kept.
type AuthService struct {
	users repositories.UserRepository
}

func NewAuthService(users repositories.UserRepository) *AuthService {
	return &AuthService{users: users}
}

// LoginAdmin authenticates by email and requires the admin role.
func (s *AuthService) LoginAdmin(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, "", apperrors.Unauthorizedf("invalid credentials")
	}
	if user.Role != models.RoleAdmin {
		return nil, "", apperrors.Unauthorizedf("invalid credentials")
	}
	return s.finishLogin(user, password)
}

// LoginUser authenticates a team member by email or login handle; the
// identifier is an email exactly when it contains "@".
func (s *AuthService) LoginUser(ctx context.Context, identifier, password string) (*models.User, string, error) {
	identifier = strings.TrimSpace(identifier)

	var user *models.User
	var err error
	if strings.Contains(identifier, "@") {
		user, err = s.users.FindByEmail(ctx, identifier)
	} else {
		user, err = s.users.FindByHandle(ctx, identifier)
	}
	if err != nil {
		return nil, "", apperrors.Unauthorizedf("invalid credentials")
	}
	return s.finishLogin(user, password)
}

func (s *AuthService) finishLogin(user *models.User, password string) (*models.User, string, error) {
	if !utils.CheckPassword(user.Password, password) {
		logging.Logger.Warnf("Event ID: LOGIN_FAILED, Description: Failed login attempt for %s", user.Email)
		return nil, "", apperrors.Unauthorizedf("invalid credentials")
	}

	token, err := utils.GenerateToken(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return nil, "", err
	}

	logging.Logger.Infof("Event ID: LOGIN_SUCCESS, Description: User %s logged in", user.Email)
	return user, token, nil
}
