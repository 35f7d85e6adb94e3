package services

import (
	"context"
	"errors"
	"fmt"

	"project-tracker/internal/auth"
	"project-tracker/internal/logging"
	"project-tracker/internal/models"
	"project-tracker/internal/repositories"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
}

type AuthServiceImpl struct {
	users  *repositories.UserRepository
	hasher *auth.PasswordHasher
	tokens *auth.TokenService
}

func NewAuthService(users *repositories.UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenService) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, hasher: hasher, tokens: tokens}
}

// Login returns a signed token whose subject is the user's email. Unknown
// emails and wrong passwords are both reported as ErrInvalidCredentials.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, error) {
	email = models.NormalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		logging.FromContext(ctx).Warn("login rejected", "reason", "unknown email")
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("find user: %w", err)
	}
	if !s.hasher.Verify(user.PasswordHash, password) {
		logging.FromContext(ctx).Warn("login rejected", "reason", "password mismatch", "user_id", user.ID)
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", err
	}
	logging.FromContext(ctx).Info("login succeeded", "user_id", user.ID)
	return token, nil
}
