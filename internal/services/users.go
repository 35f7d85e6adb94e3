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

type RegistrationRequest struct {
	Username string
	Email    string
	Password string
	Role     models.Role
}

type UserService interface {
	Register(ctx context.Context, req RegistrationRequest) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	Delete(ctx context.Context, id uint) error
	ResolveIdentity(ctx context.Context, email string) (*auth.Principal, error)
}

type UserServiceImpl struct {
	users  *repositories.UserRepository
	hasher *auth.PasswordHasher
}

func NewUserService(users *repositories.UserRepository, hasher *auth.PasswordHasher) *UserServiceImpl {
	return &UserServiceImpl{users: users, hasher: hasher}
}

func (s *UserServiceImpl) Register(ctx context.Context, req RegistrationRequest) (*models.User, error) {
	if !req.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q", req.Role)
	}
	email := models.NormalizeEmail(req.Email)

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, emailTaken(email)
	}

	hash, err := s.hasher.Hash(req.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, &ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("The password must be at most %d bytes long", auth.MaxPasswordBytes),
		}
	}
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:     req.Username,
		Email:        email,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if p := auth.PrincipalFrom(ctx); p != nil {
		user.Stamp(p.Email)
	}
	err = s.users.Create(ctx, user)
	if errors.Is(err, repositories.ErrDuplicate) {
		return nil, emailTaken(email)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	logging.FromContext(ctx).Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *UserServiceImpl) List(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

func (s *UserServiceImpl) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFound("User", id)
	}
	return user, err
}

// Delete refuses to remove a user that still owns projects or has tasks
// assigned, so no project or task is left pointing at a missing user.
func (s *UserServiceImpl) Delete(ctx context.Context, id uint) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	projects, tasks, err := s.users.CountOwned(ctx, id)
	if err != nil {
		return fmt.Errorf("count references: %w", err)
	}
	if projects > 0 || tasks > 0 {
		return &ConflictError{Message: fmt.Sprintf("User with ID %d still owns %d project(s) and %d task(s)", id, projects, tasks)}
	}

	deleted, err := s.users.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if !deleted {
		return notFound("User", id)
	}
	logging.FromContext(ctx).Info("user deleted", "user_id", id)
	return nil
}

// ResolveIdentity loads the current record for a token subject.
func (s *UserServiceImpl) ResolveIdentity(ctx context.Context, email string) (*auth.Principal, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFound("User", email)
	}
	if err != nil {
		return nil, err
	}
	return auth.PrincipalFromUser(user), nil
}

// EnsureAdmin creates the bootstrap administrator when no account uses the
// given email. It does nothing when email or password is empty.
func (s *UserServiceImpl) EnsureAdmin(ctx context.Context, username, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	exists, err := s.users.ExistsByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("check admin: %w", err)
	}
	if exists {
		return nil
	}
	if username == "" {
		username = "admin"
	}
	_, err = s.Register(ctx, RegistrationRequest{Username: username, Email: email, Password: password, Role: models.RoleAdmin})
	return err
}

func emailTaken(email string) error {
	return &ConflictError{Message: "Email " + email + " is already registered"}
}
