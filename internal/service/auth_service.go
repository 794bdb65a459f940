package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/spec-kit/ticketapp/internal/domain"
	"github.com/spec-kit/ticketapp/internal/repository"
	apperrors "github.com/spec-kit/ticketapp/pkg/util"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthService implements email-only signup and login.
type AuthService struct {
	users repository.UserRepository
}

// AuthDependencies bundles repositories for the auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
}

// NewAuthService constructs the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{users: deps.UserRepo}
}

// Signup validates and creates an account. The returned user is the record
// as persisted.
func (s *AuthService) Signup(ctx context.Context, name, email string) (*domain.User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.NewValidationError("Name is required")
	}
	email = strings.TrimSpace(email)
	if !emailPattern.MatchString(email) {
		return nil, apperrors.NewValidationError("Please enter a valid email address")
	}

	user, err := s.users.Add(ctx, name, email)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewConflict("User with this email already exists")
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// Login resolves an email to its account. There are no passwords; a known
// email is the whole credential.
func (s *AuthService) Login(ctx context.Context, email string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if !emailPattern.MatchString(email) {
		return nil, apperrors.NewValidationError("Please enter a valid email address")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NewUnauthorized("Invalid credentials. Please check your email.")
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}
