package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketapp/internal/domain"
	"github.com/spec-kit/ticketapp/internal/persistence"
	"github.com/spec-kit/ticketapp/internal/repository"
	apperrors "github.com/spec-kit/ticketapp/pkg/util"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	store, err := persistence.NewStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return NewAuthService(AuthDependencies{UserRepo: repository.NewUserRepository(store)})
}

func TestSignupCreatesUser(t *testing.T) {
	svc := newAuthService(t)

	user, err := svc.Signup(context.Background(), "Ann", "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Ann", user.Name)
	assert.Equal(t, "ann@x.com", user.Email)
	assert.Equal(t, domain.RoleUser, user.Role)
}

func TestSignupValidation(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	cases := []struct {
		name, userName, email, message string
	}{
		{"empty name", "", "ann@x.com", "Name is required"},
		{"whitespace name", "   ", "ann@x.com", "Name is required"},
		{"empty email", "Ann", "", "Please enter a valid email address"},
		{"malformed email", "Ann", "not-an-email", "Please enter a valid email address"},
		{"email without tld", "Ann", "ann@host", "Please enter a valid email address"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tc.userName, tc.email)
			require.Error(t, err)
			assert.Equal(t, tc.message, apperrors.ToDomainError(err).Message)
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "Ann", "ann@x.com")
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "Another Ann", "ann@x.com")
	require.Error(t, err)
	assert.Equal(t, "User with this email already exists", apperrors.ToDomainError(err).Message)
}

func TestLoginKnownAndUnknownEmail(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	created, err := svc.Signup(ctx, "Ann", "ann@x.com")
	require.NoError(t, err)

	user, err := svc.Login(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = svc.Login(ctx, "nobody@x.com")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials. Please check your email.", apperrors.ToDomainError(err).Message)
}
