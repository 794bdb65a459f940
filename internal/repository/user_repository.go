package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/ticketapp/internal/domain"
	"github.com/spec-kit/ticketapp/internal/ident"
	"github.com/spec-kit/ticketapp/internal/persistence"
)

// Sentinel errors for user lookups and creation.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("User with this email already exists")
)

// UserRepository encapsulates user persistence.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Add(ctx context.Context, name, email string) (*domain.User, error)
}

type userRepository struct {
	store *persistence.Store
}

// NewUserRepository instantiates repository.
func NewUserRepository(store *persistence.Store) UserRepository {
	return &userRepository{store: store}
}

// FindByEmail returns the first user whose email matches exactly
// (case-sensitive), or ErrUserNotFound.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	users, err := r.load()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Email == email {
			return &users[i], nil
		}
	}
	return nil, ErrUserNotFound
}

// Add appends a new user and rewrites the collection. Duplicate emails are
// rejected with ErrDuplicateEmail.
func (r *userRepository) Add(ctx context.Context, name, email string) (*domain.User, error) {
	var created *domain.User
	err := r.store.Mutate(persistence.CollectionUsers, func() error {
		users, err := r.load()
		if err != nil {
			return err
		}
		email = strings.TrimSpace(email)
		for i := range users {
			if users[i].Email == email {
				return ErrDuplicateEmail
			}
		}
		user := domain.User{
			ID:    ident.Next(),
			Name:  strings.TrimSpace(name),
			Email: email,
			Role:  domain.RoleUser,
		}
		users = append(users, user)
		if err := r.store.Save(persistence.CollectionUsers, users); err != nil {
			return err
		}
		created = &user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *userRepository) load() ([]domain.User, error) {
	var users []domain.User
	if err := r.store.Load(persistence.CollectionUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}
