package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spec-kit/ticketapp/internal/domain"
	"github.com/spec-kit/ticketapp/internal/ident"
	"github.com/spec-kit/ticketapp/internal/persistence"
)

// ErrTicketNotFound signals a lookup miss.
var ErrTicketNotFound = errors.New("ticket not found")

// TicketUpdate carries the mutable fields of a ticket; nil fields are left
// untouched. ID, UserID and CreatedAt are not representable here and so can
// never change through an update.
type TicketUpdate struct {
	Title       *string
	Description *string
	Status      *domain.TicketStatus
	Priority    *domain.TicketPriority
}

// TicketRepository encapsulates ticket persistence. Every call loads the
// collection fresh from the store; mutators rewrite it whole.
type TicketRepository interface {
	Add(ctx context.Context, userID int64, title, description string, priority domain.TicketPriority, status domain.TicketStatus) (*domain.Ticket, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Ticket, error)
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	Update(ctx context.Context, id int64, update TicketUpdate) (bool, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context, userID int64) (domain.TicketStats, error)
}

type ticketRepository struct {
	store *persistence.Store
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(store *persistence.Store) TicketRepository {
	return &ticketRepository{store: store}
}

// Add appends a ticket and rewrites the collection. Callers validate input;
// Add itself always succeeds barring storage failure.
func (r *ticketRepository) Add(ctx context.Context, userID int64, title, description string, priority domain.TicketPriority, status domain.TicketStatus) (*domain.Ticket, error) {
	var created *domain.Ticket
	err := r.store.Mutate(persistence.CollectionTickets, func() error {
		tickets, err := r.load()
		if err != nil {
			return err
		}
		now := time.Now()
		ticket := domain.Ticket{
			ID:          ident.Next(),
			UserID:      userID,
			Title:       strings.TrimSpace(title),
			Description: strings.TrimSpace(description),
			Priority:    priority,
			Status:      status,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		tickets = append(tickets, ticket)
		if err := r.store.Save(persistence.CollectionTickets, tickets); err != nil {
			return err
		}
		created = &ticket
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ListByUser returns the user's tickets in insertion order.
func (r *ticketRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Ticket, error) {
	tickets, err := r.load()
	if err != nil {
		return nil, err
	}
	owned := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.UserID == userID {
			owned = append(owned, t)
		}
	}
	return owned, nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	tickets, err := r.load()
	if err != nil {
		return nil, err
	}
	for i := range tickets {
		if tickets[i].ID == id {
			return &tickets[i], nil
		}
	}
	return nil, ErrTicketNotFound
}

// Update merges non-nil fields into the first matching ticket, refreshes
// UpdatedAt and rewrites the collection. Returns whether a match was found.
func (r *ticketRepository) Update(ctx context.Context, id int64, update TicketUpdate) (bool, error) {
	found := false
	err := r.store.Mutate(persistence.CollectionTickets, func() error {
		tickets, err := r.load()
		if err != nil {
			return err
		}
		for i := range tickets {
			if tickets[i].ID != id {
				continue
			}
			if update.Title != nil {
				tickets[i].Title = *update.Title
			}
			if update.Description != nil {
				tickets[i].Description = *update.Description
			}
			if update.Status != nil {
				tickets[i].Status = *update.Status
			}
			if update.Priority != nil {
				tickets[i].Priority = *update.Priority
			}
			tickets[i].UpdatedAt = time.Now()
			found = true
			break
		}
		if !found {
			return nil
		}
		return r.store.Save(persistence.CollectionTickets, tickets)
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// Delete removes every ticket with the given id and rewrites the remainder.
// A nonexistent id is a no-op.
func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	return r.store.Mutate(persistence.CollectionTickets, func() error {
		tickets, err := r.load()
		if err != nil {
			return err
		}
		remaining := make([]domain.Ticket, 0, len(tickets))
		for _, t := range tickets {
			if t.ID != id {
				remaining = append(remaining, t)
			}
		}
		return r.store.Save(persistence.CollectionTickets, remaining)
	})
}

// Stats counts the user's tickets by status.
func (r *ticketRepository) Stats(ctx context.Context, userID int64) (domain.TicketStats, error) {
	tickets, err := r.ListByUser(ctx, userID)
	if err != nil {
		return domain.TicketStats{}, err
	}
	stats := domain.TicketStats{Total: len(tickets)}
	for _, t := range tickets {
		switch t.Status {
		case domain.TicketStatusOpen:
			stats.Open++
		case domain.TicketStatusInProgress:
			stats.InProgress++
		case domain.TicketStatusClosed:
			stats.Closed++
		}
	}
	return stats, nil
}

func (r *ticketRepository) load() ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	if err := r.store.Load(persistence.CollectionTickets, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}
