package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/spec-kit/ticketapp/internal/domain"
	"github.com/spec-kit/ticketapp/internal/repository"
	apperrors "github.com/spec-kit/ticketapp/pkg/util"
)

const maxDescriptionLen = 1000

// TicketService coordinates ticket workflows for the owning user.
type TicketService struct {
	tickets repository.TicketRepository
}

// TicketDependencies bundles repositories for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
}

// TicketCreateInput describes the creation form payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
}

// TicketUpdateInput describes the edit form payload.
type TicketUpdateInput struct {
	Title       string
	Description string
	Status      domain.TicketStatus
	Priority    domain.TicketPriority
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{tickets: deps.TicketRepo}
}

// Create validates and creates a ticket for the user. Status is always
// forced to open; an empty priority falls back to medium.
func (s *TicketService) Create(ctx context.Context, userID int64, input TicketCreateInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewValidationError("Title is required")
	}
	if len(input.Description) > maxDescriptionLen {
		return nil, apperrors.NewValidationError("Description must be less than 1000 characters")
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}

	ticket, err := s.tickets.Add(ctx, userID, input.Title, input.Description, priority, domain.TicketStatusOpen)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return ticket, nil
}

// ListForUser returns the user's tickets, newest-created first.
func (s *TicketService) ListForUser(ctx context.Context, userID int64) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	sort.SliceStable(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
	})
	return tickets, nil
}

// Recent returns the user's n most-recently-updated tickets.
func (s *TicketService) Recent(ctx context.Context, userID int64, n int) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	sort.SliceStable(tickets, func(i, j int) bool {
		return tickets[i].UpdatedAt.After(tickets[j].UpdatedAt)
	})
	if len(tickets) > n {
		tickets = tickets[:n]
	}
	return tickets, nil
}

// GetOwned fetches a ticket, hiding other users' tickets behind the same
// not-found error as a genuine miss.
func (s *TicketService) GetOwned(ctx context.Context, userID, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return nil, apperrors.NewNotFound("Ticket not found")
		}
		return nil, apperrors.NewInternalError(err)
	}
	if ticket.UserID != userID {
		return nil, apperrors.NewNotFound("Ticket not found")
	}
	return ticket, nil
}

// Update validates and merge-updates the mutable fields of an owned ticket.
// Empty status and priority fall back to their defaults before validation.
func (s *TicketService) Update(ctx context.Context, userID, ticketID int64, input TicketUpdateInput) error {
	if _, err := s.GetOwned(ctx, userID, ticketID); err != nil {
		return err
	}

	if strings.TrimSpace(input.Title) == "" {
		return apperrors.NewValidationError("Title is required")
	}
	status := input.Status
	if status == "" {
		status = domain.TicketStatusOpen
	}
	if !status.Valid() {
		return apperrors.NewValidationError("Invalid status")
	}
	if len(input.Description) > maxDescriptionLen {
		return apperrors.NewValidationError("Description must be less than 1000 characters")
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if _, err := s.tickets.Update(ctx, ticketID, repository.TicketUpdate{
		Title:       &title,
		Description: &description,
		Status:      &status,
		Priority:    &priority,
	}); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// Delete removes an owned ticket. Missing and unowned tickets are both
// rejected as forbidden so the endpoint never reveals whether the id exists.
func (s *TicketService) Delete(ctx context.Context, userID, ticketID int64) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return apperrors.NewForbidden("Forbidden")
		}
		return apperrors.NewInternalError(err)
	}
	if ticket.UserID != userID {
		return apperrors.NewForbidden("Forbidden")
	}
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// Stats aggregates the user's tickets by status for the dashboard.
func (s *TicketService) Stats(ctx context.Context, userID int64) (domain.TicketStats, error) {
	stats, err := s.tickets.Stats(ctx, userID)
	if err != nil {
		return domain.TicketStats{}, apperrors.NewInternalError(err)
	}
	return stats, nil
}
