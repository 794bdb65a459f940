package web

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketapp/internal/domain"
	"github.com/spec-kit/ticketapp/internal/service"
	"github.com/spec-kit/ticketapp/internal/session"
	apperrors "github.com/spec-kit/ticketapp/pkg/util"
)

// TicketsHandler serves the ticket pages and the AJAX delete endpoint. All
// routes behind it are session-gated by the router.
type TicketsHandler struct {
	tickets  *service.TicketService
	sessions *session.Manager
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, sessions *session.Manager) *TicketsHandler {
	return &TicketsHandler{tickets: ticketService, sessions: sessions}
}

// List handles GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	sess, _ := SessionFromCtx(c)
	tickets, err := h.tickets.ListForUser(c.Context(), sess.User.ID)
	if err != nil {
		return err
	}
	return renderPage(c, h.sessions, sess, "tickets/list", fiber.Map{"tickets": tickets})
}

// New handles GET /tickets/new.
func (h *TicketsHandler) New(c *fiber.Ctx) error {
	sess, _ := SessionFromCtx(c)
	return renderPage(c, h.sessions, sess, "tickets/form", fiber.Map{"isEdit": false})
}

// Create handles POST /tickets/create.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	sess, _ := SessionFromCtx(c)

	var req ticketCreateForm
	if err := c.BodyParser(&req); err != nil {
		return flashAndRedirect(c, h.sessions, sess, domain.FlashError, "Title is required", "/tickets/new")
	}

	_, err := h.tickets.Create(c.Context(), sess.User.ID, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.TicketPriority(req.Priority),
	})
	if err != nil {
		domainErr := apperrors.ToDomainError(err)
		if domainErr.HTTPStatus >= 500 {
			return err
		}
		return flashAndRedirect(c, h.sessions, sess, domain.FlashError, domainErr.Message, "/tickets/new")
	}

	return flashAndRedirect(c, h.sessions, sess, domain.FlashSuccess, "Ticket created successfully!", "/tickets")
}

// Edit handles GET /tickets/:id/edit.
func (h *TicketsHandler) Edit(c *fiber.Ctx) error {
	sess, _ := SessionFromCtx(c)

	ticketID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return flashAndRedirect(c, h.sessions, sess, domain.FlashError, "Ticket not found", "/tickets")
	}

	ticket, err := h.tickets.GetOwned(c.Context(), sess.User.ID, ticketID)
	if err != nil {
		domainErr := apperrors.ToDomainError(err)
		if domainErr.HTTPStatus >= 500 {
			return err
		}
		return flashAndRedirect(c, h.sessions, sess, domain.FlashError, domainErr.Message, "/tickets")
	}

	return renderPage(c, h.sessions, sess, "tickets/form", fiber.Map{"isEdit": true, "ticket": ticket})
}

// Update handles POST /tickets/:id/update. Validation failures return to the
// edit form; a missing or unowned ticket returns to the list.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	sess, _ := SessionFromCtx(c)

	ticketID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return flashAndRedirect(c, h.sessions, sess, domain.FlashError, "Ticket not found", "/tickets")
	}

	var req ticketUpdateForm
	if err := c.BodyParser(&req); err != nil {
		return flashAndRedirect(c, h.sessions, sess, domain.FlashError, "Title is required", editPath(ticketID))
	}

	err = h.tickets.Update(c.Context(), sess.User.ID, ticketID, service.TicketUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.TicketStatus(req.Status),
		Priority:    domain.TicketPriority(req.Priority),
	})
	if err != nil {
		domainErr := apperrors.ToDomainError(err)
		switch domainErr.Code {
		case "NOT_FOUND":
			return flashAndRedirect(c, h.sessions, sess, domain.FlashError, domainErr.Message, "/tickets")
		case "VALIDATION_FAILED":
			return flashAndRedirect(c, h.sessions, sess, domain.FlashError, domainErr.Message, editPath(ticketID))
		default:
			return err
		}
	}

	return flashAndRedirect(c, h.sessions, sess, domain.FlashSuccess, "Ticket updated successfully!", "/tickets")
}

// DeleteAJAX handles POST /api/tickets/delete. Missing, unparseable and
// unowned ids all produce the same forbidden response.
func (h *TicketsHandler) DeleteAJAX(c *fiber.Ctx) error {
	sess, _ := SessionFromCtx(c)

	var req ticketDeleteForm
	if err := c.BodyParser(&req); err != nil {
		return forbiddenJSON(c)
	}
	ticketID, err := strconv.ParseInt(req.ID, 10, 64)
	if err != nil {
		return forbiddenJSON(c)
	}

	if err := h.tickets.Delete(c.Context(), sess.User.ID, ticketID); err != nil {
		domainErr := apperrors.ToDomainError(err)
		if domainErr.HTTPStatus >= 500 {
			return err
		}
		return forbiddenJSON(c)
	}

	return c.JSON(fiber.Map{"success": true})
}

func forbiddenJSON(c *fiber.Ctx) error {
	return c.Status(http.StatusForbidden).JSON(fiber.Map{
		"success": false,
		"error":   "Forbidden",
	})
}

func editPath(ticketID int64) string {
	return "/tickets/" + strconv.FormatInt(ticketID, 10) + "/edit"
}
