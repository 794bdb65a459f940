package web

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketapp/internal/service"
	"github.com/spec-kit/ticketapp/internal/session"
)

const dashboardRecentCount = 3

// PagesHandler serves the landing page, dashboard, 404 and liveness routes.
type PagesHandler struct {
	tickets  *service.TicketService
	sessions *session.Manager
}

// NewPagesHandler constructs handler.
func NewPagesHandler(ticketService *service.TicketService, sessions *session.Manager) *PagesHandler {
	return &PagesHandler{tickets: ticketService, sessions: sessions}
}

// Landing handles GET /.
func (h *PagesHandler) Landing(c *fiber.Ctx) error {
	sess, _ := SessionFromCtx(c)
	return renderPage(c, h.sessions, sess, "landing", nil)
}

// Dashboard handles GET /dashboard: status counts plus the three
// most-recently-updated tickets.
func (h *PagesHandler) Dashboard(c *fiber.Ctx) error {
	sess, _ := SessionFromCtx(c)

	stats, err := h.tickets.Stats(c.Context(), sess.User.ID)
	if err != nil {
		return err
	}
	recent, err := h.tickets.Recent(c.Context(), sess.User.ID, dashboardRecentCount)
	if err != nil {
		return err
	}

	return renderPage(c, h.sessions, sess, "dashboard", fiber.Map{
		"stats":         stats,
		"recentTickets": recent,
	})
}

// NotFound is the terminal handler for unmatched routes.
func (h *PagesHandler) NotFound(c *fiber.Ctx) error {
	sess, _ := SessionFromCtx(c)
	c.Status(http.StatusNotFound)
	return renderPage(c, h.sessions, sess, "404", nil)
}

// Health handles GET /health/live.
func (h *PagesHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
