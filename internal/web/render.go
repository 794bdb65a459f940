package web

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketapp/internal/domain"
	"github.com/spec-kit/ticketapp/internal/session"
	apperrors "github.com/spec-kit/ticketapp/pkg/util"
)

// renderPage renders an HTML view with the base context every template
// receives: auth state, the user snapshot and the drained flash list. The
// drain is persisted immediately so each flash shows on exactly one render.
func renderPage(c *fiber.Ctx, sessions *session.Manager, sess *session.Session, name string, data fiber.Map) error {
	toasts := sess.PopFlashes()
	if len(toasts) > 0 {
		if err := sessions.Save(c.Context(), sess); err != nil {
			return apperrors.NewInternalError(err)
		}
	}

	ctx := fiber.Map{
		"isAuthenticated": sess.Authenticated(),
		"user":            sess.User,
		"toasts":          toasts,
	}
	for k, v := range data {
		ctx[k] = v
	}
	return c.Render(name, ctx)
}

// flashAndRedirect queues a one-shot notification and redirects, the shared
// tail of every form-handling branch.
func flashAndRedirect(c *fiber.Ctx, sessions *session.Manager, sess *session.Session, kind domain.FlashType, message, target string) error {
	sess.AddFlash(kind, message)
	if err := sessions.Save(c.Context(), sess); err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.Redirect(target, fiber.StatusFound)
}
