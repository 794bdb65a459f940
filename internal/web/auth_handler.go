package web

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketapp/internal/domain"
	"github.com/spec-kit/ticketapp/internal/service"
	"github.com/spec-kit/ticketapp/internal/session"
	apperrors "github.com/spec-kit/ticketapp/pkg/util"
)

// AuthHandler serves the signup, login and logout routes.
type AuthHandler struct {
	auth       *service.AuthService
	sessions   *session.Manager
	middleware *SessionMiddleware
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, sessions *session.Manager, middleware *SessionMiddleware) *AuthHandler {
	return &AuthHandler{auth: authService, sessions: sessions, middleware: middleware}
}

// ShowLogin handles GET /auth/login.
func (h *AuthHandler) ShowLogin(c *fiber.Ctx) error {
	sess, _ := SessionFromCtx(c)
	if sess.Authenticated() {
		return c.Redirect("/dashboard", fiber.StatusFound)
	}
	return renderPage(c, h.sessions, sess, "auth/login", nil)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sess, _ := SessionFromCtx(c)

	var req loginForm
	if err := c.BodyParser(&req); err != nil {
		return flashAndRedirect(c, h.sessions, sess, domain.FlashError, "Please enter a valid email address", "/auth/login")
	}

	user, err := h.auth.Login(c.Context(), req.Email)
	if err != nil {
		domainErr := apperrors.ToDomainError(err)
		if domainErr.HTTPStatus >= 500 {
			return err
		}
		return flashAndRedirect(c, h.sessions, sess, domain.FlashError, domainErr.Message, "/auth/login")
	}

	sess.AddFlash(domain.FlashSuccess, "Login successful! Welcome back.")
	if err := h.sessions.Login(c.Context(), sess, *user); err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.Redirect("/dashboard", fiber.StatusFound)
}

// ShowSignup handles GET /auth/signup.
func (h *AuthHandler) ShowSignup(c *fiber.Ctx) error {
	sess, _ := SessionFromCtx(c)
	if sess.Authenticated() {
		return c.Redirect("/dashboard", fiber.StatusFound)
	}
	return renderPage(c, h.sessions, sess, "auth/signup", nil)
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	sess, _ := SessionFromCtx(c)

	var req signupForm
	if err := c.BodyParser(&req); err != nil {
		return flashAndRedirect(c, h.sessions, sess, domain.FlashError, "Name is required", "/auth/signup")
	}

	user, err := h.auth.Signup(c.Context(), req.Name, req.Email)
	if err != nil {
		domainErr := apperrors.ToDomainError(err)
		if domainErr.HTTPStatus >= 500 {
			return err
		}
		return flashAndRedirect(c, h.sessions, sess, domain.FlashError, domainErr.Message, "/auth/signup")
	}

	sess.AddFlash(domain.FlashSuccess, "Sign up successful! Welcome to TicketApp.")
	if err := h.sessions.Login(c.Context(), sess, *user); err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.Redirect("/dashboard", fiber.StatusFound)
}

// Logout handles GET /auth/logout. The old session is destroyed outright and
// the goodbye flash rides on a fresh one so it survives the redirect.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sess, _ := SessionFromCtx(c)
	if err := h.sessions.Destroy(c.Context(), sess); err != nil {
		return apperrors.NewInternalError(err)
	}

	fresh, err := h.sessions.New(c.Context())
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := h.middleware.IssueCookie(c, fresh); err != nil {
		return apperrors.NewInternalError(err)
	}
	return flashAndRedirect(c, h.sessions, fresh, domain.FlashSuccess, "Logged out successfully!", "/")
}
