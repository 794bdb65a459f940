package web

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketapp/internal/observability"
	"github.com/spec-kit/ticketapp/internal/session"
	apperrors "github.com/spec-kit/ticketapp/pkg/util"
)

const sessionKey = "web_session"

// SessionMiddleware attaches a session to every request, minting one (and
// its signed cookie) for first-time visitors.
type SessionMiddleware struct {
	sessions   *session.Manager
	cookieName string
	ttl        time.Duration
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(sessions *session.Manager, cookieName string, ttl time.Duration) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions, cookieName: cookieName, ttl: ttl}
}

// Handle resolves the session cookie, starting a fresh session when the
// cookie is absent, invalid or expired.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	var sess *session.Session
	if token := c.Cookies(m.cookieName); token != "" {
		if found, err := m.sessions.Lookup(c.Context(), token); err == nil {
			sess = found
		}
	}
	if sess == nil {
		fresh, err := m.sessions.New(c.Context())
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		if err := m.IssueCookie(c, fresh); err != nil {
			return apperrors.NewInternalError(err)
		}
		sess = fresh
	}

	c.Locals(sessionKey, sess)
	return c.Next()
}

// IssueCookie signs and sets the session cookie for sess.
func (m *SessionMiddleware) IssueCookie(c *fiber.Ctx, sess *session.Session) error {
	token, err := m.sessions.Token(sess)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(m.ttl),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

// RequirePage gates page routes: unauthenticated visitors are redirected to
// the login form. Gated POSTs redirect too rather than falling through.
func (m *SessionMiddleware) RequirePage(c *fiber.Ctx) error {
	sess, _ := SessionFromCtx(c)
	if !sess.Authenticated() {
		return c.Redirect("/auth/login", fiber.StatusFound)
	}
	return c.Next()
}

// RequireAJAX gates the JSON endpoints with a 401 body instead of a redirect.
func (m *SessionMiddleware) RequireAJAX(c *fiber.Ctx) error {
	sess, _ := SessionFromCtx(c)
	if !sess.Authenticated() {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Unauthorized",
		})
	}
	return c.Next()
}

// SessionFromCtx retrieves the request's session.
func SessionFromCtx(c *fiber.Ctx) (*session.Session, bool) {
	val := c.Locals(sessionKey)
	if val == nil {
		return nil, false
	}
	sess, ok := val.(*session.Session)
	return sess, ok
}

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, sessions *SessionMiddleware) {
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(sessions.Handle)
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				if strings.HasPrefix(c.Path(), "/api/") {
					_ = c.JSON(fiber.Map{"success": false, "error": domainErr.Message})
				} else {
					if renderErr := c.Render("error", fiber.Map{"message": domainErr.Message}); renderErr != nil {
						_ = c.SendString(domainErr.Message)
					}
				}
				err = nil
			}
		}()
		return c.Next()
	}
}
