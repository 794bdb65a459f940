package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketapp/internal/domain"
	"github.com/spec-kit/ticketapp/internal/observability"
	"github.com/spec-kit/ticketapp/internal/persistence"
	"github.com/spec-kit/ticketapp/internal/repository"
	"github.com/spec-kit/ticketapp/internal/service"
	"github.com/spec-kit/ticketapp/internal/session"
)

const testCookieName = "ticketapp_session"

type testEnv struct {
	app     *fiber.App
	users   repository.UserRepository
	tickets repository.TicketRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := persistence.NewStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(store)
	ticketRepo := repository.NewTicketRepository(store)
	authService := service.NewAuthService(service.AuthDependencies{UserRepo: userRepo})
	ticketService := service.NewTicketService(service.TicketDependencies{TicketRepo: ticketRepo})

	sessions := session.NewManager(
		session.NewMemoryStore(time.Hour),
		session.NewTokenManager("test-secret", time.Hour),
	)

	engine := html.New("../../templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})

	sessionMiddleware := NewSessionMiddleware(sessions, testCookieName, time.Hour)
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), sessionMiddleware)
	RegisterRoutes(app, RouteConfig{
		Pages:   NewPagesHandler(ticketService, sessions),
		Auth:    NewAuthHandler(authService, sessions, sessionMiddleware),
		Tickets: NewTicketsHandler(ticketService, sessions),
		Session: sessionMiddleware,
	})

	return &testEnv{app: app, users: userRepo, tickets: ticketRepo}
}

func (e *testEnv) do(t *testing.T, method, path, cookie string, form url.Values) *http.Response {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: testCookieName, Value: cookie})
	}
	resp, err := e.app.Test(req, 5000)
	require.NoError(t, err)
	return resp
}

func sessionCookie(t *testing.T, resp *http.Response) string {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == testCookieName {
			return c.Value
		}
	}
	t.Fatal("no session cookie set")
	return ""
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

// signup runs the full signup flow and returns the authenticated cookie.
func (e *testEnv) signup(t *testing.T, name, email string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/auth/signup", "", url.Values{
		"name":  {name},
		"email": {email},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/dashboard", resp.Header.Get("Location"))
	return sessionCookie(t, resp)
}

func TestSignupFlow(t *testing.T) {
	env := newTestEnv(t)

	cookie := env.signup(t, "Ann", "ann@x.com")

	// session user matches the persisted record
	user, err := env.users.FindByEmail(context.Background(), "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Ann", user.Name)

	// success flash shows on exactly the next render
	resp := env.do(t, http.MethodGet, "/dashboard", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "Sign up successful! Welcome to TicketApp.")
	assert.Contains(t, body, "Welcome, Ann")

	resp = env.do(t, http.MethodGet, "/dashboard", cookie, nil)
	assert.NotContains(t, readBody(t, resp), "Sign up successful!")
}

func TestSignupDuplicateEmailLeavesUsersUnchanged(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Ann", "ann@x.com")

	resp := env.do(t, http.MethodPost, "/auth/signup", "", url.Values{
		"name":  {"Impostor"},
		"email": {"ann@x.com"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/signup", resp.Header.Get("Location"))

	cookie := sessionCookie(t, resp)
	followUp := env.do(t, http.MethodGet, "/auth/signup", cookie, nil)
	assert.Contains(t, readBody(t, followUp), "User with this email already exists")

	user, err := env.users.FindByEmail(context.Background(), "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Ann", user.Name)
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Ann", "ann@x.com")

	resp := env.do(t, http.MethodPost, "/auth/login", "", url.Values{"email": {"ann@x.com"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	resp = env.do(t, http.MethodPost, "/auth/login", "", url.Values{"email": {"nobody@x.com"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login", resp.Header.Get("Location"))
	cookie := sessionCookie(t, resp)
	followUp := env.do(t, http.MethodGet, "/auth/login", cookie, nil)
	assert.Contains(t, readBody(t, followUp), "Invalid credentials. Please check your email.")
}

func TestAuthFormsRedirectWhenAlreadyAuthed(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signup(t, "Ann", "ann@x.com")

	for _, path := range []string{"/auth/login", "/auth/signup"} {
		resp := env.do(t, http.MethodGet, path, cookie, nil)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
	}
}

func TestUnauthenticatedGates(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/dashboard", "/tickets", "/tickets/new", "/tickets/1/edit"} {
		resp := env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/auth/login", resp.Header.Get("Location"), path)
	}

	// gated POSTs redirect explicitly rather than falling through
	resp := env.do(t, http.MethodPost, "/tickets/create", "", url.Values{"title": {"Bug"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login", resp.Header.Get("Location"))

	resp = env.do(t, http.MethodPost, "/api/tickets/delete", "", url.Values{"id": {"1"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"success":false,"error":"Unauthorized"}`, readBody(t, resp))
}

func TestTicketCreateAndList(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signup(t, "Ann", "ann@x.com")

	resp := env.do(t, http.MethodPost, "/tickets/create", cookie, url.Values{
		"title":       {"Bug"},
		"description": {""},
		"priority":    {"low"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/tickets", resp.Header.Get("Location"))

	user, err := env.users.FindByEmail(context.Background(), "ann@x.com")
	require.NoError(t, err)
	tickets, err := env.tickets.ListByUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, domain.TicketStatusOpen, tickets[0].Status)
	assert.Equal(t, domain.TicketPriorityLow, tickets[0].Priority)
	assert.Equal(t, user.ID, tickets[0].UserID)

	listPage := env.do(t, http.MethodGet, "/tickets", cookie, nil)
	require.Equal(t, http.StatusOK, listPage.StatusCode)
	body := readBody(t, listPage)
	assert.Contains(t, body, "Bug")
	assert.Contains(t, body, "Ticket created successfully!")
}

func TestTicketCreateValidationRedirectsToForm(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signup(t, "Ann", "ann@x.com")

	resp := env.do(t, http.MethodPost, "/tickets/create", cookie, url.Values{"title": {"   "}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/tickets/new", resp.Header.Get("Location"))

	formPage := env.do(t, http.MethodGet, "/tickets/new", cookie, nil)
	assert.Contains(t, readBody(t, formPage), "Title is required")
}

func TestTicketUpdateRejectsBogusStatus(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signup(t, "Ann", "ann@x.com")
	user, err := env.users.FindByEmail(context.Background(), "ann@x.com")
	require.NoError(t, err)
	ticket, err := env.tickets.Add(context.Background(), user.ID, "Bug", "", domain.TicketPriorityLow, domain.TicketStatusOpen)
	require.NoError(t, err)

	idStr := strconv.FormatInt(ticket.ID, 10)
	resp := env.do(t, http.MethodPost, "/tickets/"+idStr+"/update", cookie, url.Values{
		"title":  {"Bug"},
		"status": {"bogus"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/tickets/"+idStr+"/edit", resp.Header.Get("Location"))

	editPage := env.do(t, http.MethodGet, "/tickets/"+idStr+"/edit", cookie, nil)
	assert.Contains(t, readBody(t, editPage), "Invalid status")

	unchanged, err := env.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, unchanged.Status)
}

func TestTicketUpdateFlow(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signup(t, "Ann", "ann@x.com")
	user, err := env.users.FindByEmail(context.Background(), "ann@x.com")
	require.NoError(t, err)
	ticket, err := env.tickets.Add(context.Background(), user.ID, "Bug", "", domain.TicketPriorityLow, domain.TicketStatusOpen)
	require.NoError(t, err)

	idStr := strconv.FormatInt(ticket.ID, 10)
	resp := env.do(t, http.MethodPost, "/tickets/"+idStr+"/update", cookie, url.Values{
		"title":       {"Bug v2"},
		"description": {"details"},
		"status":      {"in_progress"},
		"priority":    {"high"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/tickets", resp.Header.Get("Location"))

	updated, err := env.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bug v2", updated.Title)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)
	assert.Equal(t, ticket.ID, updated.ID)
	assert.Equal(t, ticket.UserID, updated.UserID)
	assert.True(t, updated.CreatedAt.Equal(ticket.CreatedAt))
}

func TestEditOtherUsersTicketFlashesNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Ann", "ann@x.com")
	ann, err := env.users.FindByEmail(context.Background(), "ann@x.com")
	require.NoError(t, err)
	ticket, err := env.tickets.Add(context.Background(), ann.ID, "Ann's", "", domain.TicketPriorityLow, domain.TicketStatusOpen)
	require.NoError(t, err)

	bobCookie := env.signup(t, "Bob", "bob@x.com")
	idStr := strconv.FormatInt(ticket.ID, 10)
	resp := env.do(t, http.MethodGet, "/tickets/"+idStr+"/edit", bobCookie, nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/tickets", resp.Header.Get("Location"))

	listPage := env.do(t, http.MethodGet, "/tickets", bobCookie, nil)
	body := readBody(t, listPage)
	assert.Contains(t, body, "Ticket not found")
	assert.NotContains(t, body, "Ann&#39;s")
}

func TestAJAXDeleteOwnershipGate(t *testing.T) {
	env := newTestEnv(t)
	annCookie := env.signup(t, "Ann", "ann@x.com")
	ann, err := env.users.FindByEmail(context.Background(), "ann@x.com")
	require.NoError(t, err)
	ticket, err := env.tickets.Add(context.Background(), ann.ID, "Ann's", "", domain.TicketPriorityLow, domain.TicketStatusOpen)
	require.NoError(t, err)

	bobCookie := env.signup(t, "Bob", "bob@x.com")
	idStr := strconv.FormatInt(ticket.ID, 10)

	resp := env.do(t, http.MethodPost, "/api/tickets/delete", bobCookie, url.Values{"id": {idStr}})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.JSONEq(t, `{"success":false,"error":"Forbidden"}`, readBody(t, resp))

	_, err = env.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)

	// owner succeeds
	resp = env.do(t, http.MethodPost, "/api/tickets/delete", annCookie, url.Values{"id": {idStr}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":true}`, readBody(t, resp))

	_, err = env.tickets.GetByID(context.Background(), ticket.ID)
	assert.ErrorIs(t, err, repository.ErrTicketNotFound)
}

func TestAJAXDeleteGarbageID(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signup(t, "Ann", "ann@x.com")

	resp := env.do(t, http.MethodPost, "/api/tickets/delete", cookie, url.Values{"id": {"not-a-number"}})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.JSONEq(t, `{"success":false,"error":"Forbidden"}`, readBody(t, resp))
}

func TestLogoutDestroysSessionAndFlashesOnFreshOne(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signup(t, "Ann", "ann@x.com")

	resp := env.do(t, http.MethodGet, "/auth/logout", cookie, nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	freshCookie := sessionCookie(t, resp)
	assert.NotEqual(t, cookie, freshCookie)

	landing := env.do(t, http.MethodGet, "/", freshCookie, nil)
	assert.Contains(t, readBody(t, landing), "Logged out successfully!")

	// old session is gone
	gated := env.do(t, http.MethodGet, "/dashboard", cookie, nil)
	assert.Equal(t, http.StatusFound, gated.StatusCode)
	assert.Equal(t, "/auth/login", gated.Header.Get("Location"))
}

func TestUnknownRouteRenders404(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/no/such/page", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Page not found")
}

func TestHealthLive(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, readBody(t, resp))
}
