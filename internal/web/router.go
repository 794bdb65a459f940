package web

import (
	"github.com/gofiber/fiber/v2"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Pages   *PagesHandler
	Auth    *AuthHandler
	Tickets *TicketsHandler
	Session *SessionMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Pages.Health)
	app.Get("/", cfg.Pages.Landing)

	authGroup := app.Group("/auth")
	authGroup.Get("/login", cfg.Auth.ShowLogin)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/signup", cfg.Auth.ShowSignup)
	authGroup.Post("/signup", cfg.Auth.Signup)
	authGroup.Get("/logout", cfg.Auth.Logout)

	app.Get("/dashboard", cfg.Session.RequirePage, cfg.Pages.Dashboard)

	ticketGroup := app.Group("/tickets", cfg.Session.RequirePage)
	ticketGroup.Get("/", cfg.Tickets.List)
	ticketGroup.Get("/new", cfg.Tickets.New)
	ticketGroup.Post("/create", cfg.Tickets.Create)
	ticketGroup.Get("/:id/edit", cfg.Tickets.Edit)
	ticketGroup.Post("/:id/update", cfg.Tickets.Update)

	apiGroup := app.Group("/api", cfg.Session.RequireAJAX)
	apiGroup.Post("/tickets/delete", cfg.Tickets.DeleteAJAX)

	app.Use(cfg.Pages.NotFound)
}
