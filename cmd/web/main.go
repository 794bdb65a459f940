package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketapp/internal/config"
	"github.com/spec-kit/ticketapp/internal/observability"
	"github.com/spec-kit/ticketapp/internal/persistence"
	"github.com/spec-kit/ticketapp/internal/repository"
	"github.com/spec-kit/ticketapp/internal/service"
	"github.com/spec-kit/ticketapp/internal/session"
	"github.com/spec-kit/ticketapp/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	store, err := persistence.NewStore(cfg.Storage.Dir, logger)
	if err != nil {
		logger.Fatal("failed to open document store", zap.Error(err))
	}

	var sessionStore session.Store
	if strings.EqualFold(cfg.Session.Backend, "redis") {
		redis := persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		sessionStore = session.NewRedisStore(redis.Client, cfg.Session.TTL())
	} else {
		sessionStore = session.NewMemoryStore(cfg.Session.TTL())
	}

	tokens := session.NewTokenManager(cfg.Session.Secret, cfg.Session.TTL())
	sessions := session.NewManager(sessionStore, tokens)

	userRepo := repository.NewUserRepository(store)
	ticketRepo := repository.NewTicketRepository(store)

	authService := service.NewAuthService(service.AuthDependencies{UserRepo: userRepo})
	ticketService := service.NewTicketService(service.TicketDependencies{TicketRepo: ticketRepo})

	engine := html.New("./templates", ".html")
	app := fiber.New(fiber.Config{
		AppName: cfg.App.Name,
		Views:   engine,
	})

	metrics := observability.NewMetrics()
	sessionMiddleware := web.NewSessionMiddleware(sessions, cfg.Session.CookieName, cfg.Session.TTL())
	web.RegisterMiddlewares(app, logger, metrics, sessionMiddleware)

	pagesHandler := web.NewPagesHandler(ticketService, sessions)
	authHandler := web.NewAuthHandler(authService, sessions, sessionMiddleware)
	ticketsHandler := web.NewTicketsHandler(ticketService, sessions)

	web.RegisterRoutes(app, web.RouteConfig{
		Pages:   pagesHandler,
		Auth:    authHandler,
		Tickets: ticketsHandler,
		Session: sessionMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
