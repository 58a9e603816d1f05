package server

import (
	"context"
	"time"

	"github.com/NextMind-AI/chatviewer-go/dashboard"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// NotificationFeed exposes the recent operator notifications.
type NotificationFeed interface {
	Recent() []dashboard.Notification
}

type Config struct {
	CORSOrigins []string
	// DisableRequestLog turns off the per-request access log.
	DisableRequestLog bool
}

type Server struct {
	app           *fiber.App
	dashboard     *dashboard.Dashboard
	notifications NotificationFeed
	config        Config
	startedAt     time.Time
}

func New(d *dashboard.Dashboard, notifications NotificationFeed, config Config) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "chatviewer",
		ErrorHandler: errorHandler,
	})

	if len(config.CORSOrigins) == 0 {
		config.CORSOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}

	server := &Server{
		app:           app,
		dashboard:     d,
		notifications: notifications,
		config:        config,
		startedAt:     time.Now(),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// Start listens on port until Shutdown is called.
func (s *Server) Start(port string) error {
	log.Info().Str("port", port).Msg("Starting chatviewer server")

	return s.app.Listen(":"+port, fiber.ListenConfig{
		DisableStartupMessage: true,
	})
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down chatviewer server")
	return s.app.ShutdownWithContext(ctx)
}
