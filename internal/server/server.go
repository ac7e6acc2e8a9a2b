// Package server exposes the event API and the Google sign-in flow over HTTP.
package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"schoolcal/internal/access"
	"schoolcal/internal/models"
	"schoolcal/internal/session"
)

// EventService is the event repository as seen by the handlers.
type EventService interface {
	List(ctx context.Context) ([]models.DisplayEvent, error)
	Events(ctx context.Context) ([]models.Event, error)
	Get(ctx context.Context, id string) (models.Event, error)
	Create(ctx context.Context, in models.EventInput, who models.Identity) (string, error)
	CreateBatch(ctx context.Context, inputs []models.EventInput, who models.Identity) (int, error)
	Update(ctx context.Context, id string, in models.EventInput, who models.Identity) error
	Delete(ctx context.Context, id string) error
}

// IdentityProvider runs the external sign-in flow.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Identify(ctx context.Context, code string) (models.Identity, error)
}

// Options tune the HTTP surface.
type Options struct {
	SchoolNameKo   string
	SchoolNameEn   string
	SecureCookies  bool
	RequestTimeout time.Duration
	APIRateLimit   int
	LoginRateLimit int
}

func (o *Options) withDefaults() {
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 10 * time.Second
	}
	if o.APIRateLimit <= 0 {
		o.APIRateLimit = 120
	}
	if o.LoginRateLimit <= 0 {
		o.LoginRateLimit = 10
	}
}

// Server wires handlers to the repository, sessions and access policy.
type Server struct {
	logger   *slog.Logger
	events   EventService
	login    IdentityProvider
	sessions *session.Manager
	policy   *access.Policy
	validate *validator.Validate
	opts     Options
	now      func() time.Time
	app      *fiber.App
}

// New builds the fiber application. login may be nil, in which case sign-in
// answers 503.
func New(logger *slog.Logger, events EventService, login IdentityProvider, sessions *session.Manager, policy *access.Policy, opts Options) *Server {
	opts.withDefaults()
	s := &Server{
		logger:   logger,
		events:   events,
		login:    login,
		sessions: sessions,
		policy:   policy,
		validate: validator.New(),
		opts:     opts,
		now:      time.Now,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "schoolcal",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})
	s.routes()
	return s
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("Starting HTTP server", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) routes() {
	s.app.Use(requestContext(s.logger, s.opts.RequestTimeout))
	s.app.Use(recovery())

	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	s.app.Get("/", s.handleIndex)
	s.app.Get("/calendar", s.requirePageSession, s.handleCalendar)
	s.app.Get("/logout", s.handleLogout)

	auth := s.app.Group("/auth", rateLimiter(s.opts.LoginRateLimit, "로그인 시도가 너무 많습니다. 잠시 후 다시 시도해주세요."))
	auth.Get("/google", s.handleLogin)
	auth.Get("/google/callback", s.handleCallback)

	api := s.app.Group("/api",
		rateLimiter(s.opts.APIRateLimit, "요청이 너무 많습니다. 잠시 후 다시 시도해주세요."),
		s.requireAPISession,
	)
	api.Get("/me", s.handleMe)
	api.Get("/calendar.ics", s.handleExport)
	api.Get("/events", s.handleListEvents)
	api.Post("/events", s.handleCreateEvent)
	api.Post("/events/batch", s.handleCreateBatch)
	api.Post("/events/repeat", s.handleCreateRepeat)
	api.Put("/events/:id", s.handleUpdateEvent)
	api.Delete("/events/:id", s.handleDeleteEvent)
}
