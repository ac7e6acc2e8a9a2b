package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	apperr "schoolcal/internal/errors"
	"schoolcal/internal/models"
	"schoolcal/internal/session"
)

const (
	headerRequestID = "X-Request-ID"
	localsRequestID = "reqid"
	localsIdentity  = "identity"

	msgInternal = "서버 오류가 발생했습니다."
)

// requestContext assigns a request id, bounds the request with timeout and logs
// the outcome once the error handler has produced the response.
func requestContext(logger *slog.Logger, timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(headerRequestID, id)
		c.Locals(localsRequestID, id)

		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)

		start := time.Now()
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		level := slog.LevelInfo
		if status >= fiber.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(ctx, level, "Handled request",
			"id", id,
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration", time.Since(start),
		)
		return nil
	}
}

// recovery turns panics into 500 responses.
func recovery() fiber.Handler {
	return recover.New(recover.Config{EnableStackTrace: true})
}

func rateLimiter(max int, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"message": message})
		},
	})
}

// sessionIdentity reads the session cookie and returns the identity with a
// freshly computed admin flag. Accounts dropped from the allowlists lose their
// session immediately.
func (s *Server) sessionIdentity(c *fiber.Ctx) (models.Identity, bool) {
	id, err := s.sessions.Parse(c.Cookies(session.CookieName))
	if err != nil || !s.policy.Admit(id.Email) {
		return models.Identity{}, false
	}
	return s.policy.Materialize(id), true
}

// requireAPISession rejects requests without a valid session with 401.
func (s *Server) requireAPISession(c *fiber.Ctx) error {
	id, ok := s.sessionIdentity(c)
	if !ok {
		return apperr.NewUnauthorized("Unauthorized")
	}
	c.Locals(localsIdentity, id)
	return c.Next()
}

// requirePageSession sends visitors without a session back to the login page.
func (s *Server) requirePageSession(c *fiber.Ctx) error {
	id, ok := s.sessionIdentity(c)
	if !ok {
		return c.Redirect("/")
	}
	c.Locals(localsIdentity, id)
	return c.Next()
}

func identityFrom(c *fiber.Ctx) models.Identity {
	id, _ := c.Locals(localsIdentity).(models.Identity)
	return id
}

// errorHandler writes every error as {message} with the status of its category.
func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := apperr.HTTPStatus(err)
		message := apperr.Message(err)

		var fe *fiber.Error
		switch {
		case errors.As(err, &fe):
			status = fe.Code
			message = fe.Message
		case apperr.GetCategory(err) == "":
			err = apperr.NewUnexpected(err)
			message = msgInternal
		}

		if status >= fiber.StatusInternalServerError {
			logger.Error("Request failed", "path", c.Path(), "status", status, "error", err)
		}
		return c.Status(status).JSON(fiber.Map{"message": message})
	}
}
