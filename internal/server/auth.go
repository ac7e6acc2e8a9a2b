package server

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"schoolcal/internal/access"
	apperr "schoolcal/internal/errors"
	"schoolcal/internal/session"
)

const (
	stateCookieName = "schoolcal_oauth_state"
	stateTTL        = 10 * time.Minute
	msgLoginFailed  = "Login Failed"
)

// handleIndex answers the login page context, or forwards signed-in users.
func (s *Server) handleIndex(c *fiber.Ctx) error {
	if _, ok := s.sessionIdentity(c); ok {
		return c.Redirect("/calendar")
	}
	return c.JSON(fiber.Map{
		"error":        c.Query("error"),
		"loginUrl":     "/auth/google",
		"schoolNameKo": s.opts.SchoolNameKo,
		"schoolNameEn": s.opts.SchoolNameEn,
	})
}

func (s *Server) handleCalendar(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"user":         identityFrom(c),
		"schoolNameKo": s.opts.SchoolNameKo,
		"schoolNameEn": s.opts.SchoolNameEn,
	})
}

func (s *Server) handleMe(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"user":         identityFrom(c),
		"schoolNameKo": s.opts.SchoolNameKo,
		"schoolNameEn": s.opts.SchoolNameEn,
	})
}

// handleLogin starts the consent flow with a one-time state bound to a cookie.
func (s *Server) handleLogin(c *fiber.Ctx) error {
	if s.login == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "Google login is not configured")
	}
	state := uuid.NewString()
	s.setCookie(c, stateCookieName, state, time.Now().Add(stateTTL))
	return c.Redirect(s.login.AuthCodeURL(state))
}

// handleCallback finishes sign-in. Every failure sends the user back to the
// login page with the reason in the error query parameter.
func (s *Server) handleCallback(c *fiber.Ctx) error {
	if s.login == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "Google login is not configured")
	}
	expected := c.Cookies(stateCookieName)
	s.clearCookie(c, stateCookieName)

	if e := c.Query("error"); e != "" {
		return s.loginError(c, apperr.NewLoginFailed(msgLoginFailed, fmt.Errorf("provider returned %q", e)))
	}
	if expected == "" || c.Query("state") != expected {
		return s.loginError(c, apperr.NewLoginFailed(msgLoginFailed, errors.New("state mismatch")))
	}

	who, err := s.login.Identify(c.UserContext(), c.Query("code"))
	if err != nil {
		return s.loginError(c, apperr.NewLoginFailed(msgLoginFailed, err))
	}
	if !s.policy.Admit(who.Email) {
		return s.loginError(c, apperr.NewLoginRejected(access.RejectedMessage), "email", who.Email)
	}

	token, err := s.sessions.Issue(who)
	if err != nil {
		return s.loginError(c, apperr.NewLoginFailed(msgLoginFailed, err), "email", who.Email)
	}
	s.setCookie(c, session.CookieName, token, time.Now().Add(s.sessions.TTL()))
	s.logger.Info("User signed in", "email", who.Email, "admin", s.policy.IsAdmin(who.Email))
	return c.Redirect("/calendar")
}

func (s *Server) handleLogout(c *fiber.Ctx) error {
	s.clearCookie(c, session.CookieName)
	return c.Redirect("/")
}

// loginError logs a failed sign-in and sends the user back to the login page
// with the error's message.
func (s *Server) loginError(c *fiber.Ctx, err *apperr.CalendarError, attrs ...any) error {
	s.logger.Warn("Google sign-in failed", append([]any{"code", err.Code, "error", err}, attrs...)...)
	return c.Redirect("/?error=" + url.QueryEscape(err.Message))
}

func (s *Server) setCookie(c *fiber.Ctx, name, value string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *Server) clearCookie(c *fiber.Ctx, name string) {
	s.setCookie(c, name, "", time.Now().Add(-time.Hour))
}
