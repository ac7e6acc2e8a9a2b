// Package session issues and verifies the signed cookie that carries the
// logged-in identity between requests.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"schoolcal/internal/models"
)

// CookieName is the name of the session cookie.
const CookieName = "schoolcal_session"

// ErrInvalid is returned for missing, malformed, expired or forged tokens.
var ErrInvalid = errors.New("invalid session")

type claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Photo string `json:"photo,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs session tokens with HS256.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager creates a Manager. ttl bounds how long a login stays valid.
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns the session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue returns a signed token for id. The admin flag is not included; it is
// recomputed on every request.
func (m *Manager) Issue(id models.Identity) (string, error) {
	now := m.now()
	c := claims{
		Email: id.Email,
		Name:  id.DisplayName,
		Photo: id.Photo,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return token, nil
}

// Parse verifies raw and returns the identity it carries.
func (m *Manager) Parse(raw string) (models.Identity, error) {
	if raw == "" {
		return models.Identity{}, ErrInvalid
	}
	var c claims
	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	_, err := parser.ParseWithClaims(raw, &c, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Email == "" {
		return models.Identity{}, fmt.Errorf("%w: missing email", ErrInvalid)
	}
	return models.Identity{
		ID:          c.Subject,
		Email:       c.Email,
		DisplayName: c.Name,
		Photo:       c.Photo,
	}, nil
}
