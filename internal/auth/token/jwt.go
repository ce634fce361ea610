// Package token issues and validates the HS256 bearer tokens handed to
// clients after login.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/brizzai/chatbot/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned for malformed, forged or expired tokens
	ErrInvalidToken = errors.New("invalid token")
	// ErrRevoked is returned for tokens invalidated by logout
	ErrRevoked = errors.New("token revoked")
)

// Claims carries the user id and a unique token id used for revocation
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
}

// Manager signs and parses bearer tokens
type Manager struct {
	secret  []byte
	ttl     time.Duration
	revoked *RevocationList
	now     func() time.Time
}

// NewManager creates a token manager from the auth settings
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		secret:  []byte(cfg.Auth.JWTSecret),
		ttl:     cfg.Auth.TokenTTL,
		revoked: NewRevocationList(),
		now:     time.Now,
	}
}

// Issue creates a signed token for the user
func (m *Manager) Issue(userID string) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Parse validates the token and returns its claims
func (m *Manager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	if m.revoked.Contains(claims.ID, m.now()) {
		return nil, ErrRevoked
	}
	return claims, nil
}

// Revoke invalidates the token until it would have expired anyway
func (m *Manager) Revoke(claims *Claims) {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return
	}
	m.revoked.Add(claims.ID, claims.ExpiresAt.Time, m.now())
}
