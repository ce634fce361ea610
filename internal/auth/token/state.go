package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/brizzai/chatbot/internal/auth/constants"
	"github.com/brizzai/chatbot/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidState is returned when an OAuth state fails verification
var ErrInvalidState = errors.New("invalid oauth state")

// StateSigner produces short-lived signed OAuth state values bound to a provider
type StateSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewStateSigner creates a signer keyed by the session secret
func NewStateSigner(cfg *config.Config) *StateSigner {
	return &StateSigner{
		secret: []byte(cfg.Auth.SessionSecret),
		ttl:    constants.StateTTL,
		now:    time.Now,
	}
}

// Issue returns a new state value for the provider
func (s *StateSigner) Issue(provider string) (string, error) {
	now := s.now()
	state := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   provider,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	})

	signed, err := state.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}
	return signed, nil
}

// Verify checks the state signature, expiry and provider binding
func (s *StateSigner) Verify(state, provider string) error {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(state, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired(), jwt.WithSubject(provider))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return nil
}
