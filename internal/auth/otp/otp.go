// Package otp issues and verifies the six-digit email login codes.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/brizzai/chatbot/internal/auth/constants"
	"github.com/brizzai/chatbot/internal/auth/models"
	"github.com/brizzai/chatbot/internal/config"
	"github.com/brizzai/chatbot/internal/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailRequired = errors.New("email is required")
	ErrInvalidEmail  = errors.New("invalid email format")
	ErrCodeRequired  = errors.New("email and code are required")
	ErrInvalidOTP    = errors.New("invalid or expired code")
	ErrOTPExpired    = errors.New("code has expired")
	ErrDelivery      = errors.New("failed to deliver code")
)

const defaultRecipientName = "User"

var emailPattern = regexp.MustCompile(constants.EmailPattern)

// Repository stores issued codes
type Repository interface {
	// Replace removes every code for the record's email and stores the record
	Replace(ctx context.Context, rec *models.OTP) error
	FindByEmail(ctx context.Context, email string) ([]models.OTP, error)
	// Delete removes the record and reports whether this call removed it
	Delete(ctx context.Context, id string) (bool, error)
}

// Sender delivers a code to its recipient
type Sender interface {
	SendOTP(ctx context.Context, to, name, code string) error
}

// Service implements the code lifecycle: issued, then consumed or expired
type Service struct {
	repo     Repository
	sender   Sender
	ttl      time.Duration
	cost     int
	now      func() time.Time
	generate func() (string, error)
}

// NewService creates an OTP service
func NewService(cfg *config.Config, repo Repository, sender Sender) *Service {
	return &Service{
		repo:     repo,
		sender:   sender,
		ttl:      cfg.Auth.OTPTTL,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
		generate: GenerateCode,
	}
}

// NormalizeEmail lowercases and trims an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks presence and shape of an address
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// GenerateCode returns a uniformly random six-digit code
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Issue replaces any outstanding code for the email with a new one and
// mails it. It returns the normalized email.
func (s *Service) Issue(ctx context.Context, email, name string) (string, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return "", err
	}

	code, err := s.generate()
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash code: %w", err)
	}

	rec := &models.OTP{
		ID:        uuid.NewString(),
		Email:     email,
		CodeHash:  string(hash),
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Replace(ctx, rec); err != nil {
		return "", fmt.Errorf("failed to store code: %w", err)
	}

	if strings.TrimSpace(name) == "" {
		name = defaultRecipientName
	}
	if err := s.sender.SendOTP(ctx, email, name, code); err != nil {
		logger.Error("Failed to send OTP email", zap.String("email", email), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	logger.Info("OTP issued", zap.String("email", email))
	return email, nil
}

// Verify consumes the code if it matches a live record for the email.
// A matching record past its TTL is removed and reported as expired.
func (s *Service) Verify(ctx context.Context, email, code string) error {
	email = NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return ErrCodeRequired
	}

	records, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to load codes: %w", err)
	}

	now := s.now()
	for _, rec := range records {
		if bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(code)) != nil {
			continue
		}

		deleted, err := s.repo.Delete(ctx, rec.ID)
		if err != nil {
			return fmt.Errorf("failed to consume code: %w", err)
		}
		if now.Sub(rec.CreatedAt) > s.ttl {
			return ErrOTPExpired
		}
		if !deleted {
			// consumed concurrently by another request
			return ErrInvalidOTP
		}
		return nil
	}
	return ErrInvalidOTP
}
