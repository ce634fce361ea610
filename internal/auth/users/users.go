// Package users resolves login identities to user accounts. The email
// address is the account key: identities from different providers that
// share an email land on the same user.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brizzai/chatbot/internal/auth/constants"
	"github.com/brizzai/chatbot/internal/auth/models"
	"github.com/brizzai/chatbot/internal/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrMissingEmail is returned for identities without an email address
var ErrMissingEmail = errors.New("identity has no email address")

// Repository stores user accounts
type Repository interface {
	FindByUserID(ctx context.Context, userID string) (*models.User, error)
	// FindOrCreate returns the user owning candidate.Email, inserting
	// candidate when there is none. The existing user gets loginAt as its
	// last login and the identity linked. created reports an insert.
	FindOrCreate(ctx context.Context, candidate *models.User, identity models.LinkedIdentity, loginAt time.Time) (user *models.User, created bool, err error)
}

// Service resolves identities to users
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a user service
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Login finds or creates the user for the identity and records the login
func (s *Service) Login(ctx context.Context, id models.Identity) (*models.User, bool, error) {
	email := strings.ToLower(strings.TrimSpace(id.Email))
	if email == "" {
		return nil, false, ErrMissingEmail
	}

	now := s.now().UTC()
	name := strings.TrimSpace(id.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	candidate := &models.User{
		UserID:     newUserID(id.Provider, id.ProviderID, now),
		Email:      email,
		Name:       name,
		Provider:   id.Provider,
		ProviderID: id.ProviderID,
		Avatar:     id.Avatar,
		IsVerified: true,
		LastLogin:  now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var link models.LinkedIdentity
	if id.ProviderID != "" {
		link = models.LinkedIdentity{Provider: id.Provider, ProviderID: id.ProviderID}
		candidate.Identities = []models.LinkedIdentity{link}
	}

	user, created, err := s.repo.FindOrCreate(ctx, candidate, link, now)
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve user: %w", err)
	}

	logger.Info("User logged in",
		zap.String("user_id", user.UserID),
		zap.String("provider", id.Provider),
		zap.Bool("created", created),
	)
	return user, created, nil
}

// Get returns the user by id
func (s *Service) Get(ctx context.Context, userID string) (*models.User, error) {
	return s.repo.FindByUserID(ctx, userID)
}

func newUserID(provider, providerID string, now time.Time) string {
	if provider == constants.ProviderEmail || providerID == "" {
		suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
		return fmt.Sprintf("%s_%d_%s", constants.ProviderEmail, now.UnixMilli(), suffix)
	}
	return provider + "_" + providerID
}
