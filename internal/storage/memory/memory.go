// Package memory provides process-local user and OTP repositories used
// when no database is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/brizzai/chatbot/internal/auth/models"
)

// UserRepository keeps users in a map keyed by email
type UserRepository struct {
	mu      sync.RWMutex
	byEmail map[string]*models.User
	byID    map[string]*models.User
}

// NewUserRepository creates an empty repository
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byEmail: make(map[string]*models.User),
		byID:    make(map[string]*models.User),
	}
}

// FindByUserID returns a copy of the user or models.ErrUserNotFound
func (r *UserRepository) FindByUserID(_ context.Context, userID string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[userID]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return cloneUser(u), nil
}

// FindOrCreate returns the user for candidate.Email, inserting candidate if absent
func (r *UserRepository) FindOrCreate(_ context.Context, candidate *models.User, identity models.LinkedIdentity, loginAt time.Time) (*models.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.byEmail[candidate.Email]; ok {
		u.LastLogin = loginAt
		u.UpdatedAt = loginAt
		u.IsVerified = true
		if identity.ProviderID != "" && !u.HasIdentity(identity.Provider, identity.ProviderID) {
			u.Identities = append(u.Identities, identity)
		}
		return cloneUser(u), false, nil
	}

	u := cloneUser(candidate)
	r.byEmail[u.Email] = u
	r.byID[u.UserID] = u
	return cloneUser(u), true, nil
}

// Len returns the number of users
func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Identities = append([]models.LinkedIdentity(nil), u.Identities...)
	return &c
}

// OTPRepository keeps issued codes in a map keyed by id
type OTPRepository struct {
	mu      sync.Mutex
	records map[string]models.OTP
}

// NewOTPRepository creates an empty repository
func NewOTPRepository() *OTPRepository {
	return &OTPRepository{records: make(map[string]models.OTP)}
}

// Replace removes every code for the email and stores rec
func (r *OTPRepository) Replace(_ context.Context, rec *models.OTP) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, existing := range r.records {
		if existing.Email == rec.Email {
			delete(r.records, id)
		}
	}
	r.records[rec.ID] = *rec
	return nil
}

// FindByEmail returns the codes issued to the email
func (r *OTPRepository) FindByEmail(_ context.Context, email string) ([]models.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.OTP
	for _, rec := range r.records {
		if rec.Email == email {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Delete removes the code and reports whether it was present
func (r *OTPRepository) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; !ok {
		return false, nil
	}
	delete(r.records, id)
	return true, nil
}

// PurgeExpired drops codes created before cutoff and returns how many
func (r *OTPRepository) PurgeExpired(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, rec := range r.records {
		if rec.CreatedAt.Before(cutoff) {
			delete(r.records, id)
			n++
		}
	}
	return n
}
