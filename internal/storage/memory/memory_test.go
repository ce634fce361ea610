package memory

import (
	"context"
	"testing"
	"time"

	"github.com/brizzai/chatbot/internal/auth/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_FindOrCreate(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	candidate := &models.User{
		UserID:     "google_1",
		Email:      "a@b.co",
		Name:       "A",
		Provider:   "google",
		ProviderID: "1",
		Identities: []models.LinkedIdentity{{Provider: "google", ProviderID: "1"}},
		CreatedAt:  created,
		LastLogin:  created,
	}

	u, isNew, err := repo.FindOrCreate(ctx, candidate, models.LinkedIdentity{Provider: "google", ProviderID: "1"}, created)
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, "google_1", u.UserID)

	later := created.Add(time.Hour)
	other := &models.User{UserID: "github_9", Email: "a@b.co", Provider: "github", ProviderID: "9"}
	u, isNew, err = repo.FindOrCreate(ctx, other, models.LinkedIdentity{Provider: "github", ProviderID: "9"}, later)
	require.NoError(t, err)

	assert.False(t, isNew)
	assert.Equal(t, "google_1", u.UserID, "email owns the account")
	assert.Equal(t, later, u.LastLogin)
	assert.True(t, u.IsVerified)
	assert.True(t, u.HasIdentity("github", "9"))
	assert.True(t, u.HasIdentity("google", "1"))
	assert.Equal(t, 1, repo.Len())
}

func TestUserRepository_ReturnsCopies(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	u, _, err := repo.FindOrCreate(ctx, &models.User{UserID: "u1", Email: "a@b.co", Name: "A"}, models.LinkedIdentity{}, time.Now())
	require.NoError(t, err)
	u.Name = "mutated"

	stored, err := repo.FindByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "A", stored.Name)
}

func TestUserRepository_NotFound(t *testing.T) {
	_, err := NewUserRepository().FindByUserID(context.Background(), "ghost")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestOTPRepository(t *testing.T) {
	repo := NewOTPRepository()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Replace(ctx, &models.OTP{ID: "1", Email: "a@b.co", CreatedAt: now}))
	require.NoError(t, repo.Replace(ctx, &models.OTP{ID: "2", Email: "a@b.co", CreatedAt: now}))
	require.NoError(t, repo.Replace(ctx, &models.OTP{ID: "3", Email: "c@d.co", CreatedAt: now.Add(-time.Hour)}))

	records, err := repo.FindByEmail(ctx, "a@b.co")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2", records[0].ID)

	ok, err := repo.Delete(ctx, "2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Delete(ctx, "2")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 1, repo.PurgeExpired(now.Add(-time.Minute)))
}
