//go:build integration

package mongo_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/brizzai/chatbot/internal/auth/models"
	repo "github.com/brizzai/chatbot/internal/storage/mongo"
)

var uri string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "27017")
	if err != nil {
		panic(err)
	}
	uri = fmt.Sprintf("mongodb://%s:%s", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func connect(t *testing.T, database string) *repo.Connection {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := repo.NewConnection(ctx, uri, database, 10*time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Database().Drop(context.Background())
		_ = conn.Close(context.Background())
	})
	return conn
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	users := repo.NewUserRepository(connect(t, "chatbot_users"))
	first := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	candidate := &models.User{
		UserID:     "google_1",
		Email:      "dup@example.com",
		Name:       "Dup",
		Provider:   "google",
		ProviderID: "1",
		IsVerified: true,
		LastLogin:  first,
		CreatedAt:  first,
		UpdatedAt:  first,
	}

	t.Run("creates on first login", func(t *testing.T) {
		u, created, err := users.FindOrCreate(ctx, candidate, models.LinkedIdentity{Provider: "google", ProviderID: "1"}, first)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "google_1", u.UserID)
		assert.Equal(t, []models.LinkedIdentity{{Provider: "google", ProviderID: "1"}}, u.Identities)
	})

	t.Run("links a second provider to the same email", func(t *testing.T) {
		later := first.Add(time.Hour)
		other := *candidate
		other.UserID = "github_9"
		other.Provider = "github"
		other.ProviderID = "9"

		u, created, err := users.FindOrCreate(ctx, &other, models.LinkedIdentity{Provider: "github", ProviderID: "9"}, later)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "google_1", u.UserID)
		assert.Equal(t, "google", u.Provider)
		assert.True(t, u.LastLogin.Equal(later))
		assert.True(t, u.CreatedAt.Equal(first))
		assert.Len(t, u.Identities, 2)
	})

	t.Run("find by id", func(t *testing.T) {
		u, err := users.FindByUserID(ctx, "google_1")
		require.NoError(t, err)
		assert.Equal(t, "dup@example.com", u.Email)

		_, err = users.FindByUserID(ctx, "missing")
		assert.ErrorIs(t, err, models.ErrUserNotFound)
	})

	t.Run("concurrent first logins create one user", func(t *testing.T) {
		var wg sync.WaitGroup
		results := make(chan bool, 8)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				c := &models.User{
					UserID:    fmt.Sprintf("email_%d", i),
					Email:     "race@example.com",
					Name:      "race",
					Provider:  "email",
					CreatedAt: first,
				}
				_, created, err := users.FindOrCreate(ctx, c, models.LinkedIdentity{}, first)
				assert.NoError(t, err)
				results <- created
			}(i)
		}
		wg.Wait()
		close(results)

		createdCount := 0
		for created := range results {
			if created {
				createdCount++
			}
		}
		assert.Equal(t, 1, createdCount)
	})
}

func TestOTPRepository(t *testing.T) {
	ctx := context.Background()
	otps := repo.NewOTPRepository(connect(t, "chatbot_otps"))
	now := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, otps.Replace(ctx, &models.OTP{ID: "a", Email: "x@example.com", CodeHash: "h1", CreatedAt: now}))
	require.NoError(t, otps.Replace(ctx, &models.OTP{ID: "b", Email: "x@example.com", CodeHash: "h2", CreatedAt: now}))

	recs, err := otps.FindByEmail(ctx, "x@example.com")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "b", recs[0].ID)
	assert.Equal(t, "h2", recs[0].CodeHash)

	deleted, err := otps.Delete(ctx, "b")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = otps.Delete(ctx, "b")
	require.NoError(t, err)
	assert.False(t, deleted)
}
