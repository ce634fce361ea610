// Package storage selects the user and OTP repositories: MongoDB when it
// is configured and reachable, process memory otherwise.
package storage

import (
	"context"
	"time"

	"github.com/brizzai/chatbot/internal/auth/otp"
	"github.com/brizzai/chatbot/internal/auth/users"
	"github.com/brizzai/chatbot/internal/config"
	"github.com/brizzai/chatbot/internal/logger"
	"github.com/brizzai/chatbot/internal/storage/memory"
	"github.com/brizzai/chatbot/internal/storage/mongo"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Backend names the active storage, reported by the health endpoint
type Backend string

const (
	BackendMongo  Backend = "mongodb"
	BackendMemory Backend = "memory"
)

const purgeInterval = time.Minute

// Repositories is the fx result carrying the selected repositories
type Repositories struct {
	fx.Out

	Users   users.Repository
	OTPs    otp.Repository
	Backend Backend
}

// Module provides the repositories
var Module = fx.Module("storage",
	fx.Provide(NewRepositories),
)

// NewRepositories connects to MongoDB when a URI is configured and falls
// back to memory when there is none or the connection fails.
func NewRepositories(lc fx.Lifecycle, cfg *config.Config) Repositories {
	if cfg.Mongo.URI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.ConnectTimeout)
		defer cancel()

		conn, err := mongo.NewConnection(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Auth.OTPTTL)
		if err == nil {
			logger.Info("Connected to MongoDB", zap.String("database", cfg.Mongo.Database))
			lc.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					return conn.Close(ctx)
				},
			})
			return Repositories{
				Users:   mongo.NewUserRepository(conn),
				OTPs:    mongo.NewOTPRepository(conn),
				Backend: BackendMongo,
			}
		}
		logger.Warn("MongoDB connection failed, auth data will be kept in memory", zap.Error(err))
	}

	otps := memory.NewOTPRepository()
	purger := newPurger(otps, cfg.Auth.OTPTTL, purgeInterval)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			purger.start()
			return nil
		},
		OnStop: func(context.Context) error {
			purger.stop()
			return nil
		},
	})

	return Repositories{
		Users:   memory.NewUserRepository(),
		OTPs:    otps,
		Backend: BackendMemory,
	}
}

type expirer interface {
	PurgeExpired(cutoff time.Time) int
}

// purger drops expired in-memory codes, standing in for the Mongo TTL index
type purger struct {
	repo     expirer
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	done     chan struct{}
	finished chan struct{}
}

func newPurger(repo expirer, ttl, interval time.Duration) *purger {
	return &purger{
		repo:     repo,
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

func (p *purger) start() {
	go func() {
		defer close(p.finished)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.purge()
			case <-p.done:
				return
			}
		}
	}()
}

func (p *purger) purge() int {
	n := p.repo.PurgeExpired(p.now().Add(-p.ttl))
	if n > 0 {
		logger.Debug("Purged expired OTPs", zap.Int("count", n))
	}
	return n
}

func (p *purger) stop() {
	close(p.done)
	<-p.finished
}
