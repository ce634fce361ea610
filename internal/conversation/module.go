package conversation

import (
	"context"

	"github.com/brizzai/chatbot/internal/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func registerHooks(lc fx.Lifecycle, s *Store) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Dropping conversation history", zap.Int("users", s.Users()))
			s.Reset()
			return nil
		},
	})
}

// Module provides the conversation store
var Module = fx.Module("conversation",
	fx.Provide(NewStoreFromConfig),
	fx.Invoke(registerHooks),
)
