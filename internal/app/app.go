// Package app assembles the backend's dependency graph.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/brizzai/chatbot/internal/auth"
	"github.com/brizzai/chatbot/internal/chat"
	"github.com/brizzai/chatbot/internal/config"
	"github.com/brizzai/chatbot/internal/conversation"
	"github.com/brizzai/chatbot/internal/llm"
	"github.com/brizzai/chatbot/internal/logger"
	"github.com/brizzai/chatbot/internal/mailer"
	"github.com/brizzai/chatbot/internal/server"
	"github.com/brizzai/chatbot/internal/storage"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const stopTimeout = 10 * time.Second

// Options returns the full graph for cfg. fx events are logged through log.
func Options(cfg *config.Config, log *zap.Logger) fx.Option {
	return fx.Options(
		fx.Supply(cfg, log),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			zl := &fxevent.ZapLogger{Logger: l.Named("fx")}
			zl.UseLogLevel(zap.DebugLevel)
			return zl
		}),
		conversation.Module,
		llm.Module,
		chat.Module,
		mailer.Module,
		storage.Module,
		auth.Module,
		server.Module,
	)
}

// Serve runs the REST API until ctx is done
func Serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	var srv *server.Server
	return run(ctx, fx.New(Options(cfg, log), fx.Populate(&srv)), func(ctx context.Context) error {
		return srv.Start(ctx)
	})
}

// ServeMCP serves the chat tools over stdio until ctx is done
func ServeMCP(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	var srv *server.MCPServer
	return run(ctx, fx.New(Options(cfg, log), fx.Populate(&srv)), func(ctx context.Context) error {
		return srv.ServeSTDIO(ctx)
	})
}

// run starts the graph, blocks in serve and stops the graph afterwards
func run(ctx context.Context, app *fx.App, serve func(context.Context) error) error {
	if err := app.Err(); err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	serveErr := serve(ctx)

	stopCtx, cancelStop := context.WithTimeout(context.Background(), stopTimeout)
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil {
		logger.Error("Failed to stop application cleanly", zap.Error(err))
	}

	return serveErr
}
