// Package server runs the REST API and the MCP surface of the chatbot.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/brizzai/chatbot/internal/auth"
	"github.com/brizzai/chatbot/internal/chat"
	"github.com/brizzai/chatbot/internal/config"
	"github.com/brizzai/chatbot/internal/logger"
	"github.com/brizzai/chatbot/internal/server/handler"
	"github.com/brizzai/chatbot/internal/server/tool"
	"github.com/brizzai/chatbot/internal/storage"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// shutdownTimeout is the maximum time to wait for server shutdown
	shutdownTimeout = 5 * time.Second
)

// Server is the HTTP server for the REST API
type Server struct {
	config  *config.Config
	handler http.Handler
}

// NewServer creates the HTTP server with the full route set
func NewServer(cfg *config.Config, h *handler.Handler) (*Server, error) {
	httpHandler, err := h.CreateHTTPHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to build routes: %w", err)
	}
	return &Server{config: cfg, handler: httpHandler}, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves HTTP until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	errChan := make(chan error, 1)

	go func() {
		logger.Info("Starting server",
			zap.String("address", addr),
			zap.String("version", s.config.Server.Version),
		)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server", zap.Duration("timeout", shutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil

	case err := <-errChan:
		return err
	}
}

func newHTTPHandler(cfg *config.Config, authService *auth.Service, chatHandler *chat.Handler, backend storage.Backend, mcp *MCPServer) *handler.Handler {
	return handler.NewHandler(cfg, authService, chatHandler, backend, mcp.HTTPHandler())
}

// Module provides the HTTP and MCP servers
var Module = fx.Module("server",
	fx.Provide(
		tool.NewHandler,
		NewMCPServer,
		newHTTPHandler,
		NewServer,
	),
)
