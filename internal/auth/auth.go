// Package auth wires the login flows and bearer authentication into the
// HTTP server.
package auth

import (
	"context"
	"net/http"

	"github.com/brizzai/chatbot/internal/auth/handlers"
	"github.com/brizzai/chatbot/internal/auth/middleware"
	"github.com/brizzai/chatbot/internal/auth/otp"
	"github.com/brizzai/chatbot/internal/auth/providers"
	"github.com/brizzai/chatbot/internal/auth/token"
	"github.com/brizzai/chatbot/internal/auth/users"
	"github.com/brizzai/chatbot/internal/config"
	"github.com/brizzai/chatbot/internal/mailer"
	"go.uber.org/fx"
)

// Module provides the auth service and everything behind it
var Module = fx.Module("auth",
	fx.Provide(
		token.NewManager,
		token.NewStateSigner,
		users.NewService,
		otp.NewService,
		newRegistry,
		newOTPSender,
		handlers.NewHandler,
		NewService,
	),
)

func newRegistry(cfg *config.Config) *providers.Registry {
	return providers.NewRegistryFromConfig(context.Background(), cfg)
}

func newOTPSender(m mailer.Mailer) otp.Sender {
	return m
}

// Service represents the auth service
type Service struct {
	allowOrigins []string
	tokens       *token.Manager
	handler      *handlers.Handler
	providers    *providers.Registry
}

// NewService creates a new auth service
func NewService(cfg *config.Config, tokens *token.Manager, handler *handlers.Handler, registry *providers.Registry) *Service {
	return &Service{
		allowOrigins: cfg.Server.AllowOrigins,
		tokens:       tokens,
		handler:      handler,
		providers:    registry,
	}
}

// RegisterRoutes registers all auth routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/auth/send-otp", s.handler.HandleSendOTP)
	mux.HandleFunc("/auth/verify-otp", s.handler.HandleVerifyOTP)
	mux.Handle("/auth/me", s.Authenticate()(http.HandlerFunc(s.handler.HandleMe)))
	mux.HandleFunc("/auth/logout", s.handler.HandleLogout)

	mux.HandleFunc("/auth/{provider}", s.handler.HandleProviderLogin)
	mux.HandleFunc("/auth/{provider}/callback", s.handler.HandleProviderCallback)
}

// WrapWithCors wraps the handler with the CORS middleware
func (s *Service) WrapWithCors(handler http.Handler) http.Handler {
	return middleware.CORSWithOrigins(s.allowOrigins)(handler)
}

// Authenticate returns the bearer authentication middleware
func (s *Service) Authenticate() func(http.Handler) http.Handler {
	return middleware.Authenticate(s.tokens)
}

// Providers returns the names of the configured OAuth providers
func (s *Service) Providers() []string {
	return s.providers.Names()
}
