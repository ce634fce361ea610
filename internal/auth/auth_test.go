package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/brizzai/chatbot/internal/auth/handlers"
	"github.com/brizzai/chatbot/internal/auth/otp"
	"github.com/brizzai/chatbot/internal/auth/providers"
	"github.com/brizzai/chatbot/internal/auth/token"
	"github.com/brizzai/chatbot/internal/auth/users"
	"github.com/brizzai/chatbot/internal/config"
	"github.com/brizzai/chatbot/internal/mailer"
	"github.com/brizzai/chatbot/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 3001, AllowOrigins: []string{"http://localhost:3000"}},
		Auth: config.AuthConfig{
			JWTSecret:       "jwt-secret",
			SessionSecret:   "session-secret",
			TokenTTL:        time.Hour,
			OTPTTL:          10 * time.Minute,
			SuccessRedirect: "/chat-with-upload.html",
			FailureRedirect: "/login.html",
		},
		OAuth: config.OAuthConfig{
			GitHub: config.ProviderConfig{ClientID: "id", ClientSecret: "secret"},
		},
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg := testConfig()
	tokens := token.NewManager(cfg)
	registry := providers.NewRegistryFromConfig(context.Background(), cfg)
	h := handlers.NewHandler(
		cfg,
		otp.NewService(cfg, memory.NewOTPRepository(), mailer.Disabled{}),
		users.NewService(memory.NewUserRepository()),
		tokens,
		token.NewStateSigner(cfg),
		registry,
		mailer.Disabled{},
	)
	return NewService(cfg, tokens, h, registry)
}

func TestRegisterRoutes(t *testing.T) {
	mux := http.NewServeMux()
	newTestService(t).RegisterRoutes(mux)

	routes := map[string]string{
		"/auth/send-otp":        "/auth/send-otp",
		"/auth/verify-otp":      "/auth/verify-otp",
		"/auth/me":              "/auth/me",
		"/auth/logout":          "/auth/logout",
		"/auth/github":          "/auth/{provider}",
		"/auth/google/callback": "/auth/{provider}/callback",
	}
	for route, want := range routes {
		r := httptest.NewRequest(http.MethodGet, route, nil)
		_, pattern := mux.Handler(r)
		assert.Equal(t, want, pattern, route)
	}
}

func TestMeRequiresAuthentication(t *testing.T) {
	mux := http.NewServeMux()
	newTestService(t).RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSendOTPWithoutMailer(t *testing.T) {
	mux := http.NewServeMux()
	newTestService(t).RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/send-otp", strings.NewReader(`{"email":"a@b.co"}`))
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWrapWithCors(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	wrapped := newTestService(t).WrapWithCors(h)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestProviders(t *testing.T) {
	assert.Equal(t, []string{"github"}, newTestService(t).Providers())
}

func TestModule(t *testing.T) {
	var svc *Service
	app := fxtest.New(t,
		fx.Supply(testConfig()),
		fx.Provide(
			func() mailer.Mailer { return mailer.Disabled{} },
			func() users.Repository { return memory.NewUserRepository() },
			func() otp.Repository { return memory.NewOTPRepository() },
		),
		Module,
		fx.Populate(&svc),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(t, svc)
	assert.Equal(t, []string{"github"}, svc.Providers())
}
