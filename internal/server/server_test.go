package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/brizzai/chatbot/internal/auth"
	"github.com/brizzai/chatbot/internal/auth/otp"
	"github.com/brizzai/chatbot/internal/auth/users"
	"github.com/brizzai/chatbot/internal/chat"
	"github.com/brizzai/chatbot/internal/config"
	"github.com/brizzai/chatbot/internal/conversation"
	"github.com/brizzai/chatbot/internal/llm"
	"github.com/brizzai/chatbot/internal/mailer"
	"github.com/brizzai/chatbot/internal/storage"
	"github.com/brizzai/chatbot/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

type staticCompleter struct {
	reply string
}

func (c staticCompleter) Configured() bool { return true }

func (c staticCompleter) Complete(context.Context, llm.Request) (string, error) {
	return c.reply, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Name:         "Amith Assistant Chatbot",
			Version:      "9.9.9",
			Host:         "127.0.0.1",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		Chat: config.ChatConfig{
			HistoryLimit:    10,
			HistoryPageSize: 50,
			MaxUploadBytes:  1 << 20,
			MaxFileChars:    10000,
		},
		Auth: config.AuthConfig{
			JWTSecret:       "jwt-secret",
			SessionSecret:   "session-secret",
			TokenTTL:        time.Hour,
			OTPTTL:          10 * time.Minute,
			SuccessRedirect: "/chat-with-upload.html",
			FailureRedirect: "/login.html",
		},
	}
}

func newTestApp(t *testing.T, cfg *config.Config, populate ...interface{}) {
	t.Helper()
	app := fxtest.New(t,
		fx.Supply(cfg),
		fx.Provide(
			func() llm.Completer { return staticCompleter{reply: "Hello from Amith"} },
			llm.DefaultPersona,
			func() mailer.Mailer { return mailer.Disabled{} },
			func() users.Repository { return memory.NewUserRepository() },
			func() otp.Repository { return memory.NewOTPRepository() },
			func() storage.Backend { return storage.BackendMemory },
		),
		conversation.Module,
		chat.Module,
		auth.Module,
		Module,
		fx.Populate(populate...),
	)
	app.RequireStart()
	t.Cleanup(app.RequireStop)
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	var srv *Server
	newTestApp(t, cfg, &srv)
	return srv
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{
		"status":  "running",
		"bot":     "Amith Assistant Chatbot",
		"version": "9.9.9",
		"storage": "memory",
	}, body)
}

func TestOpenAPIDocument(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var doc struct {
		Info struct {
			Version string `json:"version"`
		} `json:"info"`
		Paths map[string]interface{} `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "9.9.9", doc.Info.Version)
	assert.Contains(t, doc.Paths, "/history/{userId}")
}

func TestChatRoundTrip(t *testing.T) {
	srv := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"userId":"u1","userMessage":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(srv, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var reply map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, "Hello from Amith", reply["reply"])
	assert.Equal(t, "u1", reply["userId"])

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/history/u1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var history map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.EqualValues(t, 2, history["count"])
}

func TestMCPEndpointRequiresToken(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := serve(srv, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := serve(srv, httptest.NewRequest(http.MethodOptions, "/chat", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "login.html"), []byte("<h1>login</h1>"), 0o600))

	cfg := testConfig()
	cfg.Server.StaticDir = dir
	srv := newTestServer(t, cfg)

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/login.html", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "login")

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, rec.Body.String(), `"status":"running"`)
}

func TestUnknownPathWithoutStaticDir(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/login.html", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStart_ShutsDownOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Port = 0
	srv := newTestServer(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestStart_ListenError(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Host = "256.0.0.1"
	srv := newTestServer(t, cfg)

	err := srv.Start(context.Background())
	assert.Error(t, err)
}
