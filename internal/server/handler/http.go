// Package handler assembles the HTTP routes and middleware stack.
package handler

import (
	"context"
	"net/http"

	"github.com/brizzai/chatbot/internal/apidoc"
	"github.com/brizzai/chatbot/internal/auth"
	"github.com/brizzai/chatbot/internal/chat"
	"github.com/brizzai/chatbot/internal/config"
	"github.com/brizzai/chatbot/internal/logger"
	"github.com/brizzai/chatbot/internal/storage"
	"github.com/brizzai/chatbot/internal/utils"
	"go.uber.org/zap"
)

// HealthResponse is the body of GET /
type HealthResponse struct {
	Status  string          `json:"status"`
	Bot     string          `json:"bot"`
	Version string          `json:"version"`
	Storage storage.Backend `json:"storage"`
}

// Handler manages HTTP request handling and middleware configuration.
type Handler struct {
	config  *config.Config
	auth    *auth.Service
	chat    *chat.Handler
	backend storage.Backend
	mcp     http.Handler
}

// NewHandler creates a new HTTP handler. mcp may be nil.
func NewHandler(cfg *config.Config, authService *auth.Service, chatHandler *chat.Handler, backend storage.Backend, mcp http.Handler) *Handler {
	return &Handler{
		config:  cfg,
		auth:    authService,
		chat:    chatHandler,
		backend: backend,
		mcp:     mcp,
	}
}

// CreateHTTPHandler builds the mux and wraps it with request logging and CORS
func (h *Handler) CreateHTTPHandler() (http.Handler, error) {
	mux := http.NewServeMux()

	mux.HandleFunc("/{$}", h.HandleHealth)

	doc, err := apidoc.Load(context.Background(), h.config.Server.Version)
	if err != nil {
		return nil, err
	}
	docJSON, err := apidoc.JSON(doc)
	if err != nil {
		return nil, err
	}
	mux.HandleFunc("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(docJSON)
	})

	h.chat.RegisterRoutes(mux)
	h.auth.RegisterRoutes(mux)
	logger.Info("Registered authentication routes", zap.Strings("oauth_providers", h.auth.Providers()))

	if h.mcp != nil {
		mux.Handle("/mcp", h.auth.Authenticate()(h.mcp))
		logger.Info("Enabled authenticated MCP endpoint", zap.String("path", "/mcp"))
	}

	if dir := h.config.Server.StaticDir; dir != "" {
		mux.Handle("/", http.FileServer(http.Dir(dir)))
		logger.Info("Serving static files", zap.String("dir", dir))
	}

	return LoggingMiddleware(h.auth.WrapWithCors(mux)), nil
}

// HandleHealth handles GET /
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	utils.WriteJSON(w, HealthResponse{
		Status:  "running",
		Bot:     h.config.Server.Name,
		Version: h.config.Server.Version,
		Storage: h.backend,
	})
}
