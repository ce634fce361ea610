package chat

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/brizzai/chatbot/internal/config"
	"github.com/brizzai/chatbot/internal/logger"
	"github.com/brizzai/chatbot/internal/utils"
	"go.uber.org/zap"
)

const (
	msgNotConfigured = "OpenAI API key not configured. Please add your key to the .env file."
	msgUpstream      = "Something went wrong. Please try again."
	msgInvalidBody   = "Invalid request body"
	msgFileTooLarge  = "File too large"
	msgBodyTooLarge  = "Request body too large"
	msgHistoryClear  = "Chat history cleared"

	// multipartOverhead leaves room for the text fields next to the file
	multipartOverhead = 1 << 20
)

// Handler serves the chat and history endpoints
type Handler struct {
	service        *Service
	maxUploadBytes int64
	maxBodyBytes   int64
}

// NewHandler creates a chat handler
func NewHandler(cfg *config.Config, service *Service) *Handler {
	return &Handler{
		service:        service,
		maxUploadBytes: cfg.Chat.MaxUploadBytes,
		maxBodyBytes:   cfg.Server.MaxBodyBytes,
	}
}

// RegisterRoutes registers the chat routes on the mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/chat", h.HandleChat)
	mux.HandleFunc("/chat-with-file", h.HandleChatWithFile)
	mux.HandleFunc("/history/{userId}", h.HandleHistory)
}

type chatRequest struct {
	UserID      string `json:"userId"`
	UserMessage string `json:"userMessage"`
}

// HandleChat handles POST /chat
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.WriteError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge, "")
			return
		}
		utils.WriteError(w, http.StatusBadRequest, msgInvalidBody, "")
		return
	}

	h.reply(w, r, Request{UserID: req.UserID, Message: req.UserMessage})
}

// HandleChatWithFile handles POST /chat-with-file. The upload is parsed
// entirely in memory.
func (h *Handler) HandleChatWithFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := h.maxUploadBytes + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.WriteError(w, http.StatusRequestEntityTooLarge, msgFileTooLarge, "")
			return
		}
		utils.WriteError(w, http.StatusBadRequest, msgInvalidBody, err.Error())
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.Debug("Failed to release multipart form", zap.Error(err))
		}
	}()

	req := Request{
		UserID:  r.FormValue("userId"),
		Message: r.FormValue("userMessage"),
	}

	att, err := readAttachment(r, h.maxUploadBytes)
	switch {
	case errors.Is(err, errFileTooLarge):
		utils.WriteError(w, http.StatusRequestEntityTooLarge, msgFileTooLarge, "")
		return
	case err != nil:
		logger.Error("Failed to read upload", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, msgUpstream, err.Error())
		return
	}
	req.Attachment = att

	h.reply(w, r, req)
}

func (h *Handler) reply(w http.ResponseWriter, r *http.Request, req Request) {
	reply, err := h.service.Reply(r.Context(), req)
	switch {
	case errors.Is(err, ErrMissingFields):
		utils.WriteError(w, http.StatusBadRequest, ErrMissingFields.Error(), "")
	case errors.Is(err, ErrNotConfigured):
		utils.WriteError(w, http.StatusInternalServerError, msgNotConfigured, "")
	case err != nil:
		logger.Error("Chat completion failed", zap.String("user_id", req.UserID), zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, msgUpstream, err.Error())
	default:
		utils.WriteJSON(w, reply)
	}
}

type historyResponse struct {
	UserID   string           `json:"userId"`
	Messages []HistoryMessage `json:"messages"`
	Count    int              `json:"count"`
}

type clearResponse struct {
	Message      string `json:"message"`
	DeletedCount int    `json:"deletedCount"`
}

// HandleHistory handles GET and DELETE /history/{userId}
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	switch r.Method {
	case http.MethodGet:
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil {
			limit = 0
		}
		messages, count := h.service.History(userID, limit)
		utils.WriteJSON(w, historyResponse{UserID: userID, Messages: messages, Count: count})
	case http.MethodDelete:
		deleted := h.service.Clear(userID)
		utils.WriteJSON(w, clearResponse{Message: msgHistoryClear, DeletedCount: deleted})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
