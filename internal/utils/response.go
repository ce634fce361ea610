package utils

import (
	"encoding/json"
	"net/http"

	"github.com/brizzai/chatbot/internal/logger"
	"go.uber.org/zap"
)

// ErrorBody is the JSON shape of chat and history failures
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// StatusBody is the JSON shape of auth responses
type StatusBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WriteJSON writes a 200 JSON response
func WriteJSON(w http.ResponseWriter, data interface{}) {
	WriteJSONStatus(w, http.StatusOK, data)
}

// WriteJSONStatus writes a JSON response with the given status
func WriteJSONStatus(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		logger.Debug("Failed to write response", zap.Error(err))
	}
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, status int, message, details string) {
	WriteJSONStatus(w, status, ErrorBody{Error: message, Details: details})
}

// WriteFailure writes an unsuccessful auth response
func WriteFailure(w http.ResponseWriter, status int, message string) {
	WriteJSONStatus(w, status, StatusBody{Success: false, Message: message})
}
