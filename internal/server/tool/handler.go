// Package tool exposes the chat service as MCP tools.
package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/brizzai/chatbot/internal/apidoc"
	"github.com/brizzai/chatbot/internal/auth/middleware"
	"github.com/brizzai/chatbot/internal/chat"
	"github.com/brizzai/chatbot/internal/logger"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

const (
	ToolChat         = "chat"
	ToolGetHistory   = "get_history"
	ToolClearHistory = "clear_history"
)

// ChatService is the part of the chat service the tools call
type ChatService interface {
	Reply(ctx context.Context, req chat.Request) (*chat.Reply, error)
	History(userID string, limit int) ([]chat.HistoryMessage, int)
	Clear(userID string) int
}

// Handler manages tool execution.
type Handler struct {
	chat ChatService
}

// NewHandler creates a new tool handler.
func NewHandler(service *chat.Service) *Handler {
	return &Handler{chat: service}
}

type route struct {
	name    string
	method  string
	path    string
	handler mcpserver.ToolHandlerFunc
}

// Tools builds the tool set. Argument schemas come from the documented
// REST operation each tool mirrors.
func (h *Handler) Tools(doc *openapi3.T) ([]mcpserver.ServerTool, error) {
	routes := []route{
		{ToolChat, http.MethodPost, "/chat", h.handleChat},
		{ToolGetHistory, http.MethodGet, "/history/{userId}", h.handleGetHistory},
		{ToolClearHistory, http.MethodDelete, "/history/{userId}", h.handleClearHistory},
	}

	tools := make([]mcpserver.ServerTool, 0, len(routes))
	for _, r := range routes {
		opts, err := apidoc.ToolOptions(doc, r.method, r.path)
		if err != nil {
			return nil, fmt.Errorf("failed to describe tool %s: %w", r.name, err)
		}
		tools = append(tools, mcpserver.ServerTool{
			Tool:    mcp.NewTool(r.name, opts...),
			Handler: r.handler,
		})
	}
	return tools, nil
}

func (h *Handler) handleChat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, errResult := resolveUser(ctx, ToolChat, args)
	if errResult != nil {
		return errResult, nil
	}

	reply, err := h.chat.Reply(ctx, chat.Request{
		UserID:  userID,
		Message: stringArg(args, "userMessage"),
	})
	switch {
	case errors.Is(err, chat.ErrMissingFields):
		return mcp.NewToolResultError("userId and userMessage are required"), nil
	case errors.Is(err, chat.ErrNotConfigured):
		return mcp.NewToolResultError("OpenAI API key not configured"), nil
	case err != nil:
		logger.Error("Chat tool failed", zap.String("user_id", userID), zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("chat failed: %v", err)), nil
	}
	return mcp.NewToolResultText(reply.Reply), nil
}

func (h *Handler) handleGetHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, errResult := resolveUser(ctx, ToolGetHistory, args)
	if errResult != nil {
		return errResult, nil
	}

	messages, total := h.chat.History(userID, intArg(args, "limit"))
	return jsonResult(map[string]interface{}{
		"userId":   userID,
		"messages": messages,
		"count":    len(messages),
		"total":    total,
	})
}

func (h *Handler) handleClearHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, errResult := resolveUser(ctx, ToolClearHistory, args)
	if errResult != nil {
		return errResult, nil
	}

	n := h.chat.Clear(userID)
	return jsonResult(map[string]interface{}{
		"message":      "Chat history cleared",
		"deletedCount": n,
	})
}

// resolveUser picks the conversation a call acts on. Over an authenticated
// transport the caller may only act on their own conversation.
func resolveUser(ctx context.Context, tool string, args map[string]any) (string, *mcp.CallToolResult) {
	userID := stringArg(args, "userId")

	if info, ok := middleware.FromContext(ctx); ok {
		if userID == "" {
			userID = info.UserID
		}
		if userID != info.UserID {
			logger.Warn("Tool call for another user rejected",
				zap.String("tool", tool),
				zap.String("user", info.UserID),
			)
			return "", mcp.NewToolResultError("userId does not match the authenticated user")
		}
	}

	if userID == "" {
		return "", mcp.NewToolResultError("userId is required")
	}
	return userID, nil
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	}
	return 0
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
