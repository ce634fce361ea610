package tui

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brizzai/chatbot/internal/client"
	tea "github.com/charmbracelet/bubbletea"
)

const historyPageSize = 50

// Backend is the part of the REST client the chat page uses
type Backend interface {
	Chat(ctx context.Context, userID, message string) (*client.Reply, error)
	ChatWithFile(ctx context.Context, userID, message string, file *client.Attachment) (*client.Reply, error)
	History(ctx context.Context, userID string, limit int) (*client.History, error)
	ClearHistory(ctx context.Context, userID string) (int, error)
}

// historyLoadedMsg carries the conversation loaded at start
type historyLoadedMsg struct {
	messages []client.Message
}

// replyMsg carries the assistant's answer
type replyMsg struct {
	reply *client.Reply
}

// clearedMsg reports a cleared conversation
type clearedMsg struct {
	deleted int
}

// errMsg reports a failed backend call
type errMsg struct {
	err error
}

func loadHistory(ctx context.Context, backend Backend, userID string) tea.Cmd {
	return func() tea.Msg {
		history, err := backend.History(ctx, userID, historyPageSize)
		if err != nil {
			return errMsg{fmt.Errorf("failed to load history: %w", err)}
		}
		return historyLoadedMsg{messages: history.Messages}
	}
}

func sendMessage(ctx context.Context, backend Backend, userID, text string) tea.Cmd {
	return func() tea.Msg {
		reply, err := backend.Chat(ctx, userID, text)
		if err != nil {
			return errMsg{err}
		}
		return replyMsg{reply: reply}
	}
}

func sendFile(ctx context.Context, backend Backend, userID, path, text string) tea.Cmd {
	return func() tea.Msg {
		att, err := readAttachment(path)
		if err != nil {
			return errMsg{err}
		}
		reply, err := backend.ChatWithFile(ctx, userID, text, att)
		if err != nil {
			return errMsg{err}
		}
		return replyMsg{reply: reply}
	}
}

func clearHistory(ctx context.Context, backend Backend, userID string) tea.Cmd {
	return func() tea.Msg {
		n, err := backend.ClearHistory(ctx, userID)
		if err != nil {
			return errMsg{fmt.Errorf("failed to clear history: %w", err)}
		}
		return clearedMsg{deleted: n}
	}
}

func readAttachment(path string) (*client.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &client.Attachment{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// parseFileCommand splits "/file <path> <message>". The message defaults
// to a request to analyze the file.
func parseFileCommand(input string) (path, message string, ok bool) {
	rest := strings.TrimSpace(strings.TrimPrefix(input, fileCommand))
	if rest == "" {
		return "", "", false
	}
	path, message, _ = strings.Cut(rest, " ")
	message = strings.TrimSpace(message)
	if message == "" {
		message = "Please analyze this file."
	}
	return path, message, true
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("15:04")
}
