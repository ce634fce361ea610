// Package chat answers user messages with the completion API, keeping a
// bounded window of each user's conversation as context.
package chat

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brizzai/chatbot/internal/config"
	"github.com/brizzai/chatbot/internal/conversation"
	"github.com/brizzai/chatbot/internal/llm"
	"github.com/brizzai/chatbot/internal/logger"
	"go.uber.org/zap"
)

var (
	// ErrMissingFields is returned when the user id or message is blank
	ErrMissingFields = errors.New("userId and userMessage are required")
	// ErrNotConfigured is returned when the completion API has no key
	ErrNotConfigured = errors.New("completion API not configured")
)

const (
	historyTypeIncoming = "incoming"
	historyTypeOutgoing = "outgoing"
)

// Attachment is an uploaded file held in memory for a single request
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// IsImage reports whether the attachment should be sent as an image part
func (a *Attachment) IsImage() bool {
	return strings.HasPrefix(a.ContentType, "image/")
}

// DataURI encodes the attachment as a base64 data URI
func (a *Attachment) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", a.ContentType, base64.StdEncoding.EncodeToString(a.Data))
}

// Request is a single user message
type Request struct {
	UserID     string
	Message    string
	Attachment *Attachment
}

// Reply is the assistant's answer
type Reply struct {
	Reply         string    `json:"reply"`
	UserID        string    `json:"userId"`
	FileProcessed bool      `json:"fileProcessed,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// HistoryMessage is a stored turn as exposed by the history endpoint
type HistoryMessage struct {
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// Service runs the chat flow
type Service struct {
	store     *conversation.Store
	completer llm.Completer
	persona   *llm.Persona
	cfg       config.ChatConfig
	now       func() time.Time
}

// NewService creates a chat service
func NewService(cfg *config.Config, store *conversation.Store, completer llm.Completer, persona *llm.Persona) *Service {
	return &Service{
		store:     store,
		completer: completer,
		persona:   persona,
		cfg:       cfg.Chat,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Reply records the user's message, asks the completion API for an answer
// using the recent conversation window and records the answer.
func (s *Service) Reply(ctx context.Context, req Request) (*Reply, error) {
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Message) == "" {
		return nil, ErrMissingFields
	}
	if !s.completer.Configured() {
		return nil, ErrNotConfigured
	}

	// Prior context is read before the new turn is stored so the outbound
	// list carries the new turn exactly once.
	var prior []conversation.Turn
	if s.cfg.HistoryLimit > 1 {
		prior = s.store.Window(req.UserID, s.cfg.HistoryLimit-1)
	}

	stored := req.Message
	if req.Attachment != nil {
		stored = fmt.Sprintf("[File: %s] %s", req.Attachment.Name, req.Message)
	}
	s.store.Append(req.UserID, conversation.Turn{
		Role:      conversation.RoleUser,
		Content:   stored,
		Timestamp: s.now(),
	})

	outbound := append(prior, s.outboundTurn(req))
	messages := llm.BuildMessages(s.persona.Prompt, outbound)

	logger.Debug("Sending chat completion",
		zap.String("user_id", req.UserID),
		zap.Int("turns", len(outbound)),
		zap.Bool("attachment", req.Attachment != nil),
	)

	answer, err := s.completer.Complete(ctx, llm.Request{
		Messages: messages,
		WithFile: req.Attachment != nil,
	})
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			return nil, ErrNotConfigured
		}
		return nil, err
	}

	ts := s.now()
	s.store.Append(req.UserID, conversation.Turn{
		Role:      conversation.RoleAssistant,
		Content:   answer,
		Timestamp: ts,
	})

	return &Reply{
		Reply:         answer,
		UserID:        req.UserID,
		FileProcessed: req.Attachment != nil,
		Timestamp:     ts,
	}, nil
}

// outboundTurn is the newest user turn as sent upstream. Images travel as
// a data URI part; other files are inlined as text.
func (s *Service) outboundTurn(req Request) conversation.Turn {
	turn := conversation.Turn{Role: conversation.RoleUser, Content: req.Message}

	att := req.Attachment
	switch {
	case att == nil:
	case att.IsImage():
		turn.ImageURL = att.DataURI()
	default:
		body := truncateRunes(string(att.Data), s.cfg.MaxFileChars)
		turn.Content = fmt.Sprintf("%s\n\nFile content (%s):\n```\n%s\n```", req.Message, att.Name, body)
	}
	return turn
}

// History returns up to limit of the user's most recent turns and the total stored
func (s *Service) History(userID string, limit int) ([]HistoryMessage, int) {
	if limit <= 0 {
		limit = s.cfg.HistoryPageSize
	}

	turns := s.store.Window(userID, limit)
	messages := make([]HistoryMessage, 0, len(turns))
	for _, t := range turns {
		typ := historyTypeIncoming
		if t.Role == conversation.RoleAssistant {
			typ = historyTypeOutgoing
		}
		messages = append(messages, HistoryMessage{Message: t.Content, Type: typ, Timestamp: t.Timestamp})
	}
	return messages, s.store.Len(userID)
}

// Clear drops the user's conversation and returns how many turns it held
func (s *Service) Clear(userID string) int {
	n := s.store.Clear(userID)
	logger.Info("Cleared chat history", zap.String("user_id", userID), zap.Int("deleted", n))
	return n
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
