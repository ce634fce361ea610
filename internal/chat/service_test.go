package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/brizzai/chatbot/internal/config"
	"github.com/brizzai/chatbot/internal/conversation"
	"github.com/brizzai/chatbot/internal/llm"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Configured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *mockCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{MaxBodyBytes: 1 << 10},
		Chat: config.ChatConfig{
			HistoryLimit:    10,
			HistoryPageSize: 50,
			MaxUploadBytes:  1 << 20,
			MaxFileChars:    10000,
		},
	}
}

func newTestService(completer llm.Completer) (*Service, *conversation.Store) {
	store := conversation.NewStore(0)
	svc := NewService(testConfig(), store, completer, &llm.Persona{Name: "test", Prompt: "system prompt"})
	svc.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc, store
}

func TestService_Reply(t *testing.T) {
	completer := &mockCompleter{}
	completer.On("Configured").Return(true)
	completer.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		return !req.WithFile &&
			len(req.Messages) == 2 &&
			req.Messages[0].Role == openai.ChatMessageRoleSystem &&
			req.Messages[0].Content == "system prompt" &&
			req.Messages[1].Content == "hello"
	})).Return("hi!", nil)

	svc, store := newTestService(completer)

	reply, err := svc.Reply(context.Background(), Request{UserID: "u1", Message: "hello"})
	require.NoError(t, err)

	assert.Equal(t, "hi!", reply.Reply)
	assert.Equal(t, "u1", reply.UserID)
	assert.False(t, reply.FileProcessed)
	assert.Equal(t, 2, store.Len("u1"))
	completer.AssertExpectations(t)
}

func TestService_ReplyMissingFieldsSkipsUpstream(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{name: "empty user id", req: Request{Message: "hello"}},
		{name: "blank message", req: Request{UserID: "u1", Message: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &mockCompleter{}
			svc, store := newTestService(completer)

			_, err := svc.Reply(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrMissingFields)
			assert.Equal(t, 0, store.Len(tt.req.UserID))
			completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
		})
	}
}

func TestService_ReplyNotConfigured(t *testing.T) {
	completer := &mockCompleter{}
	completer.On("Configured").Return(false)
	svc, store := newTestService(completer)

	_, err := svc.Reply(context.Background(), Request{UserID: "u1", Message: "hello"})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, 0, store.Len("u1"))
	completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestService_ReplyUpstreamErrorKeepsUserTurn(t *testing.T) {
	completer := &mockCompleter{}
	completer.On("Configured").Return(true)
	completer.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("boom"))
	svc, store := newTestService(completer)

	_, err := svc.Reply(context.Background(), Request{UserID: "u1", Message: "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 1, store.Len("u1"))
}

func TestService_ReplySendsBoundedWindow(t *testing.T) {
	completer := &mockCompleter{}
	completer.On("Configured").Return(true)

	var sent llm.Request
	completer.On("Complete", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(llm.Request) }).
		Return("ok", nil)

	svc, store := newTestService(completer)
	for i := 0; i < 20; i++ {
		store.Append("u1", conversation.Turn{Role: conversation.RoleUser, Content: fmt.Sprintf("old-%d", i)})
	}

	_, err := svc.Reply(context.Background(), Request{UserID: "u1", Message: "latest"})
	require.NoError(t, err)

	// system prompt + history limit
	require.Len(t, sent.Messages, 11)
	assert.Equal(t, "old-11", sent.Messages[1].Content)
	assert.Equal(t, "latest", sent.Messages[10].Content)

	userTurns := 0
	for _, m := range sent.Messages {
		if m.Content == "latest" {
			userTurns++
		}
	}
	assert.Equal(t, 1, userTurns, "new turn must be sent exactly once")
}

func TestService_ReplyWithImage(t *testing.T) {
	completer := &mockCompleter{}
	completer.On("Configured").Return(true)

	var sent llm.Request
	completer.On("Complete", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(llm.Request) }).
		Return("a cat", nil)

	svc, store := newTestService(completer)
	reply, err := svc.Reply(context.Background(), Request{
		UserID:     "u1",
		Message:    "what is this",
		Attachment: &Attachment{Name: "cat.png", ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}},
	})
	require.NoError(t, err)

	assert.True(t, reply.FileProcessed)
	assert.True(t, sent.WithFile)

	last := sent.Messages[len(sent.Messages)-1]
	require.Len(t, last.MultiContent, 2)
	assert.Equal(t, "what is this", last.MultiContent[0].Text)
	assert.Equal(t, "data:image/png;base64,iVBORw==", last.MultiContent[1].ImageURL.URL)

	stored := store.Window("u1", 0)
	assert.Equal(t, "[File: cat.png] what is this", stored[0].Content)
	assert.Empty(t, stored[0].ImageURL)
}

func TestService_ReplyWithTextFileTruncates(t *testing.T) {
	completer := &mockCompleter{}
	completer.On("Configured").Return(true)

	var sent llm.Request
	completer.On("Complete", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(llm.Request) }).
		Return("looks fine", nil)

	svc, _ := newTestService(completer)
	svc.cfg.MaxFileChars = 5

	_, err := svc.Reply(context.Background(), Request{
		UserID:     "u1",
		Message:    "review",
		Attachment: &Attachment{Name: "main.go", ContentType: "text/plain", Data: []byte("package main")},
	})
	require.NoError(t, err)

	last := sent.Messages[len(sent.Messages)-1]
	assert.Equal(t, "review\n\nFile content (main.go):\n```\npacka\n```", last.Content)
}

func TestService_HistoryAndClear(t *testing.T) {
	completer := &mockCompleter{}
	svc, store := newTestService(completer)

	store.Append("u1", conversation.Turn{Role: conversation.RoleUser, Content: "q"})
	store.Append("u1", conversation.Turn{Role: conversation.RoleAssistant, Content: "a"})
	store.Append("u1", conversation.Turn{Role: conversation.RoleUser, Content: "q2"})

	messages, count := svc.History("u1", 2)
	assert.Equal(t, 3, count)
	require.Len(t, messages, 2)
	assert.Equal(t, HistoryMessage{Message: "a", Type: "outgoing", Timestamp: messages[0].Timestamp}, messages[0])
	assert.Equal(t, "incoming", messages[1].Type)

	assert.Equal(t, 3, svc.Clear("u1"))
	messages, count = svc.History("u1", 0)
	assert.Empty(t, messages)
	assert.Equal(t, 0, count)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héll", truncateRunes("héllo", 4))
	assert.Equal(t, "abc", truncateRunes("abc", 10))
	assert.Equal(t, "abc", truncateRunes("abc", 0))
	assert.Len(t, []rune(truncateRunes(strings.Repeat("é", 20), 10)), 10)
}
