package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brizzai/chatbot/internal/config"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewOpenAIClient(&config.Config{
		OpenAI: config.OpenAIConfig{
			APIKey:            "sk-test",
			BaseURL:           srv.URL + "/v1",
			Model:             "gpt-4o-mini",
			Temperature:       0.7,
			MaxTokens:         500,
			MaxTokensWithFile: 1000,
			Timeout:           5 * time.Second,
		},
	})
}

func completionHandler(t *testing.T, captured *capturedRequest, content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "` + content + `"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
		}`))
	}
}

func TestOpenAIClient_Complete(t *testing.T) {
	var captured capturedRequest
	client := newTestClient(t, completionHandler(t, &captured, "Hi there"))

	reply, err := client.Complete(context.Background(), Request{
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "persona"},
			{Role: openai.ChatMessageRoleUser, Content: "hello"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Hi there", reply)
	assert.Equal(t, "gpt-4o-mini", captured.Model)
	assert.Equal(t, 500, captured.MaxTokens)
	assert.InDelta(t, 0.7, captured.Temperature, 0.0001)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "hello", captured.Messages[1].Content)
}

func TestOpenAIClient_CompleteWithFileRaisesTokenBudget(t *testing.T) {
	var captured capturedRequest
	client := newTestClient(t, completionHandler(t, &captured, "Summary"))

	_, err := client.Complete(context.Background(), Request{
		Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "summarize"}},
		WithFile: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1000, captured.MaxTokens)
}

func TestOpenAIClient_UpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limited", "type": "rate_limit_error"}}`))
	})

	_, err := client.Complete(context.Background(), Request{
		Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "hello"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestOpenAIClient_EmptyChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x", "object": "chat.completion", "choices": []}`))
	})

	_, err := client.Complete(context.Background(), Request{
		Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "hello"}},
	})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAIClient_NotConfigured(t *testing.T) {
	client := NewOpenAIClient(&config.Config{
		OpenAI: config.OpenAIConfig{APIKey: "your_openai_api_key_here"},
	})

	assert.False(t, client.Configured())
	_, err := client.Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
