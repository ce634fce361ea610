package llm

import (
	"testing"

	"github.com/brizzai/chatbot/internal/conversation"
	"github.com/google/go-cmp/cmp"
	openai "github.com/sashabaranov/go-openai"
)

func TestBuildMessages(t *testing.T) {
	tests := []struct {
		name     string
		turns    []conversation.Turn
		expected []openai.ChatCompletionMessage
	}{
		{
			name:  "no history",
			turns: nil,
			expected: []openai.ChatCompletionMessage{
				{Role: "system", Content: "be nice"},
			},
		},
		{
			name: "text turns keep order",
			turns: []conversation.Turn{
				{Role: conversation.RoleUser, Content: "hi"},
				{Role: conversation.RoleAssistant, Content: "hello"},
				{Role: conversation.RoleUser, Content: "how are you"},
			},
			expected: []openai.ChatCompletionMessage{
				{Role: "system", Content: "be nice"},
				{Role: "user", Content: "hi"},
				{Role: "assistant", Content: "hello"},
				{Role: "user", Content: "how are you"},
			},
		},
		{
			name: "image turn becomes multi-part",
			turns: []conversation.Turn{
				{Role: conversation.RoleUser, Content: "[File: cat.png] what is this", ImageURL: "data:image/png;base64,AAAA"},
			},
			expected: []openai.ChatCompletionMessage{
				{Role: "system", Content: "be nice"},
				{
					Role: "user",
					MultiContent: []openai.ChatMessagePart{
						{Type: openai.ChatMessagePartTypeText, Text: "[File: cat.png] what is this"},
						{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: "data:image/png;base64,AAAA"}},
					},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildMessages("be nice", tt.turns)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("BuildMessages() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
