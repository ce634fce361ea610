package llm

import (
	"github.com/brizzai/chatbot/internal/conversation"
	openai "github.com/sashabaranov/go-openai"
)

// BuildMessages renders the system prompt followed by the turns into the
// completion wire format. Turns carrying an image become multi-part
// messages with a text part and an image part.
func BuildMessages(systemPrompt string, turns []conversation.Turn) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})

	for _, turn := range turns {
		if turn.ImageURL == "" {
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    string(turn.Role),
				Content: turn.Content,
			})
			continue
		}

		messages = append(messages, openai.ChatCompletionMessage{
			Role: string(turn.Role),
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: turn.Content},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: turn.ImageURL}},
			},
		})
	}
	return messages
}
