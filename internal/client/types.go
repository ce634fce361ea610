package client

import (
	"fmt"
	"time"
)

// Reply is the body of a successful chat call
type Reply struct {
	Reply         string    `json:"reply"`
	UserID        string    `json:"userId"`
	FileProcessed bool      `json:"fileProcessed,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Message is one stored turn. Type is "incoming" for the user and
// "outgoing" for the assistant.
type Message struct {
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// History is the body of GET /history/{userId}
type History struct {
	UserID   string    `json:"userId"`
	Messages []Message `json:"messages"`
	Count    int       `json:"count"`
}

// Health is the body of GET /
type Health struct {
	Status  string `json:"status"`
	Bot     string `json:"bot"`
	Version string `json:"version"`
	Storage string `json:"storage"`
}

// User is the profile returned by /auth/me
type User struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Provider  string    `json:"provider"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Attachment is a file sent along with a chat message
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// APIError is a non-2xx answer from the backend
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%d: %s (%s)", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// errorBody covers both the chat ({error,details}) and auth
// ({success,message}) failure shapes
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
	Message string `json:"message"`
}
