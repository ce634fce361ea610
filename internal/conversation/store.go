// Package conversation keeps the per-user chat history used to build the
// completion context.
package conversation

import (
	"sync"
	"time"

	"github.com/brizzai/chatbot/internal/config"
	"github.com/brizzai/chatbot/internal/logger"
	"go.uber.org/zap"
)

// Role identifies the author of a turn
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message in a conversation
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Store is an in-memory, per-user ordered list of turns.
// It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]Turn
	maxTurns int
}

// NewStore creates a store. maxTurns caps the retained turns per user,
// dropping the oldest first; 0 keeps everything.
func NewStore(maxTurns int) *Store {
	if maxTurns < 0 {
		maxTurns = 0
	}
	return &Store{
		sessions: make(map[string][]Turn),
		maxTurns: maxTurns,
	}
}

// NewStoreFromConfig creates a store using the chat settings
func NewStoreFromConfig(cfg *config.Config) *Store {
	return NewStore(cfg.Chat.MaxTurnsPerUser)
}

// Append adds a turn to the end of the user's session, creating it if needed
func (s *Store) Append(userID string, turn Turn) {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	turns := append(s.sessions[userID], turn)
	if s.maxTurns > 0 && len(turns) > s.maxTurns {
		dropped := len(turns) - s.maxTurns
		turns = append([]Turn(nil), turns[dropped:]...)
		logger.Debug("Trimmed conversation", zap.String("user_id", userID), zap.Int("dropped", dropped))
	}
	s.sessions[userID] = turns
}

// Window returns a copy of the last limit turns in original order.
// limit <= 0 returns every turn. An unknown user yields an empty slice.
func (s *Store) Window(userID string, limit int) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.sessions[userID]
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Len returns the number of stored turns for the user
func (s *Store) Len(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions[userID])
}

// Clear removes the user's session and returns how many turns it held
func (s *Store) Clear(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.sessions[userID])
	delete(s.sessions, userID)
	return n
}

// Users returns the number of users with a session
func (s *Store) Users() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Reset drops every session
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string][]Turn)
}
