package token

import (
	"sync"
	"time"
)

// RevocationList remembers revoked token ids until their expiry
type RevocationList struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

// NewRevocationList creates an empty list
func NewRevocationList() *RevocationList {
	return &RevocationList{entries: make(map[string]time.Time)}
}

// Add revokes id until expiresAt and drops entries that already expired
func (l *RevocationList) Add(id string, expiresAt, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for k, exp := range l.entries {
		if !exp.After(now) {
			delete(l.entries, k)
		}
	}
	if expiresAt.After(now) {
		l.entries[id] = expiresAt
	}
}

// Contains reports whether id is revoked at now
func (l *RevocationList) Contains(id string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	exp, ok := l.entries[id]
	return ok && exp.After(now)
}

// Len returns the number of tracked ids
func (l *RevocationList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
