package conversation

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

func contents(turns []Turn) []string {
	out := make([]string, 0, len(turns))
	for _, t := range turns {
		out = append(out, t.Content)
	}
	return out
}

func TestStore_WindowReturnsLastTurnsInOrder(t *testing.T) {
	tests := []struct {
		name     string
		appended int
		limit    int
		expected []string
	}{
		{name: "fewer than limit", appended: 3, limit: 10, expected: []string{"m0", "m1", "m2"}},
		{name: "exactly limit", appended: 4, limit: 4, expected: []string{"m0", "m1", "m2", "m3"}},
		{name: "more than limit", appended: 12, limit: 3, expected: []string{"m9", "m10", "m11"}},
		{name: "zero limit returns all", appended: 2, limit: 0, expected: []string{"m0", "m1"}},
		{name: "empty session", appended: 0, limit: 5, expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(0)
			for i := 0; i < tt.appended; i++ {
				s.Append("u1", userTurn(fmt.Sprintf("m%d", i)))
			}
			assert.Equal(t, tt.expected, contents(s.Window("u1", tt.limit)))
		})
	}
}

func TestStore_AppendSetsTimestamp(t *testing.T) {
	s := NewStore(0)
	s.Append("u1", userTurn("hi"))

	turns := s.Window("u1", 1)
	require.Len(t, turns, 1)
	assert.False(t, turns[0].Timestamp.IsZero())
}

func TestStore_WindowIsACopy(t *testing.T) {
	s := NewStore(0)
	s.Append("u1", userTurn("original"))

	w := s.Window("u1", 0)
	w[0].Content = "mutated"

	assert.Equal(t, "original", s.Window("u1", 0)[0].Content)
}

func TestStore_UsersAreIsolated(t *testing.T) {
	s := NewStore(0)
	s.Append("alice", userTurn("a1"))
	s.Append("bob", userTurn("b1"))
	s.Append("alice", Turn{Role: RoleAssistant, Content: "a2"})

	expected := []Turn{
		{Role: RoleUser, Content: "a1"},
		{Role: RoleAssistant, Content: "a2"},
	}
	if diff := cmp.Diff(expected, s.Window("alice", 0), cmpopts.IgnoreFields(Turn{}, "Timestamp")); diff != "" {
		t.Errorf("alice window mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, s.Len("bob"))
	assert.Equal(t, 2, s.Users())
}

func TestStore_Clear(t *testing.T) {
	s := NewStore(0)
	s.Append("u1", userTurn("a"))
	s.Append("u1", userTurn("b"))

	assert.Equal(t, 2, s.Clear("u1"))
	assert.Empty(t, s.Window("u1", 10))
	assert.Equal(t, 0, s.Len("u1"))
	assert.Equal(t, 0, s.Clear("u1"))
	assert.Equal(t, 0, s.Clear("never-seen"))
}

func TestStore_MaxTurnsDropsOldest(t *testing.T) {
	s := NewStore(3)
	for i := 0; i < 5; i++ {
		s.Append("u1", userTurn(fmt.Sprintf("m%d", i)))
	}

	assert.Equal(t, 3, s.Len("u1"))
	assert.Equal(t, []string{"m2", "m3", "m4"}, contents(s.Window("u1", 0)))
}

func TestStore_Reset(t *testing.T) {
	s := NewStore(0)
	s.Append("u1", userTurn("a"))
	s.Append("u2", userTurn("b"))

	s.Reset()
	assert.Equal(t, 0, s.Users())
}

func TestStore_ConcurrentAppend(t *testing.T) {
	s := NewStore(0)
	const writers, perWriter = 8, 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				s.Append("shared", userTurn(fmt.Sprintf("w%d-%d", w, i)))
				_ = s.Window("shared", 10)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, writers*perWriter, s.Len("shared"))
}
