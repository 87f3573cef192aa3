// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/2389/bloop-answer/internal/conversation"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]*Conversation // keyed by conversation ID
	now    func() time.Time
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		rows: make(map[int64]*Conversation),
		now:  time.Now,
	}
}

// SaveConversation replaces any stored copy of the same user and thread.
func (m *MockStore) SaveConversation(ctx context.Context, c *Conversation) error {
	title, err := titleOf(c.Turns)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, row := range m.rows {
		if row.UserID == c.UserID && row.ThreadID == c.ThreadID {
			delete(m.rows, id)
		}
	}

	m.nextID++
	c.ID = m.nextID
	c.Title = title
	c.CreatedAt = m.now().UTC().Truncate(time.Second)

	// Store a copy to avoid external modification
	row := *c
	row.Turns = copyTurns(c.Turns)
	m.rows[row.ID] = &row
	return nil
}

// LoadConversation retrieves a conversation by ID.
func (m *MockStore) LoadConversation(ctx context.Context, userID string, id int64) (*Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.rows[id]
	if !ok || row.UserID != userID {
		return nil, ErrNotFound
	}

	result := *row
	result.Turns = copyTurns(row.Turns)
	return &result, nil
}

// ListConversations returns previews newest first.
func (m *MockStore) ListConversations(ctx context.Context, userID string) ([]Preview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	previews := []Preview{}
	for _, row := range m.rows {
		if row.UserID != userID {
			continue
		}
		previews = append(previews, Preview{ID: row.ID, CreatedAt: row.CreatedAt, Title: row.Title})
	}

	sort.Slice(previews, func(i, j int) bool {
		if !previews[i].CreatedAt.Equal(previews[j].CreatedAt) {
			return previews[i].CreatedAt.After(previews[j].CreatedAt)
		}
		return previews[i].ID > previews[j].ID
	})
	return previews, nil
}

// DeleteConversation removes a conversation.
func (m *MockStore) DeleteConversation(ctx context.Context, userID string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.rows[id]
	if !ok || row.UserID != userID {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}

func copyTurns(turns []conversation.Turn) []conversation.Turn {
	out := make([]conversation.Turn, len(turns))
	copy(out, turns)
	return out
}

// Ensure MockStore implements Store interface
var _ Store = (*MockStore)(nil)
