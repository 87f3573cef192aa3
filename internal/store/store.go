// ABOUTME: Store interface and data types for saved conversations
// ABOUTME: Defines Conversation, Preview and the operations history commands rely on

package store

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/2389/bloop-answer/internal/conversation"
)

// ErrNotFound is returned when a requested conversation does not exist or
// belongs to another user.
var ErrNotFound = errors.New("conversation not found")

// ErrNoTitle is returned when saving a conversation without any user turn.
var ErrNoTitle = errors.New("couldn't find conversation title")

// Conversation is one saved conversation. ID is assigned by the store and
// changes on every save; ThreadID is stable for the conversation's lifetime.
type Conversation struct {
	ID        int64               `json:"id" yaml:"id"`
	ThreadID  string              `json:"thread_id" yaml:"thread_id"`
	UserID    string              `json:"user_id" yaml:"user_id"`
	Title     string              `json:"title" yaml:"title"`
	Turns     []conversation.Turn `json:"turns" yaml:"turns"`
	CreatedAt time.Time           `json:"created_at" yaml:"created_at"`
}

// Compressed returns the turns with every snippet's code cut to its first
// line, for listings where full bodies are noise.
func (c *Conversation) Compressed() []conversation.Turn {
	out := make([]conversation.Turn, len(c.Turns))
	for i, t := range c.Turns {
		if len(t.Snippets) > 0 {
			snippets := slices.Clone(t.Snippets)
			for j := range snippets {
				snippets[j].Code, _, _ = strings.Cut(snippets[j].Code, "\n")
			}
			t.Snippets = snippets
		}
		out[i] = t
	}
	return out
}

// Preview is a history listing row.
type Preview struct {
	ID        int64     `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Title     string    `json:"title" yaml:"title"`
}

// Store defines conversation persistence. All operations are scoped to a
// user; one user never sees another's conversations.
type Store interface {
	// SaveConversation replaces the user's stored copy of c.ThreadID with c.
	// It fills in c.ID, c.Title and c.CreatedAt.
	SaveConversation(ctx context.Context, c *Conversation) error
	LoadConversation(ctx context.Context, userID string, id int64) (*Conversation, error)
	// ListConversations returns previews newest first.
	ListConversations(ctx context.Context, userID string) ([]Preview, error)
	DeleteConversation(ctx context.Context, userID string, id int64) error
	Close() error
}

// recorder adapts a Store to conversation.Recorder.
type recorder struct {
	s Store
}

// NewRecorder returns a conversation.Recorder that saves through s.
func NewRecorder(s Store) conversation.Recorder {
	return recorder{s: s}
}

func (r recorder) Record(ctx context.Context, userID, threadID string, turns []conversation.Turn) error {
	return r.s.SaveConversation(ctx, &Conversation{
		ThreadID: threadID,
		UserID:   userID,
		Turns:    turns,
	})
}

// titleOf derives the history title from the first user turn.
func titleOf(turns []conversation.Turn) (string, error) {
	title, ok := conversation.Title(turns)
	if !ok {
		return "", ErrNoTitle
	}
	return title, nil
}
