// Package history persists chat sessions and their message history.
//
// The agent itself is stateless across requests; the HTTP service loads
// the recent messages of a session from a Store before each run and
// appends the user message and final answer to it.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/mfateev/tradvisor-agent/internal/models"
)

// ErrSessionNotFound is returned for operations on an unknown session.
var ErrSessionNotFound = errors.New("session not found")

// DefaultRecentLimit is how many prior messages are replayed as history.
const DefaultRecentLimit = 20

// Session is a titled conversation.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one stored chat message.
type Message struct {
	ID        string      `json:"id"`
	SessionID string      `json:"session_id"`
	Role      models.Role `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// Store is the interface for session persistence.
//
// This interface supports multiple implementations:
//   - InMemoryStore: process-local storage (default for the CLI and tests)
//   - SQLiteStore: durable storage for the HTTP service
type Store interface {
	// CreateSession starts a new session with the given title.
	CreateSession(ctx context.Context, title string) (Session, error)

	// GetSession returns ErrSessionNotFound for unknown ids.
	GetSession(ctx context.Context, id string) (Session, error)

	// ListSessions returns sessions, most recently updated first.
	ListSessions(ctx context.Context) ([]Session, error)

	// UpdateTitle renames a session.
	UpdateTitle(ctx context.Context, id, title string) error

	// DeleteSession removes a session and all of its messages.
	DeleteSession(ctx context.Context, id string) error

	// AppendMessage adds a message and bumps the session's UpdatedAt.
	AppendMessage(ctx context.Context, sessionID string, role models.Role, content string) (Message, error)

	// RecentMessages returns up to limit of the newest messages, oldest
	// first. A non-positive limit returns every message.
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]Message, error)

	Close() error
}

// ToHistory converts stored messages to the agent's history shape.
func ToHistory(msgs []Message) []models.HistoryMessage {
	out := make([]models.HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, models.HistoryMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

// TitleFromMessage derives a session title from its first message.
func TitleFromMessage(message string, limit int) string {
	runes := []rune(message)
	if limit <= 0 || len(runes) <= limit {
		return message
	}
	return string(runes[:limit]) + "..."
}
