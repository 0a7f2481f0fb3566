// Package models contains the shared types of the research agent: plans,
// step activities, conversation history and the error taxonomy.
package models

import "strings"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the roles the remote API accepts.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	default:
		return false
	}
}

// HistoryMessage is one prior message of a conversation, as handed to the
// agent by its caller.
type HistoryMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SanitizeHistory returns the messages that are safe to send upstream:
// plain text with a known role. Empty or whitespace-only messages and
// messages with unknown roles are dropped; order is preserved.
func SanitizeHistory(history []HistoryMessage) []HistoryMessage {
	out := make([]HistoryMessage, 0, len(history))
	for _, msg := range history {
		if !msg.Role.Valid() {
			continue
		}
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		out = append(out, msg)
	}
	return out
}

// TokenUsage tracks token consumption reported by the remote service.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
	CachedTokens     int `json:"cached_tokens"`
}
