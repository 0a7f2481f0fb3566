package history

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mfateev/tradvisor-agent/internal/models"
)

type memorySession struct {
	Session
	seq      int
	messages []Message
}

// InMemoryStore is a simple in-memory implementation of Store.
type InMemoryStore struct {
	sessions map[string]*memorySession
	nextSeq  int
	now      func() time.Time
	mu       sync.RWMutex
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*memorySession),
		now:      time.Now,
	}
}

func (s *InMemoryStore) CreateSession(_ context.Context, title string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	sess := &memorySession{
		Session: Session{ID: uuid.NewString(), Title: title, CreatedAt: now, UpdatedAt: now},
		seq:     s.nextSeq,
	}
	s.nextSeq++
	s.sessions[sess.ID] = sess
	return sess.Session, nil
}

func (s *InMemoryStore) GetSession(_ context.Context, id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("get %s: %w", id, ErrSessionNotFound)
	}
	return sess.Session, nil
}

func (s *InMemoryStore) ListSessions(_ context.Context) ([]Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*memorySession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].UpdatedAt.Equal(all[j].UpdatedAt) {
			return all[i].UpdatedAt.After(all[j].UpdatedAt)
		}
		return all[i].seq > all[j].seq
	})

	out := make([]Session, len(all))
	for i, sess := range all {
		out[i] = sess.Session
	}
	return out, nil
}

func (s *InMemoryStore) UpdateTitle(_ context.Context, id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("update %s: %w", id, ErrSessionNotFound)
	}
	sess.Title = title
	sess.UpdatedAt = s.now().UTC()
	return nil
}

func (s *InMemoryStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("delete %s: %w", id, ErrSessionNotFound)
	}
	delete(s.sessions, id)
	return nil
}

func (s *InMemoryStore) AppendMessage(_ context.Context, sessionID string, role models.Role, content string) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return Message{}, fmt.Errorf("append to %s: %w", sessionID, ErrSessionNotFound)
	}

	now := s.now().UTC()
	msg := Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: now,
	}
	sess.messages = append(sess.messages, msg)
	sess.UpdatedAt = now
	return msg, nil
}

func (s *InMemoryStore) RecentMessages(_ context.Context, sessionID string, limit int) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("messages of %s: %w", sessionID, ErrSessionNotFound)
	}

	msgs := sess.messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	result := make([]Message, len(msgs))
	copy(result, msgs)
	return result, nil
}

func (s *InMemoryStore) Close() error { return nil }
