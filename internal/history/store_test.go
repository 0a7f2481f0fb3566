package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfateev/tradvisor-agent/internal/models"
)

// tickingClock returns a clock that advances one second per call.
func tickingClock() func() time.Time {
	t := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

type storeFactory func(t *testing.T) Store

func storeFactories() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) Store {
			s := NewInMemoryStore()
			s.now = tickingClock()
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "chat.db"))
			require.NoError(t, err)
			s.now = tickingClock()
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

// forEachStore runs the same contract against every implementation.
func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			fn(t, factory(t))
		})
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		sess, err := s.CreateSession(ctx, "Analyze NVDA")
		require.NoError(t, err)
		assert.NotEmpty(t, sess.ID)

		got, err := s.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, "Analyze NVDA", got.Title)
		assert.True(t, got.CreatedAt.Equal(sess.CreatedAt))

		_, err = s.GetSession(ctx, "missing")
		assert.True(t, errors.Is(err, ErrSessionNotFound))
	})
}

func TestStore_RecentMessagesOldestFirst(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		sess, err := s.CreateSession(ctx, "t")
		require.NoError(t, err)

		for i := 0; i < 25; i++ {
			role := models.RoleUser
			if i%2 == 1 {
				role = models.RoleAssistant
			}
			_, err := s.AppendMessage(ctx, sess.ID, role, fmt.Sprintf("m%d", i))
			require.NoError(t, err)
		}

		recent, err := s.RecentMessages(ctx, sess.ID, DefaultRecentLimit)
		require.NoError(t, err)
		require.Len(t, recent, 20)
		assert.Equal(t, "m5", recent[0].Content)
		assert.Equal(t, "m24", recent[19].Content)
		assert.Equal(t, models.RoleAssistant, recent[0].Role)

		all, err := s.RecentMessages(ctx, sess.ID, 0)
		require.NoError(t, err)
		assert.Len(t, all, 25)

		history := ToHistory(recent[:2])
		assert.Equal(t, []models.HistoryMessage{
			{Role: models.RoleAssistant, Content: "m5"},
			{Role: models.RoleUser, Content: "m6"},
		}, history)
	})
}

func TestStore_ListOrderAndUpdates(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		first, err := s.CreateSession(ctx, "first")
		require.NoError(t, err)
		second, err := s.CreateSession(ctx, "second")
		require.NoError(t, err)

		list, err := s.ListSessions(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID)

		// Appending bumps the first session to the top.
		_, err = s.AppendMessage(ctx, first.ID, models.RoleUser, "hello")
		require.NoError(t, err)
		require.NoError(t, s.UpdateTitle(ctx, first.ID, "renamed"))

		list, err = s.ListSessions(ctx)
		require.NoError(t, err)
		assert.Equal(t, first.ID, list[0].ID)
		assert.Equal(t, "renamed", list[0].Title)

		assert.ErrorIs(t, s.UpdateTitle(ctx, "missing", "x"), ErrSessionNotFound)
	})
}

func TestStore_DeleteRemovesMessages(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		sess, err := s.CreateSession(ctx, "t")
		require.NoError(t, err)
		_, err = s.AppendMessage(ctx, sess.ID, models.RoleUser, "hi")
		require.NoError(t, err)

		require.NoError(t, s.DeleteSession(ctx, sess.ID))

		_, err = s.RecentMessages(ctx, sess.ID, 10)
		assert.ErrorIs(t, err, ErrSessionNotFound)
		_, err = s.AppendMessage(ctx, sess.ID, models.RoleUser, "again")
		assert.ErrorIs(t, err, ErrSessionNotFound)
		assert.ErrorIs(t, s.DeleteSession(ctx, sess.ID), ErrSessionNotFound)

		list, err := s.ListSessions(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "chat.db")

	s, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	sess, err := s.CreateSession(ctx, "durable")
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, sess.ID, models.RoleUser, "remember me")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	msgs, err := s.RecentMessages(ctx, sess.ID, 20)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "remember me", msgs[0].Content)
}

func TestTitleFromMessage(t *testing.T) {
	assert.Equal(t, "short", TitleFromMessage("short", 50))
	long := "What is the intrinsic value of NVIDIA given its latest 10-K filing?"
	title := TitleFromMessage(long, 50)
	assert.Equal(t, long[:50]+"...", title)
}
