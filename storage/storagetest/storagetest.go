// Package storagetest holds behaviour tests every storage.Store must pass.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasperbot/jasper/storage"
)

// Run exercises a fresh store from newStore in each subtest.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	ctx := context.Background()
	now := time.Date(2017, 8, 1, 12, 0, 0, 0, time.UTC)

	add := func(t *testing.T, s storage.Store, user string, at time.Time) *storage.Reminder {
		r := &storage.Reminder{ChannelID: "100", UserID: user, RemindAt: at, Text: "clean the house"}
		require.NoError(t, s.Add(ctx, r))
		return r
	}

	t.Run("empty", func(t *testing.T) {
		s := newStore(t)
		future, err := s.Future(ctx, now)
		require.NoError(t, err)
		assert.Empty(t, future)
	})

	t.Run("add assigns id", func(t *testing.T) {
		s := newStore(t)
		r := add(t, s, "u1", now.Add(time.Hour))
		assert.NotEmpty(t, r.ID)
		assert.False(t, r.CreatedAt.IsZero())
		assert.True(t, r.Active)
	})

	t.Run("future and due", func(t *testing.T) {
		s := newStore(t)
		later := add(t, s, "u1", now.Add(2*time.Hour))
		soon := add(t, s, "u1", now.Add(time.Hour))
		past := add(t, s, "u2", now.Add(-time.Hour))

		future, err := s.Future(ctx, now)
		require.NoError(t, err)
		require.Len(t, future, 2)
		assert.Equal(t, soon.ID, future[0].ID)
		assert.Equal(t, later.ID, future[1].ID)

		due, err := s.Due(ctx, now)
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, past.ID, due[0].ID)
		assert.Equal(t, "clean the house", due[0].Text)
		assert.True(t, due[0].RemindAt.Equal(past.RemindAt))
	})

	t.Run("deactivate", func(t *testing.T) {
		s := newStore(t)
		past := add(t, s, "u1", now.Add(-time.Minute))

		require.NoError(t, s.Deactivate(ctx, past.ID))
		due, err := s.Due(ctx, now)
		require.NoError(t, err)
		assert.Empty(t, due)

		assert.ErrorIs(t, s.Deactivate(ctx, "missing"), storage.ErrNotFound)
	})

	t.Run("by user", func(t *testing.T) {
		s := newStore(t)
		add(t, s, "u1", now.Add(time.Hour))
		add(t, s, "u2", now.Add(time.Hour))
		add(t, s, "u1", now.Add(-time.Hour))

		mine, err := s.ByUser(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, mine, 2)
		for _, r := range mine {
			assert.Equal(t, "u1", r.UserID)
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		r := add(t, s, "u1", now.Add(time.Hour))

		require.NoError(t, s.Delete(ctx, r.ID))
		require.NoError(t, s.Delete(ctx, r.ID))

		mine, err := s.ByUser(ctx, "u1")
		require.NoError(t, err)
		assert.Empty(t, mine)
	})
}
