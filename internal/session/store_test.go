package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/gradebook/internal/models"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, ""), mr
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	state := models.SessionState{UserID: 42, Username: "pushpita", Email: "p@example.com"}

	t.Run("save and load", func(t *testing.T) {
		s, mr := newRedisStore(t)

		require.NoError(t, s.Save(ctx, "abc", state, time.Hour))
		assert.True(t, mr.Exists("session:abc"))
		assert.Equal(t, "pushpita", mr.HGet("session:abc", "username"))
		assert.Equal(t, time.Hour, mr.TTL("session:abc"))

		loaded, err := s.Load(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, state, *loaded)
	})

	t.Run("missing session", func(t *testing.T) {
		s, _ := newRedisStore(t)

		_, err := s.Load(ctx, "nope")
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("expired session", func(t *testing.T) {
		s, mr := newRedisStore(t)

		require.NoError(t, s.Save(ctx, "abc", state, time.Minute))
		mr.FastForward(2 * time.Minute)

		_, err := s.Load(ctx, "abc")
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("delete", func(t *testing.T) {
		s, mr := newRedisStore(t)

		require.NoError(t, s.Save(ctx, "abc", state, time.Hour))
		require.NoError(t, s.Delete(ctx, "abc"))
		assert.False(t, mr.Exists("session:abc"))
	})

	t.Run("custom key template", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()
		s := NewRedisStore(client, "gradebook:sess:%s")

		require.NoError(t, s.Save(ctx, "abc", state, time.Hour))
		assert.True(t, mr.Exists("gradebook:sess:abc"))
	})

	t.Run("server gone", func(t *testing.T) {
		s, mr := newRedisStore(t)
		mr.Close()

		_, err := s.Load(ctx, "abc")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoSession)
	})
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	state := models.SessionState{UserID: 1, Username: "admin"}

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(ctx, "abc", state, time.Minute))

	loaded, err := s.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, state, *loaded)

	now = now.Add(time.Minute)
	_, err = s.Load(ctx, "abc")
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, s.Save(ctx, "def", state, time.Minute))
	require.NoError(t, s.Delete(ctx, "def"))
	_, err = s.Load(ctx, "def")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestMemoryStoreEvictsAbandonedSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	for i := 0; i < 1000; i++ {
		require.NoError(t, s.Save(ctx, fmt.Sprintf("sid-%d", i), models.SessionState{UserID: int64(i)}, time.Second))
	}
	require.NoError(t, s.Save(ctx, "long", models.SessionState{UserID: 1}, 2*time.Hour))
	assert.Equal(t, 1001, s.Len())

	now = now.Add(time.Hour)
	require.NoError(t, s.Save(ctx, "fresh", models.SessionState{UserID: 2}, time.Hour))
	assert.Equal(t, 2, s.Len())

	_, err := s.Load(ctx, "long")
	assert.NoError(t, err)
}
