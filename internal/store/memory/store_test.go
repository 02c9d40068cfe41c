package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/gradebook/internal/models"
	"github.com/shrimpsizemoose/gradebook/internal/store"
)

func TestCreateAndFindUser(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()

	user := &models.User{Username: "carol", Email: "c@x.com", PasswordHash: "hash"}

	t.Run("create user", func(t *testing.T) {
		require.NoError(t, s.CreateUser(ctx, user))
		assert.Equal(t, firstID, user.ID)
	})

	t.Run("find user", func(t *testing.T) {
		got, err := s.FindUser(ctx, "carol")
		require.NoError(t, err)
		assert.Equal(t, *user, *got)
	})

	t.Run("duplicate username", func(t *testing.T) {
		err := s.CreateUser(ctx, &models.User{Username: "carol", PasswordHash: "other"})
		assert.ErrorIs(t, err, store.ErrUsernameTaken)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := s.FindUser(ctx, "nobody")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestFindUserReturnsCopy(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, &models.User{Username: "carol", PasswordHash: "hash"}))

	got, err := s.FindUser(ctx, "carol")
	require.NoError(t, err)
	got.PasswordHash = "mutated"

	again, err := s.FindUser(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, "hash", again.PasswordHash)
}

func TestUpdateUser(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, &models.User{Username: "carol", Email: "c@x.com", PasswordHash: "old"}))

	t.Run("update existing", func(t *testing.T) {
		err := s.UpdateUser(ctx, &models.User{Username: "carol", FullName: "Carol C", PasswordHash: "new", Email: "ignored"})
		require.NoError(t, err)

		got, err := s.FindUser(ctx, "carol")
		require.NoError(t, err)
		assert.Equal(t, "Carol C", got.FullName)
		assert.Equal(t, "new", got.PasswordHash)
		assert.Equal(t, "c@x.com", got.Email)
	})

	t.Run("empty hash keeps password", func(t *testing.T) {
		require.NoError(t, s.UpdateUser(ctx, &models.User{Username: "carol", FullName: "Carol D"}))

		got, err := s.FindUser(ctx, "carol")
		require.NoError(t, err)
		assert.Equal(t, "Carol D", got.FullName)
		assert.Equal(t, "new", got.PasswordHash)
	})

	t.Run("update missing", func(t *testing.T) {
		err := s.UpdateUser(ctx, &models.User{Username: "nobody"})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestConcurrentSignupsSameUsername(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results <- s.CreateUser(ctx, &models.User{Username: "race", PasswordHash: fmt.Sprint(i)})
		}(i)
	}
	wg.Wait()
	close(results)

	created := 0
	for err := range results {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, store.ErrUsernameTaken)
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, s.Len())
}
