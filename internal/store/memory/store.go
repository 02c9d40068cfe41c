// Package memory is the process-lifetime user tier used while the relational
// store is unreachable. Its contents are lost on restart.
package memory

import (
	"context"
	"sync"

	"github.com/shrimpsizemoose/gradebook/internal/models"
	"github.com/shrimpsizemoose/gradebook/internal/store"
)

// firstID keeps fallback ids apart from relational sequence values.
const firstID int64 = 1_000_000

type UserStore struct {
	mu     sync.RWMutex
	users  map[string]models.User
	nextID int64
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]models.User), nextID: firstID}
}

func (s *UserStore) FindUser(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[username]; ok {
		return &user, nil
	}
	return nil, store.ErrNotFound
}

// CreateUser inserts user and assigns its ID. The existence check and the
// insert happen under one lock.
func (s *UserStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Username]; ok {
		return store.ErrUsernameTaken
	}
	user.ID = s.nextID
	s.nextID++
	s.users[user.Username] = *user
	return nil
}

func (s *UserStore) UpdateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[user.Username]
	if !ok {
		return store.ErrNotFound
	}
	existing.FullName = user.FullName
	if user.PasswordHash != "" {
		existing.PasswordHash = user.PasswordHash
	}
	s.users[user.Username] = existing
	return nil
}

func (s *UserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
