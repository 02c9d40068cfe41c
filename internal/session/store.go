package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shrimpsizemoose/gradebook/internal/models"
)

var ErrNoSession = errors.New("no session")

const defaultKeyTemplate = "session:%s" // session:${sid}

// Store keeps server-side session state keyed by session id.
type Store interface {
	Save(ctx context.Context, sid string, state models.SessionState, ttl time.Duration) error
	Load(ctx context.Context, sid string) (*models.SessionState, error)
	Delete(ctx context.Context, sid string) error
}

type RedisStore struct {
	redis       *redis.Client
	keyTemplate string
}

func NewRedisStore(client *redis.Client, keyTemplate string) *RedisStore {
	if keyTemplate == "" {
		keyTemplate = defaultKeyTemplate
	}
	return &RedisStore{redis: client, keyTemplate: keyTemplate}
}

// ConnectRedis parses url and checks the server answers.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (s *RedisStore) key(sid string) string {
	return fmt.Sprintf(s.keyTemplate, sid)
}

func (s *RedisStore) Save(ctx context.Context, sid string, state models.SessionState, ttl time.Duration) error {
	key := s.key(sid)

	pipe := s.redis.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"user_id":  state.UserID,
		"username": state.Username,
		"email":    state.Email,
	})
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, sid string) (*models.SessionState, error) {
	cmd := s.redis.HGetAll(ctx, s.key(sid))
	values, err := cmd.Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if len(values) == 0 {
		return nil, ErrNoSession
	}

	var state models.SessionState
	if err := cmd.Scan(&state); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &state, nil
}

func (s *RedisStore) Delete(ctx context.Context, sid string) error {
	if err := s.redis.Del(ctx, s.key(sid)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}

type memoryEntry struct {
	state     models.SessionState
	expiresAt time.Time
}

// MemoryStore is the single-process session store used when no redis is
// configured.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]memoryEntry), now: time.Now}
}

// Save also drops every expired session, so abandoned ones do not pile up.
func (s *MemoryStore) Save(_ context.Context, sid string, state models.SessionState, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.purgeExpired(now)
	s.sessions[sid] = memoryEntry{state: state, expiresAt: now.Add(ttl)}
	return nil
}

func (s *MemoryStore) purgeExpired(now time.Time) {
	for sid, entry := range s.sessions {
		if !now.Before(entry.expiresAt) {
			delete(s.sessions, sid)
		}
	}
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *MemoryStore) Load(_ context.Context, sid string) (*models.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[sid]
	if !ok {
		return nil, ErrNoSession
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.sessions, sid)
		return nil, ErrNoSession
	}
	state := entry.state
	return &state, nil
}

func (s *MemoryStore) Delete(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sid)
	return nil
}
