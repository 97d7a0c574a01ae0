package identity

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const sessionKeyPrefix = "educorp:session:"

type RedisSessionStore struct {
	Client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{Client: client}
}

func (s *RedisSessionStore) Save(ctx context.Context, sessionID, accountID string, ttl time.Duration) error {
	return s.Client.Set(ctx, sessionKeyPrefix+sessionID, accountID, ttl).Err()
}

func (s *RedisSessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.Client.Exists(ctx, sessionKeyPrefix+sessionID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.Client.Del(ctx, sessionKeyPrefix+sessionID).Err()
}

type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	now      func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]time.Time), now: time.Now}
}

func (s *MemorySessionStore) Save(ctx context.Context, sessionID, accountID string, ttl time.Duration) error {
	s.mu.Lock()
	s.sessions[sessionID] = s.now().Add(ttl)
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.sessions[sessionID]
	if !ok {
		return false, nil
	}
	if s.now().After(exp) {
		delete(s.sessions, sessionID)
		return false, nil
	}
	return true, nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// Len reports how many sessions are tracked, expired ones included.
func (s *MemorySessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
