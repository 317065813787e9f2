package translate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store holds finished translations keyed by (text, from, to).
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Clear(ctx context.Context) error
	Len(ctx context.Context) (int, error)
}

// cacheKey quotes both language codes so no text or code can run into
// its neighbour.
func cacheKey(text, from, to string) string {
	return fmt.Sprintf("%q:%q:%s", from, to, text)
}

// MemoryStore is an in-process map. With a positive capacity the oldest
// insertion is evicted first.
type MemoryStore struct {
	mu       sync.Mutex
	capacity int
	data     map[string]string
	order    []string
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(capacity int) *MemoryStore {
	return &MemoryStore{capacity: capacity, data: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; !exists {
		s.order = append(s.order, key)
	}
	s.data[key] = value
	for s.capacity > 0 && len(s.order) > s.capacity {
		delete(s.data, s.order[0])
		s.order = s.order[1:]
	}
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]string)
	s.order = nil
	return nil
}

func (s *MemoryStore) Len(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data), nil
}

// RedisStore shares translations across processes. Entries expire after
// ttl when it is positive.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get translation: %w", err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set translation: %w", err)
	}
	return nil
}

// Clear deletes every key under the prefix.
func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 500).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 500 {
			if err := s.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("failed to clear translations: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan translations: %w", err)
	}
	if len(batch) > 0 {
		if err := s.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("failed to clear translations: %w", err)
		}
	}
	return nil
}

func (s *RedisStore) Len(ctx context.Context) (int, error) {
	n := 0
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to scan translations: %w", err)
	}
	return n, nil
}
