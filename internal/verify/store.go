package verify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MemoryStore keeps records in a mutex-guarded map for the lifetime of the
// process. Entries self-expire logically and are deleted on touch; there is
// no background sweep.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Get(_ context.Context, email string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[email]
	if !ok {
		return nil, nil
	}
	copied := rec
	return &copied, nil
}

func (s *MemoryStore) Put(_ context.Context, email string, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[email] = *rec
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, email)
	return nil
}

// RedisStore persists records as JSON with a TTL covering the rate-limit
// window, so abandoned entries are reaped by Redis itself.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "otp:"}
}

func (s *RedisStore) Get(ctx context.Context, email string) (*Record, error) {
	raw, err := s.client.Get(ctx, s.prefix+email).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *RedisStore) Put(ctx context.Context, email string, rec *Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	// TTL outlives the code itself so the request counter survives until the
	// rate window closes.
	ttl := requestWindow
	if until := time.Until(rec.ExpiresAt); until > ttl {
		ttl = until
	}
	return s.client.Set(ctx, s.prefix+email, raw, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, email string) error {
	return s.client.Del(ctx, s.prefix+email).Err()
}
