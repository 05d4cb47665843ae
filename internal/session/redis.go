package session

import (
	"context"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces session keys in Redis.
const keyPrefix = "session:"

// RedisStore implements Store on Redis. Ledgers are CBOR-encoded; liveness
// is key existence, so expiry is enforced by Redis TTL alone.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore with the given session lifetime.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func key(id string) string { return keyPrefix + id }

// Get retrieves a session's ledger.
func (s *RedisStore) Get(ctx context.Context, id string) (*Ledger, error) {
	data, err := s.client.Get(ctx, key(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}
	var l Ledger
	if err := cbor.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("session decode: %w", err)
	}
	return &l, nil
}

// Save writes a ledger back, preserving the key's remaining TTL.
func (s *RedisStore) Save(ctx context.Context, id string, l *Ledger) error {
	data, err := cbor.Marshal(l)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	// XX: only overwrite an existing (still live) session.
	set, err := s.client.SetArgs(ctx, key(id), data, redis.SetArgs{
		Mode:    "XX",
		KeepTTL: true,
	}).Result()
	if err == redis.Nil || set == "" {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	return nil
}

// Create stores a fresh ledger with the configured lifetime.
func (s *RedisStore) Create(ctx context.Context, id string, l *Ledger) error {
	data, err := cbor.Marshal(l)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	if err := s.client.Set(ctx, key(id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session create: %w", err)
	}
	return nil
}

// Valid reports whether the session key still exists.
func (s *RedisStore) Valid(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("session exists: %w", err)
	}
	return n > 0, nil
}
