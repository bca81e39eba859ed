// Package cache wraps Redis with versioned JSON and blob helpers.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// New creates a new Redis client.
func New(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("platform/cache: ping: %w", err)
	}

	return client, nil
}

// Store namespaces keys and tracks a version counter per namespace so a
// single Bump invalidates every cached entry of that namespace.
type Store struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

// NewStore returns a Store. A nil client disables caching.
func NewStore(client *redis.Client, namespace string, ttl time.Duration) *Store {
	return &Store{client: client, namespace: namespace, ttl: ttl}
}

func (s *Store) versionKey() string {
	return s.namespace + ":version"
}

// Version returns the namespace version, initialising it when missing.
func (s *Store) Version(ctx context.Context) (int64, error) {
	if s == nil || s.client == nil {
		return 0, nil
	}
	ver, err := s.client.Get(ctx, s.versionKey()).Int64()
	if errors.Is(err, redis.Nil) {
		if err := s.client.SetNX(ctx, s.versionKey(), 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Key composes a versioned key from parts.
func (s *Store) Key(ctx context.Context, parts ...string) (string, error) {
	joined := strings.Join(parts, ":")
	if s == nil || s.client == nil {
		return joined, nil
	}
	ver, err := s.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s:v%d", s.namespace, joined, ver), nil
}

// FetchJSON loads key into dest or fills it from loader and caches the result.
func (s *Store) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("platform/cache: loader required")
	}
	if s != nil && s.client != nil {
		payload, err := s.client.Get(ctx, key).Bytes()
		if err == nil {
			return json.Unmarshal(payload, dest)
		}
		if !errors.Is(err, redis.Nil) {
			return err
		}
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if s != nil && s.client != nil {
		if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
			return err
		}
	}
	return json.Unmarshal(raw, dest)
}

// GetBytes returns a cached blob; ok is false on a miss.
func (s *Store) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil || s.client == nil {
		return nil, false, nil
	}
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// SetBytes stores a blob with the store TTL.
func (s *Store) SetBytes(ctx context.Context, key string, data []byte) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Set(ctx, key, data, s.ttl).Err()
}

// Bump invalidates every versioned key in the namespace.
func (s *Store) Bump(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Incr(ctx, s.versionKey()).Err()
}
