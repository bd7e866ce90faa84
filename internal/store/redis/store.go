package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/gosuda/garagedesk/internal/session"
)

// DefaultPrefix namespaces session keys when no prefix is configured.
const DefaultPrefix = "garagedesk:session"

// Store implements session.Store on a Redis instance, letting several client
// processes on one machine (or a kiosk fleet) share a session.
type Store struct {
	client *redis.Client
	prefix string
}

var _ session.Store = (*Store)(nil)

func New(ctx context.Context, addr, password string, db int, prefix string) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	if prefix == "" {
		prefix = DefaultPrefix
	}

	return &Store{client: client, prefix: prefix}, nil
}

func (s *Store) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("redis.Store.Close: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, Key(s.prefix, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", session.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis.Store.Get: %w", err)
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, Key(s.prefix, key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis.Store.Set: %w", err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, Key(s.prefix, key)).Err(); err != nil {
		return fmt.Errorf("redis.Store.Remove: %w", err)
	}
	return nil
}

// Key returns the Redis key holding a session value.
func Key(prefix, key string) string {
	return prefix + ":" + key
}
