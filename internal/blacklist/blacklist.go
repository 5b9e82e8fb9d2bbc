// Package blacklist tracks revoked access tokens in Redis. Logout adds a
// token for its remaining lifetime; the authority consults the list before
// resolving an identity from a token.
package blacklist

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	client *redis.Client
	prefix string
}

// New creates a blacklist store. A nil client disables blacklisting: Add is
// a no-op and Contains always reports false.
func New(client *redis.Client) *Store {
	return &Store{client: client, prefix: "blacklist:access:"}
}

func (s *Store) Add(ctx context.Context, token string, ttl time.Duration) error {
	if s.client == nil || ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.prefix+token, "1", ttl).Err()
}

func (s *Store) Contains(ctx context.Context, token string) (bool, error) {
	if s.client == nil {
		return false, nil
	}
	n, err := s.client.Exists(ctx, s.prefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
