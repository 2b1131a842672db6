// Package shortlink stores share payloads behind short random tokens so the
// invitation can travel as a compact /s/<token> URL instead of a multi-KB
// fragment link.
package shortlink

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a token is unknown or expired.
var ErrNotFound = errors.New("shortlink: not found")

const (
	keyPrefix  = "shortlink:"
	tokenBytes = 6

	// DefaultTTL keeps links alive well past a typical event date.
	DefaultTTL = 90 * 24 * time.Hour
)

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// Create stores the payload under a fresh random token. On the rare token
// collision it retries with a new token.
func (s *Store) Create(ctx context.Context, payload string) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		token, err := newToken()
		if err != nil {
			return "", err
		}
		ok, err := s.rdb.SetNX(ctx, keyPrefix+token, payload, s.ttl).Result()
		if err != nil {
			return "", fmt.Errorf("shortlink: create: %w", err)
		}
		if ok {
			return token, nil
		}
	}
	return "", errors.New("shortlink: could not allocate a token")
}

// Resolve returns the payload for a token and refreshes its TTL.
func (s *Store) Resolve(ctx context.Context, token string) (string, error) {
	payload, err := s.rdb.Get(ctx, keyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("shortlink: resolve: %w", err)
	}
	// Refresh so actively shared links do not expire mid-event.
	s.rdb.Expire(ctx, keyPrefix+token, s.ttl)
	return payload, nil
}

// Delete removes a token, for when the owner revokes a share.
func (s *Store) Delete(ctx context.Context, token string) error {
	if err := s.rdb.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("shortlink: delete: %w", err)
	}
	return nil
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("shortlink: token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
