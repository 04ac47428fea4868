package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTokenUnknown indicates the presented token is expired or was never issued.
var ErrTokenUnknown = errors.New("auth: token unknown")

// TokenStore keeps issued bearer tokens in Redis with a TTL. Tokens map to
// the user id they were issued for; the user record itself always comes from
// the record store so revocations and erasure take effect immediately.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

// Issue mints a new opaque token for the user and stores it with the
// configured TTL.
func (ts *TokenStore) Issue(ctx context.Context, userID string) (string, time.Time, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", time.Time{}, fmt.Errorf("auth: generate token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	expiresAt := time.Now().UTC().Add(ts.ttl)
	if err := ts.client.Set(ctx, ts.key(token), userID, ts.ttl).Err(); err != nil {
		return "", time.Time{}, fmt.Errorf("auth: store token: %w", err)
	}
	return token, expiresAt, nil
}

// Resolve returns the user id a token was issued for.
func (ts *TokenStore) Resolve(ctx context.Context, token string) (string, error) {
	userID, err := ts.client.Get(ctx, ts.key(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrTokenUnknown
		}
		return "", fmt.Errorf("auth: resolve token: %w", err)
	}
	return userID, nil
}

// Revoke drops a token.
func (ts *TokenStore) Revoke(ctx context.Context, token string) error {
	if err := ts.client.Del(ctx, ts.key(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("auth: revoke token: %w", err)
	}
	return nil
}

// TTL exposes the configured token lifetime.
func (ts *TokenStore) TTL() time.Duration {
	return ts.ttl
}

func (ts *TokenStore) key(token string) string {
	return "meridian:token:" + token
}
