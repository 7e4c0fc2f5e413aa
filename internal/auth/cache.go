package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenCache stores verified identities by token digest.
type TokenCache interface {
	Get(ctx context.Context, key string) (Identity, bool, error)
	Set(ctx context.Context, key string, id Identity, ttl time.Duration) error
}

// CachedVerifier remembers successful verifications for at most TTL and never
// past the token's own expiry. Failures are not cached. Cache errors fall back
// to the wrapped verifier.
type CachedVerifier struct {
	next  Verifier
	cache TokenCache
	ttl   time.Duration
	now   func() time.Time
}

func NewCachedVerifier(next Verifier, cache TokenCache, ttl time.Duration) *CachedVerifier {
	return &CachedVerifier{next: next, cache: cache, ttl: ttl, now: time.Now}
}

func (c *CachedVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	key := tokenKey(token)
	now := c.now()

	id, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		log.Printf("auth cache get failed: %v", err)
	}
	if ok && (id.ExpiresAt.IsZero() || now.Before(id.ExpiresAt)) {
		return id, nil
	}

	id, err = c.next.Verify(ctx, token)
	if err != nil {
		return Identity{}, err
	}

	ttl := c.ttl
	if !id.ExpiresAt.IsZero() {
		if left := id.ExpiresAt.Sub(now); left < ttl {
			ttl = left
		}
	}
	if ttl > 0 {
		if err := c.cache.Set(ctx, key, id, ttl); err != nil {
			log.Printf("auth cache set failed: %v", err)
		}
	}
	return id, nil
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

type RedisTokenCache struct {
	client *redis.Client
	prefix string
}

func NewRedisTokenCache(client *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{client: client, prefix: "auth:token:"}
}

func (r *RedisTokenCache) Get(ctx context.Context, key string) (Identity, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Identity{}, false, nil
	}
	if err != nil {
		return Identity{}, false, fmt.Errorf("redis get: %w", err)
	}
	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return Identity{}, false, fmt.Errorf("decode cached identity: %w", err)
	}
	return id, true, nil
}

func (r *RedisTokenCache) Set(ctx context.Context, key string, id Identity, ttl time.Duration) error {
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	return r.client.Set(ctx, r.prefix+key, data, ttl).Err()
}
