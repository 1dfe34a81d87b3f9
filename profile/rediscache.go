package profile

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport failures talking to the cache.
var ErrRedisUnavailable = errors.New("redis unavailable")

// notFoundSentinel is cached on a miss so repeated first-login lookups
// do not hammer the inner store. Kept short-lived; the complete-profile
// flow invalidates it explicitly on Upsert.
const notFoundSentinel = "__absent__"

// Cache is a read-through Redis cache over an inner [Store]. Writes go
// through to the inner store and invalidate the cached entry.
//
// Key layout: <prefix>:profile:<userID>.
type Cache struct {
	rdb         *redis.Client
	inner       Store
	prefix      string
	ttl         time.Duration
	negativeTTL time.Duration
	jitter      time.Duration
}

// CacheConfig configures [NewCache].
type CacheConfig struct {
	// Prefix namespaces cache keys. Defaults to "authstate".
	Prefix string
	// TTL bounds staleness of cached rows. Defaults to 5 minutes.
	TTL time.Duration
	// NegativeTTL bounds caching of not-found answers. Defaults to 30s.
	NegativeTTL time.Duration
	// Jitter, when positive, is added randomly to TTLs so a burst of
	// fills does not expire in the same instant.
	Jitter time.Duration
}

// NewCache wraps inner with a Redis read-through cache.
func NewCache(rdb *redis.Client, inner Store, cfg CacheConfig) (*Cache, error) {
	if rdb == nil {
		return nil, errors.New("redis client required")
	}
	if inner == nil {
		return nil, errors.New("inner store required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "authstate"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.NegativeTTL <= 0 {
		cfg.NegativeTTL = 30 * time.Second
	}
	if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}

	return &Cache{
		rdb:         rdb,
		inner:       inner,
		prefix:      cfg.Prefix,
		ttl:         cfg.TTL,
		negativeTTL: cfg.NegativeTTL,
		jitter:      cfg.Jitter,
	}, nil
}

func (c *Cache) key(userID string) string {
	return c.prefix + ":profile:" + userID
}

func (c *Cache) ttlWithJitter(base time.Duration) time.Duration {
	if c.jitter <= 0 {
		return base
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(c.jitter)))
	if err != nil {
		return base
	}
	return base + time.Duration(n.Int64())
}

// GetByUserID returns the cached row when present, filling from the
// inner store on a miss. Cache transport failures fall through to the
// inner store rather than failing the lookup.
func (c *Cache) GetByUserID(ctx context.Context, userID string) (*Profile, error) {
	raw, err := c.rdb.Get(ctx, c.key(userID)).Result()
	switch {
	case err == nil:
		if raw == notFoundSentinel {
			return nil, ErrNotFound
		}
		var p Profile
		if jsonErr := json.Unmarshal([]byte(raw), &p); jsonErr == nil {
			return &p, nil
		}
		// Corrupt entry: drop it and refill below.
		_ = c.rdb.Del(ctx, c.key(userID)).Err()
	case errors.Is(err, redis.Nil):
		// miss
	default:
		// Cache down. Serve from the inner store.
	}

	p, err := c.inner.GetByUserID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		_ = c.rdb.Set(ctx, c.key(userID), notFoundSentinel, c.ttlWithJitter(c.negativeTTL)).Err()
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if data, jsonErr := json.Marshal(p); jsonErr == nil {
		_ = c.rdb.Set(ctx, c.key(userID), data, c.ttlWithJitter(c.ttl)).Err()
	}
	return p, nil
}

// Upsert writes through to the inner store and invalidates the cache
// entry, so the next read observes the new row (first reads after
// profile completion must not see the negative sentinel).
func (c *Cache) Upsert(ctx context.Context, p *Profile) error {
	if err := c.inner.Upsert(ctx, p); err != nil {
		return err
	}
	return c.invalidate(ctx, p.UserID)
}

// Update applies a partial update through the inner store and
// invalidates the cache entry.
func (c *Cache) Update(ctx context.Context, userID string, ch Changes) error {
	if err := c.inner.Update(ctx, userID, ch); err != nil {
		return err
	}
	return c.invalidate(ctx, userID)
}

// Invalidate drops the cached entry for userID. Exposed for flows that
// mutate profiles outside this process and want an immediate refresh.
func (c *Cache) Invalidate(ctx context.Context, userID string) error {
	return c.invalidate(ctx, userID)
}

func (c *Cache) invalidate(ctx context.Context, userID string) error {
	if err := c.rdb.Del(ctx, c.key(userID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return errors.Join(ErrRedisUnavailable, err)
	}
	return nil
}
