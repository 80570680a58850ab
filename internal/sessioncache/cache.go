// Package sessioncache keeps cobrand session documents in Redis so
// repeated flows reuse an already-minted session instead of logging the
// cobrand in again. Sessions are expensive to mint and short-lived, which
// makes them natural cache entries.
package sessioncache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yodlink/yodlink/yodlee"
)

const keyPrefix = "yodlee:cobsession:v1:"

// Cache is a Redis-backed cobrand session store. Cache trouble never fails
// a flow: errors log and read as misses, so the caller just mints a fresh
// session.
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New builds a Cache. The TTL should sit below the upstream session
// lifetime so the cache never hands out a token the server already expired.
func New(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{rdb: rdb, ttl: ttl, logger: logger}
}

// Get returns the cached session for the cobrand login, or a miss. Entries
// that no longer pass the session check are dropped and read as misses.
func (c *Cache) Get(ctx context.Context, cobrandLogin string) (*yodlee.CobrandSession, bool) {
	key := keyPrefix + cobrandLogin
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("session cache read failed", "error", err)
		}
		return nil, false
	}

	session, err := yodlee.RestoreCobrandSession(raw)
	if err != nil {
		c.logger.Warn("dropping unusable cached session", "error", err)
		if delErr := c.rdb.Del(ctx, key).Err(); delErr != nil {
			c.logger.Warn("session cache delete failed", "error", delErr)
		}
		return nil, false
	}
	return session, true
}

// Put stores the session's raw document under the cobrand login.
func (c *Cache) Put(ctx context.Context, cobrandLogin string, session *yodlee.CobrandSession) {
	raw, err := json.Marshal(session.Raw())
	if err != nil {
		c.logger.Warn("session cache encode failed", "error", err)
		return
	}
	if err := c.rdb.Set(ctx, keyPrefix+cobrandLogin, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("session cache write failed", "error", err)
	}
}

// Fetch returns the cached session or mints one via the callback, storing
// the result. Only the mint error propagates.
func (c *Cache) Fetch(ctx context.Context, cobrandLogin string, mint func(context.Context) (*yodlee.CobrandSession, error)) (*yodlee.CobrandSession, error) {
	if session, ok := c.Get(ctx, cobrandLogin); ok {
		return session, nil
	}

	session, err := mint(ctx)
	if err != nil {
		return nil, err
	}
	c.Put(ctx, cobrandLogin, session)
	return session, nil
}
