package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/unievents/eventhub-api/internal/core/domain"
	"github.com/unievents/eventhub-api/internal/core/ports"
)

// IdentityCache fronts an identity lookup with a short-lived Redis copy.
// Only existing identities are cached, so a deletion is never hidden by a
// cached miss. Password hashes are not cached.
//
// Key format: eventhub:identity:<user_id>
type IdentityCache struct {
	client *redis.Client
	next   ports.IdentityLookup
	ttl    time.Duration
	log    zerolog.Logger
}

func NewIdentityCache(client *redis.Client, next ports.IdentityLookup, ttl time.Duration, log zerolog.Logger) *IdentityCache {
	return &IdentityCache{
		client: client,
		next:   next,
		ttl:    ttl,
		log:    log.With().Str("component", "identity_cache").Logger(),
	}
}

// FindByID serves from the cache when possible. Cache failures fall back to
// the store.
func (c *IdentityCache) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if c.ttl <= 0 {
		return c.next.FindByID(ctx, id)
	}

	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	switch {
	case err == nil:
		var u domain.User
		if jsonErr := json.Unmarshal(raw, &u); jsonErr == nil {
			return &u, nil
		}
		c.log.Warn().Str("user_id", id).Msg("discarding unreadable cache entry")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Msg("identity cache read failed")
	}

	u, err := c.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(u); err == nil {
		if err := c.client.Set(ctx, c.key(id), payload, c.ttl).Err(); err != nil {
			c.log.Warn().Err(err).Msg("identity cache write failed")
		}
	}
	return u, nil
}

// Forget drops the cached copy of id.
func (c *IdentityCache) Forget(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}

func (c *IdentityCache) key(id string) string {
	return keyPrefix + "identity:" + id
}
