// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// category.go provides a Valkey-backed cache of encoded category API
// responses. Reads store their JSON body here; any category mutation clears
// every entry, since a reparent or delete changes counts and summaries
// across the tree.
//
// Keys carry a generation number. InvalidateAll bumps the generation before
// deleting, so a read that loaded its data before a mutation stores its body
// under the old generation, where no later read looks.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"zbase/internal/models"
)

const (
	// categoryKeyPrefix is the Valkey key prefix for cached responses.
	categoryKeyPrefix = "category:"

	// generationKey holds the current cache generation. It sits outside
	// categoryKeyPrefix so InvalidateAll never deletes it.
	generationKey = "category_generation"

	// DefaultCategoryTTL is how long a response stays cached.
	DefaultCategoryTTL = 5 * time.Minute
)

// CategoryCache manages category response caching in Valkey.
type CategoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCategoryCache creates a new cache backed by the given Valkey client.
func NewCategoryCache(client *redis.Client, ttl time.Duration) *CategoryCache {
	if ttl == 0 {
		ttl = DefaultCategoryTTL
	}
	return &CategoryCache{client: client, ttl: ttl}
}

// Generation returns the current cache generation. ok is false when Valkey
// cannot be read, in which case the caller should not cache.
func (cc *CategoryCache) Generation(ctx context.Context) (gen int64, ok bool) {
	gen, err := cc.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		slog.Warn("category cache generation error", "error", err)
		return 0, false
	}
	return gen, true
}

// Get retrieves a cached response body. Errors count as misses.
func (cc *CategoryCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := cc.client.Get(ctx, categoryKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("category cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("category cache hit", "key", key)
	return val, true
}

// Set stores a response body with the configured TTL.
func (cc *CategoryCache) Set(ctx context.Context, key string, body []byte) {
	if err := cc.client.Set(ctx, categoryKeyPrefix+key, body, cc.ttl).Err(); err != nil {
		slog.Warn("category cache set error", "key", key, "error", err)
	}
}

// InvalidateAll starts a new generation, then removes every cached category
// response by scanning for the prefix.
func (cc *CategoryCache) InvalidateAll(ctx context.Context) {
	if err := cc.client.Incr(ctx, generationKey).Err(); err != nil {
		slog.Warn("category cache generation bump error", "error", err)
	}

	var cursor uint64
	var deleted int
	for {
		keys, next, err := cc.client.Scan(ctx, cursor, categoryKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("category cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := cc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("category cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Debug("category cache cleared", "deleted", deleted)
	}
}

// VersionedKey scopes key to a cache generation.
func VersionedKey(gen int64, key string) string {
	return fmt.Sprintf("g%d:%s", gen, key)
}

// ListKey returns the cache key for a listing with the given filter.
func ListKey(filter models.CategoryFilter) string {
	switch {
	case !filter.ByParent:
		return "list:all"
	case filter.ParentID == nil:
		return "list:roots"
	default:
		return "list:parent:" + filter.ParentID.String()
	}
}

// ItemKey returns the cache key for a single category.
func ItemKey(id uuid.UUID) string {
	return "item:" + id.String()
}

// TreeKey returns the cache key for the nested tree.
func TreeKey() string {
	return "tree"
}
