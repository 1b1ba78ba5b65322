package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DirtyReal/cfh-new/internal/domain"
	"github.com/DirtyReal/cfh-new/internal/feed"
	"github.com/DirtyReal/cfh-new/internal/metrics"
	goredis "github.com/redis/go-redis/v9"
)

const (
	feedCachePrefix = "feed_cache:"
	feedCacheTTL    = 30 * time.Second
)

// FeedCache stores ranked feed pages keyed by (policy, offset, limit).
// Pages are user agnostic; per-user vote decoration happens after the
// cache. All failures degrade to a miss so the feed never breaks on a
// Redis outage.
type FeedCache struct {
	rdb goredis.Cmdable
}

func NewFeedCache(rdb goredis.Cmdable) *FeedCache {
	return &FeedCache{rdb: rdb}
}

// Get returns a cached page and whether it was present.
func (c *FeedCache) Get(ctx context.Context, policy feed.Policy, offset, limit int) ([]domain.Meme, bool) {
	data, err := c.rdb.Get(ctx, feedCacheKey(policy, offset, limit)).Bytes()
	if errors.Is(err, goredis.Nil) {
		metrics.FeedCacheMisses.Inc()
		return nil, false
	}
	if err != nil {
		slog.Warn("Feed cache GET failed, falling through to ranking",
			"policy", policy, "error", err)
		metrics.FeedCacheMisses.Inc()
		return nil, false
	}

	var memes []domain.Meme
	if err := json.Unmarshal(data, &memes); err != nil {
		slog.Warn("Failed to unmarshal cached feed page, falling through to ranking",
			"policy", policy, "error", err)
		metrics.FeedCacheMisses.Inc()
		return nil, false
	}

	metrics.FeedCacheHits.Inc()
	return memes, true
}

// Set stores a ranked page. Failures are logged, not returned; the caller
// already has the page.
func (c *FeedCache) Set(ctx context.Context, policy feed.Policy, offset, limit int, memes []domain.Meme) {
	encoded, err := json.Marshal(memes)
	if err != nil {
		slog.Warn("Failed to marshal feed page for cache", "policy", policy, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, feedCacheKey(policy, offset, limit), encoded, feedCacheTTL).Err(); err != nil {
		slog.Warn("Failed to populate feed cache", "policy", policy, "error", err)
	}
}

// Invalidate drops every cached page. Called when a meme is created, since
// a new meme can surface on any page under any policy.
func (c *FeedCache) Invalidate(ctx context.Context) error {
	var cursor uint64
	for {
		keys, nextCursor, err := c.rdb.Scan(ctx, cursor, feedCachePrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("feed cache scan failed: %w", err)
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("feed cache delete failed: %w", err)
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			return nil
		}
	}
}

func feedCacheKey(policy feed.Policy, offset, limit int) string {
	return fmt.Sprintf("%s%s:%d:%d", feedCachePrefix, policy, offset, limit)
}
