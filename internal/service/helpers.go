package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/storefront/pkg/logging"
)

const (
	cachePrefixProducts   = "products:"
	cachePrefixCategories = "categories:"
	cachePrefixOrders     = "orders:"
	cachePrefixDashboard  = "dashboard:"
)

// publish never fails the caller; delivery problems are logged.
func publish(ctx context.Context, p Publisher, topic, key string, event map[string]any) {
	if p == nil {
		return
	}
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Warnw("publish_event_failed", "topic", topic, "type", event["type"], "error", err)
	}
}

// revalidate drops cached pages under the given prefixes.
func revalidate(ctx context.Context, c Cache, prefixes ...string) {
	if c == nil {
		return
	}
	for _, p := range prefixes {
		if err := c.InvalidatePrefix(ctx, p); err != nil {
			logging.FromContext(ctx).Warnw("cache_invalidate_failed", "prefix", p, "error", err)
		}
	}
}

func cacheGet(ctx context.Context, c Cache, key string, dest any) bool {
	if c == nil {
		return false
	}
	ok, err := c.Get(ctx, key, dest)
	if err != nil {
		logging.FromContext(ctx).Warnw("cache_get_failed", "key", key, "error", err)
		return false
	}
	return ok
}

func cacheSet(ctx context.Context, c Cache, key string, v any, ttl time.Duration) {
	if c == nil {
		return
	}
	if err := c.Set(ctx, key, v, ttl); err != nil {
		logging.FromContext(ctx).Warnw("cache_set_failed", "key", key, "error", err)
	}
}
