package usecase

import (
	"context"
	"time"

	"github.com/xavierca1/pipeline-dashboard/internal/logger"
)

// cached returns the value stored under key or computes and stores it.
// Cache failures degrade to computing the value.
func cached[T any](ctx context.Context, c Cache, ttl time.Duration, log logger.Logger, key string, compute func() (T, error)) (T, error) {
	if c == nil {
		return compute()
	}
	var v T
	hit, err := c.GetJSON(ctx, key, &v)
	if err != nil {
		log.Warn("cache read failed", "key", key, "error", err)
	}
	// An entry that does not decode counts as a miss.
	if hit && err == nil {
		return v, nil
	}
	v, err = compute()
	if err != nil {
		return v, err
	}
	if err := c.SetJSON(ctx, key, v, ttl); err != nil {
		log.Warn("cache write failed", "key", key, "error", err)
	}
	return v, nil
}

func invalidate(ctx context.Context, c Cache, log logger.Logger, groups ...string) {
	if c == nil {
		return
	}
	for _, g := range groups {
		if err := c.InvalidateGroup(ctx, g); err != nil {
			log.Warn("cache invalidation failed", "group", g, "error", err)
		}
	}
}
