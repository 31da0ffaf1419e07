package grpc

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/godilite/perception-server/internal/metrics"
)

type FetchFunc[T any] func(ctx context.Context) (T, error)

const (
	defaultSetTimeout = 5 * time.Second
	maxJitterFraction = 10
)

// addTTLJitter spreads expiry by up to ±10% of ttl to avoid mass expiration.
func addTTLJitter(ttl time.Duration) time.Duration {
	spread := ttl / maxJitterFraction
	if spread <= 0 {
		return ttl
	}
	return ttl + time.Duration(rand.Int63n(int64(2*spread))) - spread
}

func fetchAndCacheInBackground[T any](
	ctx context.Context,
	c Cacher,
	key string,
	ttl time.Duration,
	logger *zap.Logger,
	fn FetchFunc[T],
) (T, error) {
	var zero T

	value, err := fn(ctx)
	if err != nil {
		logger.Error("fetch failed", zap.String("key", key), zap.Error(err))
		return zero, err
	}

	go func(v T) {
		setCtx, cancel := context.WithTimeout(context.Background(), defaultSetTimeout)
		defer cancel()

		ttlWithJitter := addTTLJitter(ttl)
		if err := c.Set(setCtx, key, v, ttlWithJitter); err != nil {
			logger.Warn("failed to set cache on miss", zap.String("key", key), zap.Error(err))
		} else {
			logger.Debug("cache populated on miss", zap.String("key", key), zap.Duration("ttl", ttlWithJitter))
		}
	}(value)

	return value, nil
}

// FindAndCache implements read-through caching with singleflight. Keys must embed the
// version of the data they cover, so a late write after invalidation lands on a dead key.
// A nil Cacher disables caching.
func FindAndCache[T any](
	ctx context.Context,
	c Cacher,
	sf *singleflight.Group,
	key string,
	ttl time.Duration,
	logger *zap.Logger,
	fn FetchFunc[T],
) (T, error) {
	var zero T
	if logger == nil {
		logger = zap.NewNop()
	}
	if c == nil {
		return fn(ctx)
	}

	var cached T
	err := c.Get(ctx, key, &cached)
	switch {
	case err == nil:
		metrics.CacheOperations.WithLabelValues("hit").Inc()
		logger.Debug("cache hit", zap.String("key", key))
		return cached, nil

	case errors.Is(err, redis.Nil):
		metrics.CacheOperations.WithLabelValues("miss").Inc()
		logger.Debug("cache miss", zap.String("key", key))

	default:
		metrics.CacheOperations.WithLabelValues("error").Inc()
		logger.Warn("cache get error (treating as miss)", zap.String("key", key), zap.Error(err))
	}

	v, err, shared := sf.Do(key, func() (any, error) {
		return fetchAndCacheInBackground(ctx, c, key, ttl, logger, fn)
	})
	if err != nil {
		return zero, err
	}

	value, ok := v.(T)
	if !ok {
		logger.Error("singleflight type mismatch", zap.String("key", key))
		return zero, fmt.Errorf("type mismatch for key %q", key)
	}

	if shared {
		logger.Debug("singleflight shared result", zap.String("key", key))
	}

	return value, nil
}
