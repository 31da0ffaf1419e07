package grpc

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/singleflight"

	"github.com/godilite/perception-server/internal/grpc/mocks"
	"github.com/godilite/perception-server/internal/repository/models"
	"github.com/godilite/perception-server/internal/service"
	"github.com/godilite/perception-server/pkg/cache"
)

func sampleSubject() service.Subject {
	return service.Subject{Kind: models.SubjectContractHouse, ID: "ch-1"}
}

func newRedisCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	c, err := cache.New(context.Background(), cache.WithAddress(mr.Addr()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestAddTTLJitter(t *testing.T) {
	ttl := time.Minute
	for i := 0; i < 100; i++ {
		got := addTTLJitter(ttl)
		assert.GreaterOrEqual(t, got, ttl-ttl/10)
		assert.Less(t, got, ttl+ttl/10)
	}

	assert.Equal(t, time.Duration(0), addTTLJitter(0))
	assert.Equal(t, 5*time.Nanosecond, addTTLJitter(5*time.Nanosecond))
}

func TestFindAndCache_ReadThrough(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)
	var sf singleflight.Group
	logger := zaptest.NewLogger(t)

	var calls atomic.Int32
	fetch := func(context.Context) (map[string]int, error) {
		calls.Add(1)
		return map[string]int{"sampleSize": 7}, nil
	}

	got, err := FindAndCache(ctx, c, &sf, "k:v0", time.Minute, logger, fetch)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"sampleSize": 7}, got)

	require.Eventually(t, func() bool { return mr.Exists("k:v0") }, time.Second, 10*time.Millisecond)

	got, err = FindAndCache(ctx, c, &sf, "k:v0", time.Minute, logger, fetch)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"sampleSize": 7}, got)
	assert.Equal(t, int32(1), calls.Load(), "second read must be served from cache")

	ttl := mr.TTL("k:v0")
	assert.Greater(t, ttl, 50*time.Second)
	assert.Less(t, ttl, 70*time.Second)
}

func TestFindAndCache_VersionBumpForcesRecompute(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)
	subject := sampleSubject()

	handlers := NewGRPCHandlers(&mocks.MockPerceptionService{}, c, zaptest.NewLogger(t), time.Minute)

	var calls atomic.Int32
	fetch := func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	first, err := cachedFetch(ctx, handlers, cacheKeyReport, subject, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	require.Eventually(t, func() bool {
		return mr.Exists(normalizeKey(cacheKeyReport, subject, 0))
	}, time.Second, 10*time.Millisecond)

	cached, err := cachedFetch(ctx, handlers, cacheKeyReport, subject, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, cached)
	assert.Equal(t, int32(1), calls.Load())

	handlers.invalidate(ctx, []service.Subject{subject})

	second, err := cachedFetch(ctx, handlers, cacheKeyReport, subject, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, second)
}

func TestFindAndCache_SingleflightSharesFetch(t *testing.T) {
	ctx := context.Background()
	var sf singleflight.Group
	mockCache := &mocks.MockCacher{}

	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := FindAndCache(ctx, mockCache, &sf, "shared", time.Minute, nil, fetch)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, []int{42, 42, 42, 42, 42}, results)
	assert.LessOrEqual(t, calls.Load(), int32(5))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestFindAndCache_FetchError(t *testing.T) {
	var sf singleflight.Group
	set := false
	mockCache := &mocks.MockCacher{
		SetFunc: func(context.Context, string, any, time.Duration) error {
			set = true
			return nil
		},
	}

	_, err := FindAndCache(context.Background(), mockCache, &sf, "k", time.Minute, nil, func(context.Context) (int, error) {
		return 0, errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
	assert.False(t, set)
}

func TestFindAndCache_NilCache(t *testing.T) {
	var sf singleflight.Group
	v, err := FindAndCache[int](context.Background(), nil, &sf, "k", time.Minute, nil, func(context.Context) (int, error) {
		return 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}
