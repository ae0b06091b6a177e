package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/giftgraph/pkg/observability"
)

type errorSpy struct {
	observability.NoopCacheHooks
	mu   sync.Mutex
	errs []error
}

func (s *errorSpy) OnCacheError(_ context.Context, _ string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *errorSpy) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errs)
}

// unreachableRedis points at a port nothing listens on.
func unreachableRedis(t *testing.T) *RedisCache {
	t.Helper()
	c, err := NewRedisCache(RedisConfig{
		URL:              "redis://127.0.0.1:1/0",
		Timeout:          50 * time.Millisecond,
		FailureThreshold: 2,
		OpenTimeout:      time.Hour,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewRedisCacheValidation(t *testing.T) {
	_, err := NewRedisCache(RedisConfig{})
	assert.Error(t, err)

	_, err = NewRedisCache(RedisConfig{URL: "http://not-redis"})
	assert.Error(t, err)
}

func TestRedisCacheDegradesToMiss(t *testing.T) {
	spy := &errorSpy{}
	observability.SetCacheHooks(spy)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	c := unreachableRedis(t)

	data, hit, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, data)

	require.NoError(t, c.Set(ctx, "key", []byte("v"), time.Minute))
	assert.Equal(t, 2, spy.count())
}

func TestRedisCacheBreakerOpens(t *testing.T) {
	spy := &errorSpy{}
	observability.SetCacheHooks(spy)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	c := unreachableRedis(t)

	assert.Equal(t, "closed", c.State())
	for i := 0; i < 2; i++ {
		_, _, _ = c.Get(ctx, "key")
	}
	assert.Equal(t, "open", c.State())

	// Open breaker: still a miss, reported as unavailable.
	_, hit, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, hit)

	spy.mu.Lock()
	last := spy.errs[len(spy.errs)-1]
	spy.mu.Unlock()
	assert.True(t, errors.Is(last, ErrUnavailable))

	assert.ErrorIs(t, c.Delete(ctx, "key"), ErrUnavailable)
	assert.ErrorIs(t, c.Ping(ctx), ErrUnavailable)
}
