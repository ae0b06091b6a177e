package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/matzehuels/giftgraph/pkg/observability"
)

// RedisConfig configures a RedisCache.
type RedisConfig struct {
	// URL is a redis:// or rediss:// connection URL.
	URL string

	// Timeout bounds every individual command. Defaults to 500ms.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures that opens
	// the breaker. Defaults to 5.
	FailureThreshold uint32

	// OpenTimeout is how long the breaker stays open before letting a
	// probe request through. Defaults to 30s.
	OpenTimeout time.Duration

	// Logger receives breaker state changes. Defaults to a discard logger.
	Logger *log.Logger
}

func (c *RedisConfig) setDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 500 * time.Millisecond
	}
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 5
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = log.New(io.Discard)
	}
}

// RedisCache is a Cache backed by redis and guarded by a circuit breaker.
//
// The cache never fails a pipeline run: backend errors and an open breaker
// turn reads into misses and drop writes. Failures are reported through
// the cache observability hooks.
type RedisCache struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
	logger  *log.Logger
}

// NewRedisCache creates a redis-backed cache. No connection is made until
// the first command, so an unreachable server is not an error here.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("redis cache: url is required")
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis cache: parse url: %w", err)
	}
	cfg.setDefaults()
	opts.DialTimeout = cfg.Timeout
	opts.ReadTimeout = cfg.Timeout
	opts.WriteTimeout = cfg.Timeout
	opts.MaxRetries = -1

	logger := cfg.Logger
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-cache",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &RedisCache{
		client:  redis.NewClient(opts),
		breaker: breaker,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

// Get retrieves a value. Backend failures are reported as misses.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := c.breaker.Execute(func() (any, error) {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		data, err := c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return []byte(nil), nil
		}
		return data, err
	})
	if err != nil {
		c.degrade(ctx, "get", err)
		return nil, false, nil
	}
	data := v.([]byte)
	if data == nil {
		return nil, false, nil
	}
	return data, true, nil
}

// Set stores a value. Writes are dropped while the backend is failing.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	_, err := c.breaker.Execute(func() (any, error) {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		return nil, c.client.Set(ctx, key, data, ttl).Err()
	})
	if err != nil {
		c.degrade(ctx, "set", err)
	}
	return nil
}

// Delete removes a value. Unlike reads and writes, a failed delete is
// returned to the caller.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	_, err := c.breaker.Execute(func() (any, error) {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		return nil, c.client.Del(ctx, key).Err()
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Ping checks connectivity without going through the breaker.
func (c *RedisCache) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// State reports the breaker state ("closed", "half-open" or "open").
func (c *RedisCache) State() string {
	return c.breaker.State().String()
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) degrade(ctx context.Context, op string, err error) {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	c.logger.Debug("cache degraded", "op", op, "err", err)
	observability.Cache().OnCacheError(ctx, "redis", err)
}

var _ Cache = (*RedisCache)(nil)
