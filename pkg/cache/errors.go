package cache

import "errors"

// ErrUnavailable is returned when a remote backend cannot be reached or
// its circuit breaker is open. Reads and writes never surface it; see
// [RedisCache].
var ErrUnavailable = errors.New("cache backend unavailable")
