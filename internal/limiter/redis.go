package limiter

import (
	"context"
	_ "embed"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

//go:embed token_bucket.lua
var tokenBucketSrc string

// tokenBucket runs via EVALSHA and falls back to EVAL with a script reload
// when Redis has lost its script cache.
var tokenBucket = redis.NewScript(tokenBucketSrc)

// RedisLimiter enforces a global token-bucket limit shared by every process
// pointed at the same Redis. Bucket state lives in a Redis hash per identity
// and is mutated only inside the Lua script, so the read/refill/consume cycle
// is indivisible per key. Concurrency for different keys is bounded only by
// the client's connection pool.
type RedisLimiter struct {
	client   redis.UniversalClient
	prefix   string
	ttl      time.Duration
	now      func() time.Time
	recorder Recorder
}

// RedisOption configures RedisLimiter.
type RedisOption func(*RedisLimiter)

// WithPrefix sets the key prefix (default "ratelimit").
func WithPrefix(prefix string) RedisOption {
	return func(l *RedisLimiter) {
		l.prefix = prefix
	}
}

// WithBucketTTL sets the idle expiry applied to every bucket (default 120s).
func WithBucketTTL(ttl time.Duration) RedisOption {
	return func(l *RedisLimiter) {
		l.ttl = ttl
	}
}

// WithClock substitutes the time source. Tests use this to drive refill and
// retry-after timing deterministically.
func WithClock(now func() time.Time) RedisOption {
	return func(l *RedisLimiter) {
		l.now = now
	}
}

// WithRecorder injects a telemetry backend.
func WithRecorder(r Recorder) RedisOption {
	return func(l *RedisLimiter) {
		l.recorder = r
	}
}

// NewRedisLimiter creates a Redis-backed limiter. It expects a pre-configured
// client (see pkg/redis); the connection pool is owned by the caller.
func NewRedisLimiter(client redis.UniversalClient, opts ...RedisOption) *RedisLimiter {
	l := &RedisLimiter{
		client:   client,
		prefix:   "ratelimit",
		ttl:      120 * time.Second,
		now:      time.Now,
		recorder: NopRecorder{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check implements Limiter.
func (l *RedisLimiter) Check(ctx context.Context, clientID string, requestsPerMinute, burst int64) (Decision, error) {
	if requestsPerMinute <= 0 {
		l.recorder.RecordError("invalid_limit")
		return Decision{}, fmt.Errorf("limit %d: %w", requestsPerMinute, ErrInvalidLimit)
	}

	maxTokens := burst
	if maxTokens < 1 {
		maxTokens = 1
	}
	refillRate := float64(requestsPerMinute) / 60.0
	nowMs := l.now().UnixMilli()
	key := l.prefix + ":" + clientID
	ttlSeconds := bucketTTLSeconds(l.ttl)

	start := time.Now()
	result, err := tokenBucket.Run(ctx, l.client, []string{key},
		maxTokens,   // ARGV[1]
		refillRate,  // ARGV[2]
		nowMs,       // ARGV[3]
		ttlSeconds,  // ARGV[4]
	).Result()
	l.recorder.RecordStoreLatency("check", time.Since(start).Seconds())
	if err != nil {
		l.recorder.RecordError("store_unavailable")
		return Decision{}, fmt.Errorf("token bucket script for %q: %w: %v", clientID, ErrStoreUnavailable, err)
	}

	dec, err := parseReply(result)
	if err != nil {
		l.recorder.RecordError("store_protocol")
		return Decision{}, err
	}
	l.recorder.RecordDecision(dec.Allowed)
	return dec, nil
}

// Ping implements Limiter.
func (l *RedisLimiter) Ping(ctx context.Context) error {
	start := time.Now()
	err := l.client.Ping(ctx).Err()
	l.recorder.RecordStoreLatency("ping", time.Since(start).Seconds())
	if err != nil {
		l.recorder.RecordError("store_unavailable")
		return fmt.Errorf("ping: %w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// bucketTTLSeconds rounds the TTL up to whole seconds for EXPIRE. Truncating
// a sub-second TTL to 0 would delete the key immediately and every check
// would start from a full bucket.
func bucketTTLSeconds(ttl time.Duration) int64 {
	return int64(math.Ceil(ttl.Seconds()))
}

// parseReply decodes the script's {allowed, remaining, retry_after_ms} array.
func parseReply(result interface{}) (Decision, error) {
	values, ok := result.([]interface{})
	if !ok || len(values) != 3 {
		return Decision{}, fmt.Errorf("%w: got %T", ErrStoreProtocol, result)
	}

	ints := make([]int64, 3)
	for i, v := range values {
		n, ok := v.(int64)
		if !ok {
			return Decision{}, fmt.Errorf("%w: element %d is %T", ErrStoreProtocol, i, v)
		}
		ints[i] = n
	}

	return Decision{
		Allowed:    ints[0] == 1,
		Remaining:  ints[1],
		RetryAfter: time.Duration(ints[2]) * time.Millisecond,
	}, nil
}
