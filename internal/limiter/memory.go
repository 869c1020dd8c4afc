package limiter

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

type bucket struct {
	tokens     float64
	lastRefill int64 // unix milliseconds
}

// MemoryLimiter runs the token-bucket algorithm in-process behind a mutex.
// State is local to the process, so it does not enforce a global limit across
// replicas; use RedisLimiter for that. Buckets idle past the TTL are treated
// as absent on next access, matching Redis key expiry.
type MemoryLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	ttl      time.Duration
	now      func() time.Time
	recorder Recorder
}

// MemoryOption configures MemoryLimiter.
type MemoryOption func(*MemoryLimiter)

// WithMemoryBucketTTL sets the idle expiry (default 120s).
func WithMemoryBucketTTL(ttl time.Duration) MemoryOption {
	return func(l *MemoryLimiter) {
		l.ttl = ttl
	}
}

// WithMemoryClock substitutes the time source.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(l *MemoryLimiter) {
		l.now = now
	}
}

// WithMemoryRecorder injects a telemetry backend.
func WithMemoryRecorder(r Recorder) MemoryOption {
	return func(l *MemoryLimiter) {
		l.recorder = r
	}
}

// NewMemoryLimiter creates an in-process limiter.
func NewMemoryLimiter(opts ...MemoryOption) *MemoryLimiter {
	l := &MemoryLimiter{
		buckets:  make(map[string]*bucket),
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
func (l *MemoryLimiter) Check(_ context.Context, clientID string, requestsPerMinute, burst int64) (Decision, error) {
	if requestsPerMinute <= 0 {
		l.recorder.RecordError("invalid_limit")
		return Decision{}, fmt.Errorf("limit %d: %w", requestsPerMinute, ErrInvalidLimit)
	}

	maxTokens := float64(burst)
	if maxTokens < 1 {
		maxTokens = 1
	}
	refillRate := float64(requestsPerMinute) / 60.0
	nowMs := l.now().UnixMilli()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[clientID]
	if ok && nowMs-b.lastRefill >= l.ttl.Milliseconds() {
		// idle past the TTL: same as an expired Redis key
		delete(l.buckets, clientID)
		ok = false
	}
	if !ok {
		b = &bucket{tokens: maxTokens, lastRefill: nowMs}
		l.buckets[clientID] = b
	}

	elapsedMs := nowMs - b.lastRefill
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	b.tokens = math.Min(maxTokens, b.tokens+(float64(elapsedMs)/1000.0)*refillRate)
	b.lastRefill = nowMs

	dec := Decision{}
	if b.tokens >= 1 {
		b.tokens--
		dec.Allowed = true
	} else {
		needed := 1 - b.tokens
		dec.RetryAfter = time.Duration(math.Ceil(needed/refillRate*1000)) * time.Millisecond
	}
	dec.Remaining = int64(math.Floor(b.tokens))

	l.recorder.RecordDecision(dec.Allowed)
	return dec, nil
}

// Ping implements Limiter. The store is the process itself.
func (l *MemoryLimiter) Ping(context.Context) error {
	return nil
}
