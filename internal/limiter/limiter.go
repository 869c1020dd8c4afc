// Package limiter implements distributed token-bucket rate limiting.
//
// Each client identity owns a bucket of tokens that refills continuously at
// the requested rate up to a burst capacity. Every Check consumes one token
// when available. The Redis implementation runs the whole read/refill/consume
// cycle as a single Lua script, so concurrent checks for the same identity
// can never over-admit, regardless of how many service replicas share the
// store. The memory implementation runs the same algorithm in-process and is
// intended for single-instance deployments and deterministic tests.
package limiter

import (
	"context"
	"errors"
	"time"
)

// Decision is the outcome of a single rate-limit check.
type Decision struct {
	// Allowed reports whether the request is admitted.
	Allowed bool
	// Remaining is the whole number of tokens left after the decision is
	// applied. Denials do not consume a token.
	Remaining int64
	// RetryAfter is zero when allowed; when denied it is the time until one
	// full token has accrued.
	RetryAfter time.Duration
}

// Limiter answers rate-limit checks and exposes a liveness probe for the
// backing store.
type Limiter interface {
	// Check decides whether one request from clientID is admitted under a
	// limit of requestsPerMinute with the given burst capacity. A burst of 0
	// is treated as capacity 1 so at least one request is ever admittable.
	Check(ctx context.Context, clientID string, requestsPerMinute, burst int64) (Decision, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}

// Sentinel errors. Callers classify failures with errors.Is.
var (
	// ErrInvalidLimit is returned for a non-positive requests-per-minute
	// value, before any store call is made.
	ErrInvalidLimit = errors.New("requests per minute must be positive")

	// ErrStoreUnavailable is returned when the store cannot be reached or
	// the call timed out.
	ErrStoreUnavailable = errors.New("rate limit store unavailable")

	// ErrStoreProtocol is returned when the store replied with a shape the
	// engine cannot interpret.
	ErrStoreProtocol = errors.New("unexpected rate limit store reply")
)

// Recorder receives limiter telemetry. Implementations must be safe for
// concurrent use. The zero-value NopRecorder discards everything.
type Recorder interface {
	RecordDecision(allowed bool)
	RecordStoreLatency(op string, seconds float64)
	RecordError(kind string)
}

// NopRecorder discards all telemetry.
type NopRecorder struct{}

func (NopRecorder) RecordDecision(bool)                {}
func (NopRecorder) RecordStoreLatency(string, float64) {}
func (NopRecorder) RecordError(string)                 {}
