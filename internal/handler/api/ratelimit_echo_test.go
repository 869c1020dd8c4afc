package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rategate/internal/domain/models"
	"rategate/internal/limiter"
	xlogger "rategate/pkg/logger"

	"github.com/labstack/echo/v4"
)

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// failingLimiter simulates an unreachable store.
type failingLimiter struct{}

func (failingLimiter) Check(context.Context, string, int64, int64) (limiter.Decision, error) {
	return limiter.Decision{}, limiter.ErrStoreUnavailable
}

func (failingLimiter) Ping(context.Context) error {
	return limiter.ErrStoreUnavailable
}

func newTestHandler(t *testing.T, l limiter.Limiter) (*echo.Echo, *RateLimitEchoHandler) {
	t.Helper()
	log, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatal(err)
	}
	h := NewRateLimitEchoHandler(log, l)
	e := echo.New()
	h.RegisterRoutes(e)
	return e, h
}

func doCheck(e *echo.Echo, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/check", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeCheck(t *testing.T, rec *httptest.ResponseRecorder) models.CheckResponse {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var body models.CheckResponse
	if err := json.Unmarshal(env.Data, &body); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	return body
}

func TestCheck_AllowedAndDenied(t *testing.T) {
	e, _ := newTestHandler(t, limiter.NewMemoryLimiter())

	headers := map[string]string{"X-API-Key": "tenant-a"}

	for i := 0; i < 2; i++ {
		rec := doCheck(e, `{"limit": 60, "burst": 2}`, headers)
		if rec.Code != http.StatusOK {
			t.Fatalf("check %d: status = %d, want 200", i, rec.Code)
		}
		body := decodeCheck(t, rec)
		if !body.Allowed {
			t.Fatalf("check %d: expected allowed", i)
		}
	}

	rec := doCheck(e, `{"limit": 60, "burst": 2}`, headers)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	body := decodeCheck(t, rec)
	if body.Allowed {
		t.Fatal("expected denial")
	}
	if body.RetryAfterMS <= 0 {
		t.Fatalf("retry_after_ms = %d, want positive", body.RetryAfterMS)
	}
}

func TestCheck_BurstDefaultsToLimit(t *testing.T) {
	e, _ := newTestHandler(t, limiter.NewMemoryLimiter())

	// no burst field: capacity is the limit itself
	for i := 0; i < 3; i++ {
		rec := doCheck(e, `{"limit": 3}`, map[string]string{"X-API-Key": "tenant-b"})
		if rec.Code != http.StatusOK {
			t.Fatalf("check %d: status = %d, want 200", i, rec.Code)
		}
	}
	rec := doCheck(e, `{"limit": 3}`, map[string]string{"X-API-Key": "tenant-b"})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}

func TestCheck_InvalidLimit(t *testing.T) {
	e, _ := newTestHandler(t, limiter.NewMemoryLimiter())

	for _, body := range []string{
		`{"limit": 0}`,
		`{"limit": -10}`,
		`{}`,
		`{"limit": 60, "burst": -1}`,
	} {
		rec := doCheck(e, body, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestCheck_StoreFailure(t *testing.T) {
	e, _ := newTestHandler(t, failingLimiter{})

	rec := doCheck(e, `{"limit": 60}`, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestCheck_IdentityPrecedence(t *testing.T) {
	e, _ := newTestHandler(t, limiter.NewMemoryLimiter())

	// drain the api-key bucket
	rec := doCheck(e, `{"limit": 60, "burst": 1}`, map[string]string{"X-API-Key": "key-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	rec = doCheck(e, `{"limit": 60, "burst": 1}`, map[string]string{"X-API-Key": "key-1"})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429 for the same key", rec.Code)
	}

	// a different key is a different bucket, same source address
	rec = doCheck(e, `{"limit": 60, "burst": 1}`, map[string]string{"X-API-Key": "key-2"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for a fresh key", rec.Code)
	}

	// no key at all falls back to the origin address bucket
	rec = doCheck(e, `{"limit": 60, "burst": 1}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for the address bucket", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	e, _ := newTestHandler(t, limiter.NewMemoryLimiter())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	e, _ = newTestHandler(t, failingLimiter{})
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	var health models.HealthResponse
	if err := json.Unmarshal(env.Data, &health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "unhealthy" {
		t.Fatalf("status = %q, want unhealthy", health.Status)
	}
}

func TestCheck_RetryAfterTiming(t *testing.T) {
	ms := int64(0)
	l := limiter.NewMemoryLimiter(limiter.WithMemoryClock(func() time.Time {
		return time.UnixMilli(ms)
	}))
	e, _ := newTestHandler(t, l)
	headers := map[string]string{"X-API-Key": "timing"}

	rec := doCheck(e, `{"limit": 60, "burst": 1}`, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	rec = doCheck(e, `{"limit": 60, "burst": 1}`, headers)
	body := decodeCheck(t, rec)
	if body.RetryAfterMS != 1000 {
		t.Fatalf("retry_after_ms = %d, want 1000 at 1 token/sec", body.RetryAfterMS)
	}

	ms = 1000
	rec = doCheck(e, `{"limit": 60, "burst": 1}`, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 after one full second", rec.Code)
	}
}
