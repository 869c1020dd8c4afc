package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

type stubHandler struct{}

func (stubHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
}

func TestNewServer_Defaults(t *testing.T) {
	s := NewServer(stubHandler{})

	if s.Echo() == nil {
		t.Fatal("expected an echo instance")
	}
	if s.ShutdownTimeout() != 15*time.Second {
		t.Fatalf("shutdown timeout = %v, want default 15s", s.ShutdownTimeout())
	}
}

func TestNewServer_WithTimeouts(t *testing.T) {
	s := NewServer(stubHandler{}, WithTimeouts(time.Second, 2*time.Second, 5*time.Second))

	if s.ShutdownTimeout() != 5*time.Second {
		t.Fatalf("shutdown timeout = %v, want 5s", s.ShutdownTimeout())
	}
	if s.Echo().Server.ReadTimeout != time.Second {
		t.Fatalf("read timeout = %v, want 1s", s.Echo().Server.ReadTimeout)
	}
	if s.Echo().Server.WriteTimeout != 2*time.Second {
		t.Fatalf("write timeout = %v, want 2s", s.Echo().Server.WriteTimeout)
	}
}

func TestNewServer_CORSEnabledByDefault(t *testing.T) {
	s := NewServer(stubHandler{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Fatal("expected CORS headers on cross-origin request")
	}
}

func TestNewServer_CORSDisabled(t *testing.T) {
	s := NewServer(stubHandler{}, WithCORS(false))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("allow-origin = %q, want unset when CORS is disabled", got)
	}
}
