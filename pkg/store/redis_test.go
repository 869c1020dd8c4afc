package store

import (
	"context"
	"testing"
	"time"
)

func TestConnector_New(t *testing.T) {
	conn, err := New(WithAddr("localhost:6379"), WithTimeouts(time.Second, time.Second, time.Second))
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	defer conn.Close()

	if err := conn.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if conn.Client() == nil {
		t.Fatal("expected a usable client")
	}
}

func TestConnector_Unreachable(t *testing.T) {
	_, err := New(
		WithAddr("localhost:1"),
		WithTimeouts(100*time.Millisecond, time.Second, time.Second),
	)
	if err == nil {
		t.Fatal("expected connection error")
	}
}
