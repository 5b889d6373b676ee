package limiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gentext/gentext/middleware"
)

func TestRateLimiterRejectsOverBurst(t *testing.T) {
	m := NewRateLimiter(1, 2)
	pass := func(*middleware.Context) error { return nil }

	for i := 0; i < 2; i++ {
		ctx := middleware.NewContext(context.Background(), nil)
		if err := m.Execute(ctx, pass); err != nil {
			t.Fatalf("request %d within burst rejected: %v", i, err)
		}
	}

	ctx := middleware.NewContext(context.Background(), nil)
	if err := m.Execute(ctx, pass); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestWaitingRateLimiterHonorsContext(t *testing.T) {
	m := NewWaitingRateLimiter(0.001, 1)
	pass := func(*middleware.Context) error { return nil }

	// Drain the single burst token.
	if err := m.Execute(middleware.NewContext(context.Background(), nil), pass); err != nil {
		t.Fatalf("first request rejected: %v", err)
	}

	bg, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := m.Execute(middleware.NewContext(bg, nil), pass)
	if err == nil {
		t.Fatal("expected context error while waiting for a token")
	}
}
