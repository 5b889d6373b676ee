package enricher

import (
	"context"
	"errors"
	"testing"

	"github.com/gentext/gentext/middleware"
)

func TestRequestIDAssigned(t *testing.T) {
	m := NewRequestID()
	ctx := middleware.NewContext(context.Background(), nil)
	if err := m.Execute(ctx, func(*middleware.Context) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.RequestID == "" {
		t.Fatal("request id not assigned")
	}
}

func TestRequestIDPreserved(t *testing.T) {
	m := NewRequestID()
	ctx := middleware.NewContext(context.Background(), nil)
	ctx.RequestID = "caller-supplied"
	if err := m.Execute(ctx, func(*middleware.Context) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.RequestID != "caller-supplied" {
		t.Fatalf("request id overwritten: %q", ctx.RequestID)
	}
}

func TestContextEnricher(t *testing.T) {
	m := NewContextEnricher(func(c *middleware.Context) error {
		c.Metadata["source"] = "unit"
		return nil
	})
	ctx := middleware.NewContext(context.Background(), nil)
	if err := m.Execute(ctx, func(*middleware.Context) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.Metadata["source"] != "unit" {
		t.Fatalf("metadata not enriched: %v", ctx.Metadata)
	}
}

func TestContextEnricherFailureStopsChain(t *testing.T) {
	boom := errors.New("enrichment failed")
	m := NewContextEnricher(func(*middleware.Context) error { return boom })
	ctx := middleware.NewContext(context.Background(), nil)
	err := m.Execute(ctx, func(*middleware.Context) error {
		t.Fatal("handler must not run")
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected enrichment error, got %v", err)
	}
}
