package store

import (
	"context"
	"testing"
	"time"

	"github.com/gentext/gentext/statement"
)

func TestInMemoryStoreAddAndRecent(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		err := s.Add(ctx, &Interaction{
			RequestID:      "req",
			Kind:           statement.KindClaude,
			FullText:       "Full sentence.",
			PartialText:    "Partial",
			Count:          3,
			FalseSentences: []string{"a"},
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("add error: %v", err)
		}
	}

	n, err := s.Count(ctx)
	if err != nil || n != 3 {
		t.Fatalf("count = %d, %v", n, err)
	}

	recent, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent error: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2, got %d", len(recent))
	}
	if !recent[0].CreatedAt.After(recent[1].CreatedAt) {
		t.Fatal("not sorted newest first")
	}
}

func TestInMemoryStoreStampsDefaults(t *testing.T) {
	s := NewInMemoryStore()
	in := &Interaction{FullText: "Full sentence.", Count: 1}
	if err := s.Add(context.Background(), in); err != nil {
		t.Fatalf("add error: %v", err)
	}
	if in.ID == "" || in.CreatedAt.IsZero() {
		t.Fatalf("defaults not stamped: %+v", in)
	}
}

func TestInMemoryStoreRejectsNil(t *testing.T) {
	s := NewInMemoryStore()
	if err := s.Add(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil interaction")
	}
}

func TestCacheKeyDeterministic(t *testing.T) {
	a := &statement.Request{
		PartialText: "The capital of France",
		FullText:    "The capital of France is Paris.",
		Count:       3,
		Kind:        statement.KindClaude,
	}
	b := *a
	if CacheKey(a) != CacheKey(&b) {
		t.Fatal("identical requests must produce the same key")
	}

	variants := []statement.Request{*a, *a, *a, *a}
	variants[0].Count = 4
	variants[1].Kind = statement.KindLocal
	variants[2].PartialText = "The capital of Spain"
	variants[3].FullText = "The capital of France is Lyon."
	for i := range variants {
		if CacheKey(&variants[i]) == CacheKey(a) {
			t.Fatalf("variant %d collided with base key", i)
		}
	}
}
