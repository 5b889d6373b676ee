package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/gentext/gentext/middleware"
	"github.com/gentext/gentext/statement"
)

func capture() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestRequestLogger(t *testing.T) {
	l, buf := capture()
	m := NewRequestLogger(l)

	req := &statement.Request{
		PartialText: "The capital of France",
		FullText:    "The capital of France is Paris.",
		Count:       3,
		Kind:        statement.KindClaude,
	}
	ctx := middleware.NewContext(context.Background(), req)
	ctx.RequestID = "req-1"
	if err := m.Execute(ctx, func(*middleware.Context) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"generation request", "req-1", "claude"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q: %s", want, out)
		}
	}
}

func TestResultLogger(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		l, buf := capture()
		m := NewResultLogger(l)
		ctx := middleware.NewContext(context.Background(), nil)
		err := m.Execute(ctx, func(c *middleware.Context) error {
			c.Result = &statement.Result{
				FalseSentences: []string{"a", "b"},
				GeneratorUsed:  statement.KindLocal,
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "generation completed") || !strings.Contains(out, "statements=2") {
			t.Errorf("unexpected log: %s", out)
		}
	})

	t.Run("failure", func(t *testing.T) {
		l, buf := capture()
		m := NewResultLogger(l)
		ctx := middleware.NewContext(context.Background(), nil)
		err := m.Execute(ctx, func(*middleware.Context) error {
			return statement.ErrNoGenerator
		})
		if err == nil {
			t.Fatal("error should propagate")
		}
		if !strings.Contains(buf.String(), "generation failed") {
			t.Errorf("unexpected log: %s", buf.String())
		}
	})
}
