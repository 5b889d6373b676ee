package errorhandler

import (
	"context"
	"errors"
	"testing"

	"github.com/gentext/gentext/middleware"
	"github.com/gentext/gentext/statement"
)

func TestErrorHandlerMapsError(t *testing.T) {
	mapped := errors.New("wrapped for caller")
	m := NewErrorHandler(func(err error) error { return mapped })
	ctx := middleware.NewContext(context.Background(), nil)
	err := m.Execute(ctx, func(*middleware.Context) error {
		return errors.New("internal detail")
	})
	if !errors.Is(err, mapped) {
		t.Fatalf("expected mapped error, got %v", err)
	}
}

func TestDegraderSwallowsGenerationFailure(t *testing.T) {
	m := NewDegrader()
	req := &statement.Request{
		PartialText: "The capital of France",
		FullText:    "The capital of France is Paris.",
		Count:       3,
		Kind:        statement.KindLocal,
	}
	ctx := middleware.NewContext(context.Background(), req)
	err := m.Execute(ctx, func(*middleware.Context) error {
		return errors.New("model blew up")
	})
	if err != nil {
		t.Fatalf("expected degraded success, got %v", err)
	}
	if ctx.Result == nil || len(ctx.Result.FalseSentences) != 0 {
		t.Fatalf("expected empty result, got %+v", ctx.Result)
	}
}

func TestDegraderKeepsContractErrors(t *testing.T) {
	m := NewDegrader()
	for _, sentinel := range []error{statement.ErrInvalidInput, statement.ErrNoGenerator} {
		ctx := middleware.NewContext(context.Background(), nil)
		err := m.Execute(ctx, func(*middleware.Context) error { return sentinel })
		if !errors.Is(err, sentinel) {
			t.Fatalf("contract error %v was swallowed, got %v", sentinel, err)
		}
	}
}
