package claude

import (
	"strings"
	"testing"
)

func TestParseStatements(t *testing.T) {
	partial := "The company announced"

	t.Run("plain lines pass through", func(t *testing.T) {
		got := parseStatements("The company announced a merger.\nThe company announced layoffs.", partial, 3)
		if len(got) != 2 {
			t.Fatalf("expected 2 statements, got %v", got)
		}
	})

	t.Run("prepends dropped partial", func(t *testing.T) {
		got := parseStatements("a merger with its largest rival.", partial, 3)
		if len(got) != 1 || got[0] != "The company announced a merger with its largest rival." {
			t.Fatalf("unexpected result: %v", got)
		}
	})

	t.Run("drops numbering and blanks", func(t *testing.T) {
		raw := "1\n\nThe company announced a merger.\n2\nThe company announced layoffs.\n"
		got := parseStatements(raw, partial, 3)
		if len(got) != 2 {
			t.Fatalf("expected 2 statements, got %v", got)
		}
	})

	t.Run("strips list prefixes", func(t *testing.T) {
		got := parseStatements("1. The company announced a merger.\n- The company announced layoffs.", partial, 3)
		if len(got) != 2 {
			t.Fatalf("expected 2 statements, got %v", got)
		}
		for _, s := range got {
			if !strings.HasPrefix(s, "The company announced") {
				t.Errorf("prefix not preserved: %q", s)
			}
		}
	})

	t.Run("caps at requested count", func(t *testing.T) {
		raw := strings.Repeat("The company announced something different each time.\n", 6)
		got := parseStatements(raw, partial, 3)
		if len(got) > 3 {
			t.Fatalf("expected at most 3 statements, got %d", len(got))
		}
	})
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(DefaultConfig("")); err == nil {
		t.Fatal("expected error for missing API key")
	}
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	g, err := New(DefaultConfig("test-key"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !g.Ready() {
		t.Error("remote generator should always report ready")
	}
}

func TestStatementPromptMentionsBothSentences(t *testing.T) {
	p := statementPrompt("The company announced", "The company announced record profits.", 3)
	if !strings.Contains(p, "The company announced record profits.") {
		t.Error("prompt missing full sentence")
	}
	if !strings.Contains(p, "one per line") {
		t.Error("prompt missing line-delimited instruction")
	}
}
