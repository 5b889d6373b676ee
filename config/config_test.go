package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gentext/gentext/statement"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gentext.toml")
	body := `
[server]
addr = ":9090"
read_timeout = "10s"

[generation]
workers = 4
fallback_order = ["local", "paraphrase"]

[filter]
similarity_low = 0.2
similarity_high = 0.9
similarity_target = 0.5

[store]
backend = "postgres"
cache_enabled = true
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.ReadTimeout.Duration != 10*time.Second {
		t.Errorf("read_timeout = %v", cfg.Server.ReadTimeout.Duration)
	}
	if cfg.Generation.Workers != 4 {
		t.Errorf("workers = %d", cfg.Generation.Workers)
	}
	if cfg.Store.Backend != "postgres" || !cfg.Store.CacheEnabled {
		t.Errorf("store = %+v", cfg.Store)
	}
	// Unset sections keep defaults.
	if cfg.Claude.Model == "" || cfg.Text.SummaryRatio != 0.3 {
		t.Errorf("defaults lost: claude=%+v text=%+v", cfg.Claude, cfg.Text)
	}

	kinds := cfg.FallbackKinds()
	if len(kinds) != 2 || kinds[0] != statement.KindLocal {
		t.Errorf("fallback kinds = %v", kinds)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gentext.toml")
	body := `
[filter]
similarity_low = 0.9
similarity_high = 0.2
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for inverted similarity band")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GENTEXT_ADDR", ":7070")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("GENTEXT_STORE_BACKEND", "mongo")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Claude.APIKey != "sk-test" {
		t.Errorf("api key not overridden")
	}
	if cfg.Store.Backend != "mongo" {
		t.Errorf("backend = %q", cfg.Store.Backend)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/gentext.toml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
