// Package config loads service configuration from a TOML file with
// environment variable overrides, and validates it before the service
// starts.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/gentext/gentext/pkg/env"
	"github.com/gentext/gentext/statement"
)

// Config is the full service configuration.
type Config struct {
	Server     Server     `toml:"server"`
	Generation Generation `toml:"generation"`
	Filter     Filter     `toml:"filter"`
	Claude     Claude     `toml:"claude"`
	Sidecar    Sidecar    `toml:"sidecar"`
	Embedding  Embedding  `toml:"embedding"`
	Text       Text       `toml:"text"`
	Store      Store      `toml:"store"`
	Limits     Limits     `toml:"limits"`
	Telemetry  Telemetry  `toml:"telemetry"`
}

// Server configures the HTTP listener.
type Server struct {
	Addr            string   `toml:"addr"`
	ReadTimeout     duration `toml:"read_timeout"`
	WriteTimeout    duration `toml:"write_timeout"`
	ShutdownTimeout duration `toml:"shutdown_timeout"`
	CORSOrigins     []string `toml:"cors_origins"`
}

// Generation configures the orchestrator.
type Generation struct {
	Workers           int      `toml:"workers"`
	DefaultKind       string   `toml:"default_kind"`
	FallbackOrder     []string `toml:"fallback_order"`
	BatchTimeoutFloor duration `toml:"batch_timeout_floor"`
	PerItemBudget     duration `toml:"per_item_budget"`
}

// Filter configures the embedding-similarity candidate filter.
type Filter struct {
	MinWords         int     `toml:"min_words"`
	MaxWords         int     `toml:"max_words"`
	SimilarityLow    float64 `toml:"similarity_low"`
	SimilarityHigh   float64 `toml:"similarity_high"`
	SimilarityTarget float64 `toml:"similarity_target"`
	YearCutoff       int     `toml:"year_cutoff"`
}

// Claude configures the remote generator adapter.
type Claude struct {
	APIKey      string   `toml:"api_key"`
	Model       string   `toml:"model"`
	MaxTokens   int      `toml:"max_tokens"`
	Temperature float64  `toml:"temperature"`
	MaxAttempts int      `toml:"max_attempts"`
	RetryBase   duration `toml:"retry_base"`
}

// Sidecar configures the local inference sidecar.
type Sidecar struct {
	BaseURL         string `toml:"base_url"`
	GenerationModel string `toml:"generation_model"`
	EagerLoad       bool   `toml:"eager_load"`
}

// Embedding selects and configures the embedding backend.
type Embedding struct {
	Provider string `toml:"provider"` // "openai" or "sidecar"
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`
}

// Text configures the text processing pipeline.
type Text struct {
	SummaryRatio   float64 `toml:"summary_ratio"`
	MinSentenceLen int     `toml:"min_sentence_len"`
	MaxSentenceLen int     `toml:"max_sentence_len"`
	PartialRatio   float64 `toml:"partial_ratio"`
	MaxTokens      int     `toml:"max_tokens"`
}

// Store selects the interaction store backend and result cache.
type Store struct {
	Backend      string `toml:"backend"` // "memory", "postgres" or "mongo"
	CacheEnabled bool   `toml:"cache_enabled"`
}

// Limits configures the request rate limiter.
type Limits struct {
	RPS   float64 `toml:"rps"`
	Burst int     `toml:"burst"`
}

// Telemetry configures tracing.
type Telemetry struct {
	Enabled  bool   `toml:"enabled"`
	Exporter string `toml:"exporter"` // "stdout" or "otlp"
	Endpoint string `toml:"endpoint"`
}

// duration lets TOML carry values like "30s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the built-in configuration, used when no file is given.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     duration{30 * time.Second},
			WriteTimeout:    duration{5 * time.Minute},
			ShutdownTimeout: duration{15 * time.Second},
			CORSOrigins:     []string{"*"},
		},
		Generation: Generation{
			DefaultKind:       string(statement.KindClaude),
			FallbackOrder:     []string{"claude", "local", "paraphrase"},
			BatchTimeoutFloor: duration{60 * time.Second},
			PerItemBudget:     duration{30 * time.Second},
		},
		Filter: Filter{
			MinWords:         5,
			MaxWords:         24,
			SimilarityLow:    0.30,
			SimilarityHigh:   0.80,
			SimilarityTarget: 0.60,
			YearCutoff:       2000,
		},
		Claude: Claude{
			Model:       "claude-3-7-sonnet-20250219",
			MaxTokens:   1024,
			Temperature: 0.9,
			MaxAttempts: 3,
			RetryBase:   duration{500 * time.Millisecond},
		},
		Sidecar: Sidecar{
			BaseURL:         "http://localhost:8001",
			GenerationModel: "gpt2-medium",
			EagerLoad:       true,
		},
		Embedding: Embedding{
			Provider: "sidecar",
			Model:    "text-embedding-3-small",
		},
		Text: Text{
			SummaryRatio:   0.3,
			MinSentenceLen: 30,
			MaxSentenceLen: 150,
			PartialRatio:   0.7,
		},
		Store: Store{
			Backend:      "memory",
			CacheEnabled: false,
		},
		Limits: Limits{
			RPS:   10,
			Burst: 20,
		},
		Telemetry: Telemetry{
			Exporter: "stdout",
		},
	}
}

// Load builds the configuration: defaults, then the TOML file at path (if
// any), then environment overrides, then validation.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with environment variables. Secrets are
// expected to arrive this way rather than through the file.
func (c *Config) applyEnv() {
	c.Server.Addr = env.GetEnv("GENTEXT_ADDR", c.Server.Addr)
	c.Claude.APIKey = env.GetEnv("ANTHROPIC_API_KEY", c.Claude.APIKey)
	c.Claude.Model = env.GetEnv("GENTEXT_CLAUDE_MODEL", c.Claude.Model)
	c.Sidecar.BaseURL = env.GetEnv("GENTEXT_SIDECAR_URL", c.Sidecar.BaseURL)
	c.Embedding.Provider = env.GetEnv("GENTEXT_EMBEDDING_PROVIDER", c.Embedding.Provider)
	c.Embedding.APIKey = env.GetEnv("OPENAI_API_KEY", c.Embedding.APIKey)
	c.Store.Backend = env.GetEnv("GENTEXT_STORE_BACKEND", c.Store.Backend)
	c.Generation.Workers = env.GetEnvInt("GENTEXT_WORKERS", c.Generation.Workers)
	c.Telemetry.Endpoint = env.GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Telemetry.Endpoint)
}

// Validate checks cross-field invariants. It is called by Load but exported
// for callers that assemble a Config by hand.
func (c *Config) Validate() error {
	v := NewValidator()

	v.RequireNonEmpty("server.addr", c.Server.Addr)
	v.ValidateOneOf("embedding.provider", c.Embedding.Provider, "openai", "sidecar")
	v.ValidateOneOf("store.backend", c.Store.Backend, "memory", "postgres", "mongo")
	v.ValidateOneOf("telemetry.exporter", c.Telemetry.Exporter, "stdout", "otlp")
	v.ValidateFloatRange("text.summary_ratio", c.Text.SummaryRatio, 0, 1)
	v.ValidateFloatRange("text.partial_ratio", c.Text.PartialRatio, 0, 1)
	v.RequirePositive("filter.min_words", c.Filter.MinWords)
	v.ValidateFloatRange("claude.temperature", c.Claude.Temperature, 0, 2)
	v.RequirePositive("claude.max_tokens", c.Claude.MaxTokens)
	validateSimilarityBand(v, c.Filter.SimilarityLow, c.Filter.SimilarityHigh, c.Filter.SimilarityTarget)

	if c.Generation.DefaultKind != "" && !statement.Kind(c.Generation.DefaultKind).Valid() {
		v.ValidateOneOf("generation.default_kind", c.Generation.DefaultKind, "claude", "local", "paraphrase")
	}
	for _, k := range c.Generation.FallbackOrder {
		if !statement.Kind(k).Valid() {
			v.ValidateOneOf("generation.fallback_order", k, "claude", "local", "paraphrase")
		}
	}

	return v.Error()
}

// FallbackKinds converts the configured fallback order to typed kinds.
func (c *Config) FallbackKinds() []statement.Kind {
	out := make([]statement.Kind, 0, len(c.Generation.FallbackOrder))
	for _, k := range c.Generation.FallbackOrder {
		out = append(out, statement.Kind(k))
	}
	return out
}
