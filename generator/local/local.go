// Package local implements the statement generator backed by the local
// inference sidecar's generative model. The model is loaded lazily; callers
// arriving before the load finishes block until it completes.
package local

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gentext/gentext/filter"
	"github.com/gentext/gentext/pkg/logging"
	"github.com/gentext/gentext/sidecar"
	"github.com/gentext/gentext/statement"
)

// State is the adapter's model-load state. Failed is terminal for the
// instance; retrying means constructing a new one.
type State int32

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Config holds the local generator's model and sampling configuration.
type Config struct {
	Model string

	// OverGenerate is how many raw candidates to sample per requested
	// statement, giving the filter enough material.
	OverGenerate int

	// MaxCandidates caps the total sampled sequences per call.
	MaxCandidates int

	MaxNewTokens      int
	Temperature       float64
	TopP              float64
	TopK              int
	RepetitionPenalty float64
}

// DefaultConfig mirrors the sampling settings the model was tuned with.
func DefaultConfig() *Config {
	return &Config{
		Model:             "gpt2-medium",
		OverGenerate:      4,
		MaxCandidates:     12,
		MaxNewTokens:      80,
		Temperature:       1.0,
		TopP:              0.92,
		TopK:              50,
		RepetitionPenalty: 1.2,
	}
}

// Generator wraps the sidecar's generative model and the candidate filter.
type Generator struct {
	client *sidecar.Client
	filter *filter.Filter
	config *Config
	logger *slog.Logger

	state    atomic.Int32
	loadOnce sync.Once
	loadDone chan struct{}
	loadErr  error
}

// New constructs the local generator without touching the model; the first
// generation call (or an explicit StartLoading) triggers the load.
func New(client *sidecar.Client, filt *filter.Filter, config *Config) *Generator {
	if config == nil {
		config = DefaultConfig()
	}
	if config.OverGenerate <= 0 {
		config.OverGenerate = 4
	}
	if config.MaxCandidates <= 0 {
		config.MaxCandidates = 12
	}
	return &Generator{
		client:   client,
		filter:   filt,
		config:   config,
		logger:   logging.WithComponent("generator").With("kind", statement.KindLocal),
		loadDone: make(chan struct{}),
	}
}

// Kind implements generator.Generator.
func (g *Generator) Kind() string {
	return string(statement.KindLocal)
}

// State returns the current load state.
func (g *Generator) State() State {
	return State(g.state.Load())
}

// Ready implements generator.Generator: true only once the model is loaded.
func (g *Generator) Ready() bool {
	return g.State() == StateReady
}

// StartLoading kicks off the model load in the background. Safe to call more
// than once; only the first call does anything.
func (g *Generator) StartLoading(ctx context.Context) {
	g.loadOnce.Do(func() {
		g.state.Store(int32(StateLoading))
		g.logger.Info("loading model", "model", g.config.Model)
		go func() {
			defer close(g.loadDone)
			if err := g.client.LoadModel(ctx, g.config.Model); err != nil {
				g.loadErr = fmt.Errorf("local: load model %s: %w", g.config.Model, err)
				g.state.Store(int32(StateFailed))
				g.logger.Error("model load failed", "model", g.config.Model, "error", err)
				return
			}
			g.state.Store(int32(StateReady))
			g.logger.Info("model loaded", "model", g.config.Model)
		}()
	})
}

// ensureReady blocks until the model is loaded, triggering the load if nobody
// has yet. Callers that cannot wait should check Ready first.
func (g *Generator) ensureReady(ctx context.Context) error {
	if g.Ready() {
		return nil
	}
	g.StartLoading(context.WithoutCancel(ctx))
	select {
	case <-g.loadDone:
		if g.loadErr != nil {
			return g.loadErr
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", statement.ErrNotReady, ctx.Err())
	}
}

// GenerateFalseStatements implements generator.Generator: over-generate raw
// completions from the partial sentence, then let the filter pick the best.
func (g *Generator) GenerateFalseStatements(ctx context.Context, partial, full string, count int) ([]string, error) {
	if err := g.ensureReady(ctx); err != nil {
		return nil, err
	}

	raw, err := g.client.Generate(ctx, g.params(partial, count))
	if err != nil {
		return nil, fmt.Errorf("local: generate: %w", err)
	}

	candidates := completions(partial, raw)
	return g.filter.Select(ctx, full, candidates, count), nil
}

// GenerateStatementsBatch implements generator.BatchGenerator with a single
// sidecar call across the whole batch.
func (g *Generator) GenerateStatementsBatch(ctx context.Context, partials, fulls []string, count int) ([][]string, error) {
	if err := g.ensureReady(ctx); err != nil {
		return nil, err
	}

	raw, err := g.client.GenerateBatch(ctx, partials, g.params("", count))
	if err != nil {
		return nil, fmt.Errorf("local: generate batch: %w", err)
	}

	results := make([][]string, len(partials))
	for i := range partials {
		full := ""
		if i < len(fulls) {
			full = fulls[i]
		}
		results[i] = g.filter.Select(ctx, full, completions(partials[i], raw[i]), count)
	}
	return results, nil
}

func (g *Generator) params(prompt string, count int) sidecar.GenerateParams {
	n := count * g.config.OverGenerate
	if n > g.config.MaxCandidates {
		n = g.config.MaxCandidates
	}
	return sidecar.GenerateParams{
		Prompt:            prompt,
		NumReturn:         n,
		MaxNewTokens:      g.config.MaxNewTokens,
		Temperature:       g.config.Temperature,
		TopP:              g.config.TopP,
		TopK:              g.config.TopK,
		RepetitionPenalty: g.config.RepetitionPenalty,
	}
}

// completions joins the prompt back onto each sampled continuation; the
// sidecar returns continuations only.
func completions(partial string, raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if r == "" {
			continue
		}
		out = append(out, joinPartial(partial, r))
	}
	return out
}

func joinPartial(partial, completion string) string {
	if partial == "" {
		return completion
	}
	if completion != "" && (completion[0] == ' ' || partial[len(partial)-1] == ' ') {
		return partial + completion
	}
	return partial + " " + completion
}
