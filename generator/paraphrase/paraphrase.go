// Package paraphrase implements a statement generator that rewrites the full
// sentence through the sidecar's diverse-beam paraphraser instead of
// completing the partial. Useful as a fallback source of false statements
// when the generative model struggles with a prompt.
package paraphrase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gentext/gentext/filter"
	"github.com/gentext/gentext/pkg/logging"
	"github.com/gentext/gentext/sidecar"
	"github.com/gentext/gentext/statement"
)

// Config holds paraphrase generator settings.
type Config struct {
	// OverGenerate is how many paraphrases to request per desired statement.
	OverGenerate int

	// MaxCandidates caps the paraphrases requested in one call.
	MaxCandidates int
}

// DefaultConfig returns the defaults.
func DefaultConfig() *Config {
	return &Config{
		OverGenerate:  3,
		MaxCandidates: 9,
	}
}

// Generator produces false statements by paraphrasing the original sentence
// and keeping only rewrites that drift far enough from the truth.
type Generator struct {
	client *sidecar.Client
	filter *filter.Filter
	config *Config
	logger *slog.Logger

	healthMu  sync.Mutex
	healthy   bool
	checkedAt time.Time
}

// healthTTL is how long a sidecar health probe result stays cached. Ready is
// called on every /ready request, so it must not hit the sidecar each time.
const healthTTL = 5 * time.Second

// New constructs a paraphrase generator.
func New(client *sidecar.Client, filt *filter.Filter, config *Config) *Generator {
	if config == nil {
		config = DefaultConfig()
	}
	if config.OverGenerate <= 0 {
		config.OverGenerate = 3
	}
	if config.MaxCandidates <= 0 {
		config.MaxCandidates = 9
	}
	return &Generator{
		client: client,
		filter: filt,
		config: config,
		logger: logging.WithComponent("generator").With("kind", statement.KindParaphrase),
	}
}

// Kind implements generator.Generator.
func (g *Generator) Kind() string {
	return string(statement.KindParaphrase)
}

// Ready implements generator.Generator. The paraphraser is loaded eagerly by
// the sidecar, so readiness tracks sidecar health, cached for healthTTL to
// keep repeated readiness checks off the wire.
func (g *Generator) Ready() bool {
	g.healthMu.Lock()
	defer g.healthMu.Unlock()
	if time.Since(g.checkedAt) < healthTTL {
		return g.healthy
	}
	g.healthy = g.client.Healthy(context.Background())
	g.checkedAt = time.Now()
	return g.healthy
}

// GenerateFalseStatements implements generator.Generator. The partial
// sentence is unused; paraphrasing works on the full sentence.
func (g *Generator) GenerateFalseStatements(ctx context.Context, _, full string, count int) ([]string, error) {
	n := count * g.config.OverGenerate
	if n > g.config.MaxCandidates {
		n = g.config.MaxCandidates
	}

	raw, err := g.client.Paraphrase(ctx, full, n)
	if err != nil {
		return nil, fmt.Errorf("paraphrase: %w", err)
	}

	selected := g.filter.Select(ctx, full, raw, count)
	g.logger.Debug("paraphrase candidates filtered", "raw", len(raw), "kept", len(selected))
	return selected, nil
}
