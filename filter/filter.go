// Package filter turns raw generated strings into a ranked, deduplicated,
// validated short list of false statements.
package filter

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/gentext/gentext/pkg/logging"
	"github.com/gentext/gentext/statement"
	"github.com/gentext/gentext/textheur"
	"github.com/gentext/gentext/vector"
)

// Options holds the tunable filtering thresholds. The similarity band and
// target vary across deployments, so they are configuration rather than
// constants.
type Options struct {
	// MinWords and MaxWords bound the accepted candidate length.
	MinWords int
	MaxWords int

	// YearCutoff discards candidates mentioning a year greater than this
	// value. Anachronism guard for historical-sounding content; 0 disables.
	YearCutoff int

	// LowSimilarity and HighSimilarity delimit the half-open acceptance band
	// [low, high): below rejects unrelated garbage, at-or-above rejects
	// paraphrases too close to the truth.
	LowSimilarity  float32
	HighSimilarity float32

	// TargetSimilarity is the "related but clearly different" sweet spot;
	// survivors are ranked by absolute distance from it.
	TargetSimilarity float32
}

// DefaultOptions returns the thresholds used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MinWords:         5,
		MaxWords:         24,
		YearCutoff:       2000,
		LowSimilarity:    0.30,
		HighSimilarity:   0.80,
		TargetSimilarity: 0.60,
	}
}

// Option customizes a Filter.
type Option func(*Options)

// WithWordBounds overrides the accepted word-count range.
func WithWordBounds(min, max int) Option {
	return func(o *Options) {
		if min > 0 {
			o.MinWords = min
		}
		if max > 0 {
			o.MaxWords = max
		}
	}
}

// WithSimilarityBand overrides the [low, high) acceptance band and target.
func WithSimilarityBand(low, high, target float32) Option {
	return func(o *Options) {
		o.LowSimilarity = low
		o.HighSimilarity = high
		o.TargetSimilarity = target
	}
}

// WithYearCutoff overrides the anachronism year bound; 0 disables the check.
func WithYearCutoff(year int) Option {
	return func(o *Options) {
		o.YearCutoff = year
	}
}

// Filter validates and ranks candidate statements against an original
// sentence using embedding similarity.
type Filter struct {
	embedder vector.Embedder
	opts     Options
	logger   *slog.Logger
}

// New constructs a Filter. The embedder may be nil, in which case every
// selection degrades to the unranked structural pass.
func New(embedder vector.Embedder, opts ...Option) *Filter {
	cfg := DefaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Filter{
		embedder: embedder,
		opts:     cfg,
		logger:   logging.WithComponent("filter"),
	}
}

// Select cleans, validates, scores and ranks the raw candidates, returning at
// most maxResults false statements. Embedding failures degrade to the first
// maxResults structurally valid candidates unranked; Select never fails the
// whole request.
func (f *Filter) Select(ctx context.Context, original string, raw []string, maxResults int) []string {
	if maxResults <= 0 || len(raw) == 0 {
		return nil
	}

	cleaned := f.clean(raw)
	valid := make([]string, 0, len(cleaned))
	for _, c := range cleaned {
		if f.structurallyValid(c) && c != strings.TrimSpace(original) {
			valid = append(valid, c)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	scored, err := f.score(ctx, original, valid)
	if err != nil {
		f.logger.Warn("embedding failed, returning unranked candidates", "error", err)
		if len(valid) > maxResults {
			valid = valid[:maxResults]
		}
		return valid
	}

	inBand := scored[:0]
	for _, cand := range scored {
		if cand.Similarity >= f.opts.LowSimilarity && cand.Similarity < f.opts.HighSimilarity {
			inBand = append(inBand, cand)
		}
	}

	target := f.opts.TargetSimilarity
	sort.SliceStable(inBand, func(i, j int) bool {
		di := math.Abs(float64(target - inBand[i].Similarity))
		dj := math.Abs(float64(target - inBand[j].Similarity))
		return di < dj
	})

	if len(inBand) > maxResults {
		inBand = inBand[:maxResults]
	}
	out := make([]string, len(inBand))
	for i, cand := range inBand {
		out[i] = cand.Text
	}
	return out
}

// clean reduces each raw candidate to its normalized first sentence and
// drops exact duplicates, preserving first-seen order.
func (f *Filter) clean(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		first := textheur.FirstSentence(r)
		if first == "" {
			continue
		}
		norm := textheur.NormalizeTrailing(first)
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}

func (f *Filter) structurallyValid(sent string) bool {
	wc := textheur.WordCount(sent)
	if wc < f.opts.MinWords || wc > f.opts.MaxWords {
		return false
	}
	if !textheur.HasVerb(sent) {
		return false
	}
	if !textheur.HasSubject(sent) {
		return false
	}
	if f.opts.YearCutoff > 0 && textheur.HasYearAfter(sent, f.opts.YearCutoff) {
		return false
	}
	return true
}

// score embeds the original and every candidate in one batched call and
// attaches cosine similarities.
func (f *Filter) score(ctx context.Context, original string, candidates []string) ([]statement.Candidate, error) {
	if f.embedder == nil {
		return nil, statement.ErrNotReady
	}

	texts := make([]string, 0, len(candidates)+1)
	texts = append(texts, original)
	texts = append(texts, candidates...)

	vecs, err := f.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, statement.ErrInvalidInput
	}

	origVec := vecs[0]
	out := make([]statement.Candidate, len(candidates))
	for i, c := range candidates {
		out[i] = statement.Candidate{
			Text:       c,
			Similarity: vector.CosineSimilarity(origVec, vecs[i+1]),
		}
	}
	return out, nil
}
