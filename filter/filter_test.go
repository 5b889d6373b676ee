package filter

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
)

// stubEmbedder returns fixed vectors per text. Vectors are built so cosine
// similarity against the original equals the configured value.
type stubEmbedder struct {
	sims map[string]float64
	err  error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if i == 0 {
			out[i] = []float32{1, 0}
			continue
		}
		sim, ok := s.sims[t]
		if !ok {
			sim = 0
		}
		out[i] = []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
	}
	return out, nil
}

func (s *stubEmbedder) Dimension() int { return 2 }

const original = "The company announced record profits for the third quarter."

func TestSelectRanksByDistanceFromTarget(t *testing.T) {
	emb := &stubEmbedder{sims: map[string]float64{
		"The company announced a new factory in Berlin.":     0.62,
		"The company announced major layoffs last week.":     0.45,
		"The company announced it was moving headquarters.":  0.71,
		"Purple monkeys dishwasher banana keyboard sunrise.": 0.10,
	}}
	f := New(emb)

	raw := []string{
		"The company announced major layoffs last week.",
		"The company announced a new factory in Berlin.",
		"The company announced it was moving headquarters.",
		"Purple monkeys dishwasher banana keyboard sunrise.",
	}
	got := f.Select(context.Background(), original, raw, 3)

	want := []string{
		"The company announced a new factory in Berlin.",
		"The company announced it was moving headquarters.",
		"The company announced major layoffs last week.",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected ranking:\n got %v\nwant %v", got, want)
	}
}

func TestSelectEnforcesSimilarityBand(t *testing.T) {
	emb := &stubEmbedder{sims: map[string]float64{
		"The company announced record profits for this quarter.": 0.95, // too close
		"The weather in Lisbon was sunny all through October.":   0.05, // unrelated
		"The company announced a modest quarterly loss instead.": 0.55,
	}}
	f := New(emb)

	got := f.Select(context.Background(), original, []string{
		"The company announced record profits for this quarter.",
		"The weather in Lisbon was sunny all through October.",
		"The company announced a modest quarterly loss instead.",
	}, 3)

	if len(got) != 1 || got[0] != "The company announced a modest quarterly loss instead." {
		t.Fatalf("expected only the in-band candidate, got %v", got)
	}
}

func TestSelectIsDeterministic(t *testing.T) {
	emb := &stubEmbedder{sims: map[string]float64{
		"The company announced a new factory in Berlin.":    0.62,
		"The company announced major layoffs last week.":    0.45,
		"The company announced it was moving headquarters.": 0.71,
	}}
	f := New(emb)
	raw := []string{
		"The company announced a new factory in Berlin.",
		"The company announced major layoffs last week.",
		"The company announced it was moving headquarters.",
	}

	first := f.Select(context.Background(), original, raw, 3)
	for i := 0; i < 5; i++ {
		again := f.Select(context.Background(), original, raw, 3)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("selection not deterministic: %v vs %v", first, again)
		}
	}
}

func TestSelectNeverExceedsMaxResults(t *testing.T) {
	sims := map[string]float64{
		"The board approved the merger without much debate.":  0.50,
		"The board approved a dividend increase on Friday.":   0.55,
		"The board approved the chairman's retirement plan.":  0.60,
		"The board approved new offices in three countries.":  0.65,
		"The board approved a partnership with its supplier.": 0.70,
	}
	raw := make([]string, 0, len(sims))
	for s := range sims {
		raw = append(raw, s)
	}
	f := New(&stubEmbedder{sims: sims})

	got := f.Select(context.Background(), original, raw, 2)
	if len(got) > 2 {
		t.Fatalf("expected at most 2 results, got %d", len(got))
	}
}

func TestSelectDegradesOnEmbeddingFailure(t *testing.T) {
	f := New(&stubEmbedder{err: errors.New("encoder offline")})

	got := f.Select(context.Background(), original, []string{
		"The company announced a modest quarterly loss instead.",
		"The company announced a new factory in Berlin.",
		"The company announced it was moving headquarters.",
	}, 2)

	if len(got) != 2 {
		t.Fatalf("expected 2 unranked fallback results, got %v", got)
	}
	if got[0] != "The company announced a modest quarterly loss instead." {
		t.Fatalf("fallback should preserve input order, got %v", got)
	}
}

func TestSelectDiscardsStructurallyInvalid(t *testing.T) {
	emb := &stubEmbedder{sims: map[string]float64{
		"Short bad one.": 0.6,
		"The dynasty collapsed suddenly in 2019 after the rebellion.": 0.6,
		"The company announced a modest quarterly loss instead.":      0.6,
	}}
	f := New(emb)

	got := f.Select(context.Background(), original, []string{
		"Short bad one.", // below word bound
		"The dynasty collapsed suddenly in 2019 after the rebellion.", // anachronistic year
		"The company announced a modest quarterly loss instead.",
	}, 3)

	if len(got) != 1 || got[0] != "The company announced a modest quarterly loss instead." {
		t.Fatalf("expected only the valid candidate, got %v", got)
	}
}

func TestSelectDeduplicatesAndTruncatesToFirstSentence(t *testing.T) {
	emb := &stubEmbedder{sims: map[string]float64{
		"The company announced a modest quarterly loss instead.": 0.6,
	}}
	f := New(emb)

	got := f.Select(context.Background(), original, []string{
		"The company announced a modest quarterly loss instead. Extra trailing sentence here.",
		"The company announced a modest quarterly loss instead.",
	}, 3)

	if len(got) != 1 {
		t.Fatalf("expected duplicates collapsed to 1, got %v", got)
	}
}
