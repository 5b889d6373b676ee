package vector

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vectors score 1", func(t *testing.T) {
		a := []float32{0.5, 0.2, 0.9}
		got := CosineSimilarity(a, a)
		if math.Abs(float64(got)-1) > 1e-5 {
			t.Fatalf("expected 1, got %f", got)
		}
	})

	t.Run("orthogonal vectors score 0", func(t *testing.T) {
		got := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
		if got != 0 {
			t.Fatalf("expected 0, got %f", got)
		}
	})

	t.Run("mismatched lengths score 0", func(t *testing.T) {
		if got := CosineSimilarity([]float32{1}, []float32{1, 0}); got != 0 {
			t.Fatalf("expected 0, got %f", got)
		}
	})

	t.Run("zero vector scores 0", func(t *testing.T) {
		if got := CosineSimilarity([]float32{0, 0}, []float32{1, 0}); got != 0 {
			t.Fatalf("expected 0, got %f", got)
		}
	})
}

func TestNormalize(t *testing.T) {
	vec := Normalize([]float32{3, 4})
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if math.Abs(sum-1) > 1e-5 {
		t.Fatalf("expected unit length, got norm^2=%f", sum)
	}
}
