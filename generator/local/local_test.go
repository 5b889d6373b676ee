package local

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gentext/gentext/filter"
	"github.com/gentext/gentext/sidecar"
)

type fixedEmbedder struct {
	sims map[string]float64
}

func (f *fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fixedEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if i == 0 {
			out[i] = []float32{1, 0}
			continue
		}
		sim := f.sims[t]
		out[i] = []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
	}
	return out, nil
}

func (f *fixedEmbedder) Dimension() int { return 2 }

// fakeSidecar serves the load and generate endpoints.
func fakeSidecar(t *testing.T, loadDelay time.Duration, loadStatus int, outputs []string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var loads atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/models/load":
			loads.Add(1)
			time.Sleep(loadDelay)
			w.WriteHeader(loadStatus)
		case "/v1/generate":
			json.NewEncoder(w).Encode(map[string]any{"outputs": outputs})
		case "/v1/generate_batch":
			var req struct {
				Prompts []string `json:"prompts"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			all := make([][]string, len(req.Prompts))
			for i := range all {
				all[i] = outputs
			}
			json.NewEncoder(w).Encode(map[string]any{"outputs": all})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &loads
}

const full = "The company announced record profits for the third quarter."

func newTestGenerator(t *testing.T, srv *httptest.Server) *Generator {
	t.Helper()
	emb := &fixedEmbedder{sims: map[string]float64{
		"The company announced a merger with its largest rival.": 0.62,
		"The company announced sweeping layoffs across Europe.":  0.55,
	}}
	return New(sidecar.New(srv.URL), filter.New(emb), DefaultConfig())
}

func TestStateMachine(t *testing.T) {
	srv, loads := fakeSidecar(t, 50*time.Millisecond, http.StatusOK, nil)
	g := newTestGenerator(t, srv)

	if g.State() != StateUninitialized {
		t.Fatalf("expected uninitialized, got %v", g.State())
	}
	g.StartLoading(context.Background())
	if s := g.State(); s != StateLoading && s != StateReady {
		t.Fatalf("expected loading or ready, got %v", s)
	}

	<-g.loadDone
	if g.State() != StateReady || !g.Ready() {
		t.Fatalf("expected ready, got %v", g.State())
	}

	// Repeated StartLoading must not reload.
	g.StartLoading(context.Background())
	time.Sleep(10 * time.Millisecond)
	if loads.Load() != 1 {
		t.Fatalf("expected single load call, got %d", loads.Load())
	}
}

func TestLoadFailureIsTerminal(t *testing.T) {
	srv, _ := fakeSidecar(t, 0, http.StatusInternalServerError, nil)
	g := newTestGenerator(t, srv)

	_, err := g.GenerateFalseStatements(context.Background(), "The company announced", full, 3)
	if err == nil {
		t.Fatal("expected load failure error")
	}
	if g.State() != StateFailed {
		t.Fatalf("expected failed state, got %v", g.State())
	}

	// A fresh instance against a healthy sidecar recovers.
	srv2, _ := fakeSidecar(t, 0, http.StatusOK, []string{" a merger with its largest rival."})
	g2 := newTestGenerator(t, srv2)
	if _, err := g2.GenerateFalseStatements(context.Background(), "The company announced", full, 3); err != nil {
		t.Fatalf("fresh instance should recover, got %v", err)
	}
}

func TestGenerateWaitsForLazyLoad(t *testing.T) {
	srv, _ := fakeSidecar(t, 30*time.Millisecond, http.StatusOK, []string{
		" a merger with its largest rival.",
		" sweeping layoffs across Europe.",
	})
	g := newTestGenerator(t, srv)

	// No explicit StartLoading: the call itself must load and wait.
	got, err := g.GenerateFalseStatements(context.Background(), "The company announced", full, 3)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	if len(got) == 0 || len(got) > 3 {
		t.Fatalf("unexpected result size: %v", got)
	}
	if !g.Ready() {
		t.Error("generator should be ready after first call")
	}
}

func TestGenerateRespectsCallerDeadline(t *testing.T) {
	srv, _ := fakeSidecar(t, 200*time.Millisecond, http.StatusOK, nil)
	g := newTestGenerator(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := g.GenerateFalseStatements(ctx, "The company announced", full, 3)
	if err == nil {
		t.Fatal("expected not-ready error under a short deadline")
	}
}

func TestBatchAlignment(t *testing.T) {
	srv, _ := fakeSidecar(t, 0, http.StatusOK, []string{" a merger with its largest rival."})
	g := newTestGenerator(t, srv)

	partials := []string{"The company announced", "The company announced"}
	fulls := []string{full, full}
	got, err := g.GenerateStatementsBatch(context.Background(), partials, fulls, 2)
	if err != nil {
		t.Fatalf("batch error: %v", err)
	}
	if len(got) != len(partials) {
		t.Fatalf("expected %d results, got %d", len(partials), len(got))
	}
}
