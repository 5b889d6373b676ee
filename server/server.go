// Package server exposes the generation service over HTTP: statement and QA
// generation, text processing, and the health/readiness surface.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gentext/gentext/config"
	"github.com/gentext/gentext/middleware"
	"github.com/gentext/gentext/middleware/enricher"
	"github.com/gentext/gentext/middleware/limiter"
	mwlogger "github.com/gentext/gentext/middleware/logger"
	"github.com/gentext/gentext/middleware/validator"
	"github.com/gentext/gentext/orchestrator"
	"github.com/gentext/gentext/pkg/logging"
	"github.com/gentext/gentext/qa"
	"github.com/gentext/gentext/statement"
	"github.com/gentext/gentext/store"
	"github.com/gentext/gentext/textpipe"
)

// Server wires the HTTP surface to the orchestrator and its supporting
// services.
type Server struct {
	cfg      *config.Config
	orch     *orchestrator.Orchestrator
	pipeline *textpipe.Pipeline
	history  store.InteractionStore
	cache    *store.RedisCache
	chain    *middleware.Chain
	metrics  *metrics
	logger   *slog.Logger
	http     *http.Server
}

// Option configures optional server collaborators.
type Option func(*Server)

// WithCache enables the Redis result cache.
func WithCache(c *store.RedisCache) Option {
	return func(s *Server) { s.cache = c }
}

// WithRegistry overrides the Prometheus registry (used in tests).
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.metrics = newMetrics(reg) }
}

// New builds the server and its middleware chain.
func New(cfg *config.Config, orch *orchestrator.Orchestrator, pipeline *textpipe.Pipeline, history store.InteractionStore, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		orch:     orch,
		pipeline: pipeline,
		history:  history,
		logger:   logging.WithComponent("server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = newMetrics(prometheus.DefaultRegisterer)
	}

	s.chain = middleware.NewChain(
		enricher.NewRequestID(),
		mwlogger.NewRequestLogger(s.logger),
		limiter.NewRateLimiter(cfg.Limits.RPS, cfg.Limits.Burst),
		validator.NewRequestValidator(nil),
		mwlogger.NewResultLogger(s.logger),
		validator.NewResultFilter(),
	)

	s.http = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}
	return s
}

// Routes builds the router. Exposed for tests.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.cors)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/generate/statements", s.handleGenerate)
		r.Post("/generate/batch", s.handleBatch)
		r.Post("/generate/qa", s.handleQA)
		r.Post("/process/text", s.handleProcessText)
		r.Get("/interactions", s.handleInteractions)
	})
	return r
}

// ListenAndServe runs the HTTP server until Shutdown or listener error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.cfg.Server.Addr)
	return s.http.ListenAndServe()
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) cors(next http.Handler) http.Handler {
	origins := strings.Join(s.cfg.Server.CORSOrigins, ", ")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origins != "" {
			w.Header().Set("Access-Control-Allow-Origin", origins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, route string, status int, v any) {
	s.metrics.requests.WithLabelValues(route, httpStatusLabel(status)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encoding failed", "route", route, "error", err)
	}
}

func httpStatusLabel(status int) string {
	switch {
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func (s *Server) writeError(w http.ResponseWriter, route string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, statement.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, limiter.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, statement.ErrNoGenerator), errors.Is(err, orchestrator.ErrShutdown):
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, route, status, errorResponse{Error: err.Error()})
}

// derivePartial supplies a missing partial sentence as the leading half of
// the full sentence's words.
func derivePartial(full string) string {
	words := strings.Fields(full)
	if len(words) <= 1 {
		return full
	}
	return strings.Join(words[:(len(words)+1)/2], " ")
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	const route = "generate_statements"

	var req statement.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, route, errors.Join(statement.ErrInvalidInput, err))
		return
	}
	if req.PartialText == "" {
		req.PartialText = derivePartial(req.FullText)
	}
	if req.Count == 0 {
		req.Count = 3
	}

	mctx := middleware.NewContext(r.Context(), &req)
	err := s.chain.Execute(mctx, func(c *middleware.Context) error {
		return s.generate(c)
	})
	if err != nil {
		s.writeError(w, route, err)
		return
	}
	s.writeJSON(w, route, http.StatusOK, mctx.Result)
}

// generate is the chain's final handler for single requests: cache lookup,
// orchestrator call, then best-effort persistence.
func (s *Server) generate(c *middleware.Context) error {
	ctx := c.Context()
	req := c.Request

	if s.cache != nil {
		if cached, ok, err := s.cache.Get(ctx, req); err != nil {
			s.logger.Warn("result cache lookup failed", "error", err)
		} else if ok {
			s.metrics.cacheHits.Inc()
			c.Result = cached
			return nil
		}
	}

	start := time.Now()
	res, err := s.orch.GenerateOne(ctx, req.Kind, req.PartialText, req.FullText, req.Count)
	if err != nil {
		return err
	}
	s.metrics.duration.WithLabelValues(string(res.GeneratorUsed)).Observe(time.Since(start).Seconds())
	s.metrics.statements.Add(float64(len(res.FalseSentences)))
	c.Result = res

	if s.cache != nil {
		if err := s.cache.Set(ctx, req, res); err != nil {
			s.logger.Warn("result cache store failed", "error", err)
		}
	}
	if s.history != nil {
		record := &store.Interaction{
			RequestID:      c.RequestID,
			Kind:           res.GeneratorUsed,
			PartialText:    req.PartialText,
			FullText:       req.FullText,
			Count:          req.Count,
			FalseSentences: res.FalseSentences,
		}
		if err := s.history.Add(ctx, record); err != nil {
			s.logger.Warn("interaction persistence failed", "error", err)
		}
	}
	return nil
}

type batchRequest struct {
	Pairs []statement.Pair `json:"pairs"`
	Count int              `json:"num_statements"`
	Kind  statement.Kind   `json:"generator_kind,omitempty"`
}

type batchResponse struct {
	Results []*statement.Result `json:"results"`
	Count   int                 `json:"count"`
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	const route = "generate_batch"

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, route, errors.Join(statement.ErrInvalidInput, err))
		return
	}
	if len(req.Pairs) == 0 {
		s.writeError(w, route, errors.Join(statement.ErrInvalidInput, errors.New("pairs is required")))
		return
	}
	if len(req.Pairs) > statement.MaxBatchSize {
		s.writeError(w, route, errors.Join(statement.ErrInvalidInput, errors.New("too many pairs in one batch")))
		return
	}
	if req.Count == 0 {
		req.Count = 3
	}
	if req.Count < statement.MinCount || req.Count > statement.MaxCount {
		s.writeError(w, route, errors.Join(statement.ErrInvalidInput, errors.New("num_statements out of range")))
		return
	}
	for i := range req.Pairs {
		if req.Pairs[i].FullText == "" {
			s.writeError(w, route, errors.Join(statement.ErrInvalidInput, errors.New("pair missing full_sentence")))
			return
		}
		if req.Pairs[i].PartialText == "" {
			req.Pairs[i].PartialText = derivePartial(req.Pairs[i].FullText)
		}
	}

	start := time.Now()
	results, err := s.orch.GenerateBatch(r.Context(), req.Kind, req.Pairs, req.Count)
	if err != nil {
		s.writeError(w, route, err)
		return
	}
	if len(results) > 0 {
		s.metrics.duration.WithLabelValues(string(results[0].GeneratorUsed)).Observe(time.Since(start).Seconds())
		for _, res := range results {
			s.metrics.statements.Add(float64(len(res.FalseSentences)))
		}
	}
	s.writeJSON(w, route, http.StatusOK, batchResponse{Results: results, Count: len(results)})
}

type qaRequest struct {
	Text      string         `json:"text"`
	Questions int            `json:"num_questions"`
	Kind      statement.Kind `json:"generator_kind,omitempty"`
	Format    string         `json:"format,omitempty"` // "json" (default) or "text"
}

func (s *Server) handleQA(w http.ResponseWriter, r *http.Request) {
	const route = "generate_qa"

	var req qaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, route, errors.Join(statement.ErrInvalidInput, err))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.writeError(w, route, errors.Join(statement.ErrInvalidInput, errors.New("text is required")))
		return
	}
	if req.Questions <= 0 {
		req.Questions = 3
	}

	set, err := s.orch.GenerateQA(r.Context(), req.Kind, req.Text, req.Questions)
	if err != nil {
		s.writeError(w, route, err)
		return
	}
	if req.Format == "text" {
		s.metrics.requests.WithLabelValues(route, "2xx").Inc()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(qa.Format(set.Questions))); err != nil {
			s.logger.Error("response write failed", "route", route, "error", err)
		}
		return
	}
	s.writeJSON(w, route, http.StatusOK, set)
}

type processTextRequest struct {
	Text     string `json:"text,omitempty"`
	HTML     string `json:"html,omitempty"`
	MaxPairs int    `json:"max_pairs,omitempty"`
}

type processTextResponse struct {
	Pairs []statement.Pair `json:"pairs"`
}

func (s *Server) handleProcessText(w http.ResponseWriter, r *http.Request) {
	const route = "process_text"

	var req processTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, route, errors.Join(statement.ErrInvalidInput, err))
		return
	}
	text := req.Text
	if text == "" && req.HTML != "" {
		extracted, err := s.pipeline.ExtractHTML(req.HTML)
		if err != nil {
			s.writeError(w, route, errors.Join(statement.ErrInvalidInput, err))
			return
		}
		text = extracted
	}
	if strings.TrimSpace(text) == "" {
		s.writeError(w, route, errors.Join(statement.ErrInvalidInput, errors.New("text or html is required")))
		return
	}

	pairs := s.pipeline.Pairs(text)
	if req.MaxPairs > 0 && len(pairs) > req.MaxPairs {
		pairs = pairs[:req.MaxPairs]
	}
	if pairs == nil {
		pairs = []statement.Pair{}
	}
	s.writeJSON(w, route, http.StatusOK, processTextResponse{Pairs: pairs})
}

func (s *Server) handleInteractions(w http.ResponseWriter, r *http.Request) {
	const route = "interactions"
	if s.history == nil {
		s.writeJSON(w, route, http.StatusOK, []*store.Interaction{})
		return
	}
	items, err := s.history.Recent(r.Context(), 50)
	if err != nil {
		s.writeError(w, route, err)
		return
	}
	s.writeJSON(w, route, http.StatusOK, items)
}

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, "health", http.StatusOK, healthResponse{Status: "ok"})
}

type readyResponse struct {
	Ready      bool                    `json:"ready"`
	Generators map[statement.Kind]bool `json:"generators"`
}

// handleReady reports 200 when at least one generator can serve requests.
// A still-loading local model keeps its flag false without failing overall
// readiness as long as another adapter is up.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	generators := s.orch.Readiness()
	ready := false
	for _, ok := range generators {
		if ok {
			ready = true
			break
		}
	}
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, "ready", status, readyResponse{Ready: ready, Generators: generators})
}
