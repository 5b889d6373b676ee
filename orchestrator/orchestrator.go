// Package orchestrator owns the statement generator adapters: it registers
// them, picks one per request with a fallback policy, runs blocking work on a
// bounded worker pool, and isolates per-item failures in batches.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gentext/gentext/generator"
	"github.com/gentext/gentext/pkg/logging"
	"github.com/gentext/gentext/pkg/telemetry"
	"github.com/gentext/gentext/statement"
)

// ErrShutdown is returned for work submitted after Shutdown has begun.
var ErrShutdown = errors.New("orchestrator is shut down")

// Options configures an Orchestrator.
type Options struct {
	// Workers bounds concurrent generation calls; this is the sole
	// backpressure mechanism.
	Workers int

	// FallbackOrder is tried front to back when the requested kind is
	// absent or unspecified.
	FallbackOrder []statement.Kind

	// BatchTimeoutFloor and PerItemBudget shape the overall batch deadline:
	// max(BatchTimeoutFloor, PerItemBudget * items).
	BatchTimeoutFloor time.Duration
	PerItemBudget     time.Duration
}

// DefaultOptions returns production defaults.
func DefaultOptions() Options {
	return Options{
		Workers:           runtime.GOMAXPROCS(0),
		FallbackOrder:     []statement.Kind{statement.KindClaude, statement.KindLocal, statement.KindParaphrase},
		BatchTimeoutFloor: 60 * time.Second,
		PerItemBudget:     30 * time.Second,
	}
}

// Option customizes the orchestrator.
type Option func(*Options)

// WithWorkers overrides the worker pool size.
func WithWorkers(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Workers = n
		}
	}
}

// WithFallbackOrder overrides the fallback policy.
func WithFallbackOrder(kinds ...statement.Kind) Option {
	return func(o *Options) {
		if len(kinds) > 0 {
			o.FallbackOrder = kinds
		}
	}
}

// WithBatchBudget overrides the batch deadline parameters.
func WithBatchBudget(floor, perItem time.Duration) Option {
	return func(o *Options) {
		if floor > 0 {
			o.BatchTimeoutFloor = floor
		}
		if perItem > 0 {
			o.PerItemBudget = perItem
		}
	}
}

// Orchestrator is the registry and dispatcher for generator adapters. It is
// constructed explicitly and passed by handle; there is no ambient global
// instance.
type Orchestrator struct {
	opts   Options
	logger *slog.Logger
	tracer trace.Tracer

	mu         sync.RWMutex
	generators map[statement.Kind]generator.Generator
	closed     bool

	sem chan struct{}
	wg  sync.WaitGroup
}

// New constructs an Orchestrator with no generators registered.
func New(opts ...Option) *Orchestrator {
	cfg := DefaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Orchestrator{
		opts:       cfg,
		logger:     logging.WithComponent("orchestrator"),
		tracer:     telemetry.Tracer("orchestrator"),
		generators: make(map[statement.Kind]generator.Generator),
		sem:        make(chan struct{}, cfg.Workers),
	}
}

// Register attempts to construct an adapter via init and registers it under
// kind. Initialization failure is recoverable: it is logged and that kind
// simply stays unavailable.
func (o *Orchestrator) Register(kind statement.Kind, init func() (generator.Generator, error)) {
	gen, err := init()
	if err != nil {
		o.logger.Error("generator initialization failed", "kind", kind, "error", err)
		return
	}
	o.RegisterGenerator(kind, gen)
}

// RegisterGenerator registers an already-constructed adapter.
func (o *Orchestrator) RegisterGenerator(kind statement.Kind, gen generator.Generator) {
	if gen == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.generators[kind] = gen
	o.logger.Info("generator registered", "kind", kind)
}

// Generator looks up an adapter by kind, walking the fallback order when the
// requested kind is absent or empty. Returns statement.ErrNoGenerator when
// nothing usable is registered.
func (o *Orchestrator) Generator(kind statement.Kind) (generator.Generator, statement.Kind, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if kind != "" {
		if gen, ok := o.generators[kind]; ok {
			return gen, kind, nil
		}
		o.logger.Warn("requested generator not registered, falling back", "kind", kind)
	}
	for _, k := range o.opts.FallbackOrder {
		if gen, ok := o.generators[k]; ok {
			return gen, k, nil
		}
	}
	return nil, "", statement.ErrNoGenerator
}

// Readiness reports, per registered kind, whether the backing model or
// client is ready to serve without blocking.
func (o *Orchestrator) Readiness() map[statement.Kind]bool {
	o.mu.RLock()
	gens := make(map[statement.Kind]generator.Generator, len(o.generators))
	for k, g := range o.generators {
		gens[k] = g
	}
	o.mu.RUnlock()

	// Ready may probe a remote backend; it runs outside the registry lock
	// so a slow probe cannot block registration.
	out := make(map[statement.Kind]bool, len(gens))
	for k, g := range gens {
		out[k] = g.Ready()
	}
	return out
}

// GenerateOne synchronously generates false statements for one pair. Adapter
// failures degrade to an empty result; the only returned error is
// statement.ErrNoGenerator.
func (o *Orchestrator) GenerateOne(ctx context.Context, kind statement.Kind, partial, full string, count int) (*statement.Result, error) {
	gen, used, err := o.Generator(kind)
	if err != nil {
		return nil, err
	}

	ctx, span := o.tracer.Start(ctx, "generate_one",
		trace.WithAttributes(attribute.String("generator", string(used))))
	outcome := o.attempt(ctx, gen, partial, full, count)
	telemetry.End(span, nil)

	statements := outcome.Statements
	if statements == nil {
		statements = []string{}
	}
	return &statement.Result{
		OriginalSentence: full,
		PartialSentence:  partial,
		FalseSentences:   statements,
		GeneratorUsed:    used,
	}, nil
}

// attempt runs one adapter call and converts any failure into an empty
// outcome. Adapter errors never propagate past this point.
func (o *Orchestrator) attempt(ctx context.Context, gen generator.Generator, partial, full string, count int) generator.Outcome {
	statements, err := gen.GenerateFalseStatements(ctx, partial, full, count)
	if err != nil {
		o.logger.Error("generation failed", "kind", gen.Kind(), "error", err)
		return generator.Empty(err.Error())
	}
	if len(statements) > count {
		statements = statements[:count]
	}
	return generator.OK(statements)
}

// Future is the awaitable handle returned by GenerateOneAsync.
type Future struct {
	ch chan futureValue
}

type futureValue struct {
	result *statement.Result
	err    error
}

// Await blocks until the result is available or the context expires.
// Abandoning the future does not leak the worker; it finishes and the value
// is dropped.
func (f *Future) Await(ctx context.Context) (*statement.Result, error) {
	select {
	case v := <-f.ch:
		return v.result, v.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GenerateOneAsync offloads GenerateOne onto the worker pool and returns
// immediately. The pool bounds concurrency; callers queue when it is full.
func (o *Orchestrator) GenerateOneAsync(ctx context.Context, kind statement.Kind, partial, full string, count int) *Future {
	f := &Future{ch: make(chan futureValue, 1)}

	o.mu.RLock()
	closed := o.closed
	if !closed {
		o.wg.Add(1)
	}
	o.mu.RUnlock()
	if closed {
		f.ch <- futureValue{err: ErrShutdown}
		return f
	}

	go func() {
		defer o.wg.Done()
		select {
		case o.sem <- struct{}{}:
			defer func() { <-o.sem }()
		case <-ctx.Done():
			f.ch <- futureValue{err: ctx.Err()}
			return
		}
		result, err := o.GenerateOne(ctx, kind, partial, full, count)
		f.ch <- futureValue{result: result, err: err}
	}()
	return f
}

// GenerateBatch generates false statements for every pair, preferring an
// adapter-native batch call when available. Results are positionally aligned
// with pairs and len(results) == len(pairs) always holds; a failed or
// timed-out item yields an empty list, not a missing entry. On overall
// timeout, items that completed in time keep their results. Batches
// submitted after Shutdown fail with ErrShutdown.
func (o *Orchestrator) GenerateBatch(ctx context.Context, kind statement.Kind, pairs []statement.Pair, count int) ([]*statement.Result, error) {
	o.mu.RLock()
	closed := o.closed
	o.mu.RUnlock()
	if closed {
		return nil, ErrShutdown
	}

	gen, used, err := o.Generator(kind)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return []*statement.Result{}, nil
	}

	deadline := o.batchDeadline(len(pairs))
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	ctx, span := o.tracer.Start(ctx, "generate_batch",
		trace.WithAttributes(
			attribute.String("generator", string(used)),
			attribute.Int("items", len(pairs)),
		))
	defer telemetry.End(span, nil)

	if batcher, ok := gen.(generator.BatchGenerator); ok {
		if results, ok := o.nativeBatch(ctx, batcher, used, pairs, count); ok {
			return results, nil
		}
		// Native path failed; fall through to per-pair fan-out.
	}

	return o.fanOutBatch(ctx, used, pairs, count), nil
}

func (o *Orchestrator) batchDeadline(items int) time.Duration {
	d := time.Duration(items) * o.opts.PerItemBudget
	if d < o.opts.BatchTimeoutFloor {
		d = o.opts.BatchTimeoutFloor
	}
	return d
}

// nativeBatch runs the adapter's batch method on the worker pool under the
// batch deadline. The second return is false when the orchestrator should
// fall back to per-pair dispatch.
func (o *Orchestrator) nativeBatch(ctx context.Context, gen generator.BatchGenerator, used statement.Kind, pairs []statement.Pair, count int) ([]*statement.Result, bool) {
	partials := make([]string, len(pairs))
	fulls := make([]string, len(pairs))
	for i, p := range pairs {
		partials[i] = p.PartialText
		fulls[i] = p.FullText
	}

	type batchValue struct {
		lists [][]string
		err   error
	}
	ch := make(chan batchValue, 1)

	// wg.Add must not race a concurrent Shutdown's wg.Wait, so it happens
	// under the same lock that publishes closed.
	o.mu.RLock()
	closed := o.closed
	if !closed {
		o.wg.Add(1)
	}
	o.mu.RUnlock()
	if closed {
		return o.emptyResults(used, pairs), true
	}

	go func() {
		defer o.wg.Done()
		select {
		case o.sem <- struct{}{}:
			defer func() { <-o.sem }()
		case <-ctx.Done():
			ch <- batchValue{err: ctx.Err()}
			return
		}
		lists, err := gen.GenerateStatementsBatch(ctx, partials, fulls, count)
		ch <- batchValue{lists: lists, err: err}
	}()

	var v batchValue
	select {
	case v = <-ch:
	case <-ctx.Done():
		// The in-flight model call is cancelled best-effort through ctx;
		// nothing completed that we can keep.
		o.logger.Error("batch generation timed out", "kind", used, "items", len(pairs))
		return o.emptyResults(used, pairs), true
	}
	if v.err != nil {
		o.logger.Error("native batch failed, falling back to per-item dispatch", "kind", used, "error", v.err)
		return nil, false
	}
	if len(v.lists) != len(pairs) {
		o.logger.Error("native batch returned misaligned results", "kind", used, "want", len(pairs), "got", len(v.lists))
		return nil, false
	}

	results := make([]*statement.Result, len(pairs))
	for i, p := range pairs {
		statements := v.lists[i]
		if len(statements) > count {
			statements = statements[:count]
		}
		results[i] = &statement.Result{
			OriginalSentence: p.FullText,
			PartialSentence:  p.PartialText,
			FalseSentences:   statements,
			GeneratorUsed:    used,
			Index:            i,
		}
	}
	return results, true
}

// fanOutBatch issues one async call per pair and joins them. Items keep
// whatever completed before the deadline; stragglers degrade to empty.
func (o *Orchestrator) fanOutBatch(ctx context.Context, used statement.Kind, pairs []statement.Pair, count int) []*statement.Result {
	futures := make([]*Future, len(pairs))
	for i, p := range pairs {
		futures[i] = o.GenerateOneAsync(ctx, used, p.PartialText, p.FullText, count)
	}

	results := make([]*statement.Result, len(pairs))
	for i, f := range futures {
		res, err := f.Await(ctx)
		if err != nil || res == nil {
			if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
				o.logger.Error("batch item failed", "kind", used, "index", i, "error", err)
			}
			results[i] = o.emptyResult(used, pairs[i], i)
			continue
		}
		res.Index = i
		results[i] = res
	}
	return results
}

func (o *Orchestrator) emptyResult(used statement.Kind, p statement.Pair, i int) *statement.Result {
	return &statement.Result{
		OriginalSentence: p.FullText,
		PartialSentence:  p.PartialText,
		FalseSentences:   []string{},
		GeneratorUsed:    used,
		Index:            i,
	}
}

func (o *Orchestrator) emptyResults(used statement.Kind, pairs []statement.Pair) []*statement.Result {
	out := make([]*statement.Result, len(pairs))
	for i, p := range pairs {
		out[i] = o.emptyResult(used, p, i)
	}
	return out
}

// Shutdown stops accepting new work and waits for in-flight generation to
// drain, bounded by the context deadline.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		o.logger.Info("orchestrator drained")
		return nil
	case <-ctx.Done():
		o.logger.Warn("orchestrator shutdown timed out with work in flight")
		return ctx.Err()
	}
}
