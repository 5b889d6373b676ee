// Command gentext runs the false-statement generation service.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/openai/openai-go/v3"

	"github.com/gentext/gentext/config"
	"github.com/gentext/gentext/filter"
	"github.com/gentext/gentext/generator"
	"github.com/gentext/gentext/generator/claude"
	"github.com/gentext/gentext/generator/local"
	"github.com/gentext/gentext/generator/paraphrase"
	"github.com/gentext/gentext/orchestrator"
	"github.com/gentext/gentext/pkg/logging"
	"github.com/gentext/gentext/pkg/telemetry"
	"github.com/gentext/gentext/server"
	"github.com/gentext/gentext/sidecar"
	"github.com/gentext/gentext/statement"
	"github.com/gentext/gentext/store"
	"github.com/gentext/gentext/textpipe"
	"github.com/gentext/gentext/vector"

	openaiembed "github.com/gentext/gentext/embedding/openai"
	sidecarembed "github.com/gentext/gentext/embedding/sidecar"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	flag.Parse()

	logger := logging.WithComponent("main")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("configuration load failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "gentext",
		Disable:     !cfg.Telemetry.Enabled,
	})
	if err != nil {
		logger.Error("telemetry initialization failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	side := sidecar.New(cfg.Sidecar.BaseURL)
	embedder := buildEmbedder(cfg, side)
	filt := filter.New(embedder,
		filter.WithWordBounds(cfg.Filter.MinWords, cfg.Filter.MaxWords),
		filter.WithSimilarityBand(
			float32(cfg.Filter.SimilarityLow),
			float32(cfg.Filter.SimilarityHigh),
			float32(cfg.Filter.SimilarityTarget),
		),
		filter.WithYearCutoff(cfg.Filter.YearCutoff),
	)

	orch := orchestrator.New(
		orchestrator.WithWorkers(cfg.Generation.Workers),
		orchestrator.WithFallbackOrder(cfg.FallbackKinds()...),
		orchestrator.WithBatchBudget(cfg.Generation.BatchTimeoutFloor.Duration, cfg.Generation.PerItemBudget.Duration),
	)

	orch.Register(statement.KindClaude, func() (generator.Generator, error) {
		g, err := claude.New(&claude.Config{
			APIKey:      cfg.Claude.APIKey,
			Model:       cfg.Claude.Model,
			MaxTokens:   int64(cfg.Claude.MaxTokens),
			Temperature: cfg.Claude.Temperature,
			MaxAttempts: cfg.Claude.MaxAttempts,
			RetryBase:   cfg.Claude.RetryBase.Duration,
		})
		if err != nil {
			return nil, err
		}
		return g, nil
	})

	localGen := local.New(side, filt, &local.Config{Model: cfg.Sidecar.GenerationModel})
	orch.RegisterGenerator(statement.KindLocal, localGen)
	if cfg.Sidecar.EagerLoad {
		localGen.StartLoading(ctx)
	}

	orch.RegisterGenerator(statement.KindParaphrase, paraphrase.New(side, filt, nil))

	history, err := buildHistory(cfg)
	if err != nil {
		logger.Error("interaction store initialization failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := history.Close(context.Background()); err != nil {
			logger.Warn("interaction store close failed", "error", err)
		}
	}()

	pipeline := textpipe.New(
		textpipe.WithSummaryRatio(cfg.Text.SummaryRatio),
		textpipe.WithSentenceBounds(cfg.Text.MinSentenceLen, cfg.Text.MaxSentenceLen),
		textpipe.WithPartialRatio(cfg.Text.PartialRatio),
		textpipe.WithTokenBudget(cfg.Text.MaxTokens),
	)

	var serverOpts []server.Option
	if cfg.Store.CacheEnabled {
		cache := store.NewRedisCache(store.RedisConfigFromEnv())
		if err := cache.Ping(ctx); err != nil {
			logger.Warn("result cache unreachable, continuing without it", "error", err)
		} else {
			serverOpts = append(serverOpts, server.WithCache(cache))
			defer cache.Close()
		}
	}

	srv := server.New(cfg, orch, pipeline, history, serverOpts...)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", "error", err)
	}
	if err := orch.Shutdown(shutdownCtx); err != nil {
		logger.Warn("orchestrator shutdown incomplete", "error", err)
	}
	logger.Info("server stopped")
}

func buildEmbedder(cfg *config.Config, side *sidecar.Client) vector.Embedder {
	if cfg.Embedding.Provider == "openai" {
		return openaiembed.New(cfg.Embedding.APIKey, "", openai.EmbeddingModel(cfg.Embedding.Model), 1536)
	}
	return sidecarembed.New(side, 384)
}

func buildHistory(cfg *config.Config) (store.InteractionStore, error) {
	switch cfg.Store.Backend {
	case "postgres":
		return store.NewPostgresStore(store.PostgresConfigFromEnv())
	case "mongo":
		return store.NewMongoStore(store.MongoConfigFromEnv())
	default:
		return store.NewInMemoryStore(), nil
	}
}
