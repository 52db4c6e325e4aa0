package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shelfsearch/internal/config"
	dbRedis "github.com/kailas-cloud/shelfsearch/internal/db/redis"
	"github.com/kailas-cloud/shelfsearch/internal/domain"
	logpkg "github.com/kailas-cloud/shelfsearch/internal/logger"
	"github.com/kailas-cloud/shelfsearch/internal/metrics"
	budgetrepo "github.com/kailas-cloud/shelfsearch/internal/repository/budget"
	"github.com/kailas-cloud/shelfsearch/internal/repository/candidate"
	"github.com/kailas-cloud/shelfsearch/internal/repository/embcache"
	productrepo "github.com/kailas-cloud/shelfsearch/internal/repository/product"
	qdrantrepo "github.com/kailas-cloud/shelfsearch/internal/repository/qdrant"
	rulerepo "github.com/kailas-cloud/shelfsearch/internal/repository/rule"
	"github.com/kailas-cloud/shelfsearch/internal/tracing"
	chiTransport "github.com/kailas-cloud/shelfsearch/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/shelfsearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/shelfsearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/shelfsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/shelfsearch/internal/usecase/search"
	usageuc "github.com/kailas-cloud/shelfsearch/internal/usecase/usage"
	"github.com/kailas-cloud/shelfsearch/internal/version"
)

func main() {
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting shelfsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("vector_backend", cfg.Vector.Backend),
	)

	ctx := context.Background()

	tp, err := tracing.Init(ctx, tracing.Config{
		ServiceName:    logpkg.ServiceName,
		ServiceVersion: version.Version,
		Environment:    env,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		Insecure:       cfg.Tracing.Insecure,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		logger.Fatal("Failed to init tracing", zap.Error(err))
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	// Pass a nil interface, not a typed nil pointer, when no budget is configured.
	var budget *embeddinguc.BudgetTracker
	var budgetChecker embeddinguc.BudgetChecker
	var windows usageuc.WindowReader
	if cfg.Embedding.Budget.Enabled() {
		budget = embeddinguc.NewBudgetTracker(embeddinguc.BudgetConfig{
			Provider:     cfg.Embedding.Provider,
			KeyPrefix:    cfg.Storage.KeyPrefix,
			DailyLimit:   cfg.Embedding.Budget.DailyTokenLimit,
			MonthlyLimit: cfg.Embedding.Budget.MonthlyTokenLimit,
			Action:       embeddinguc.BudgetAction(cfg.Embedding.Budget.Action),
		}, logger)
		budget.WithStore(ctx, budgetrepo.New(store, budgetrepo.DefaultDailyTTL, budgetrepo.DefaultMonthlyTTL))
		budgetChecker = budget
		windows = budget
	}

	embedder := buildEmbedder(cfg, store, budgetChecker, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache", cfg.Embedding.Cache.Enabled),
		zap.Bool("budget", budget != nil),
	)

	healthOpts := []healthuc.Option{healthuc.WithEmbedding(embedder)}

	var candidates searchuc.CandidateSearcher
	switch cfg.Vector.Backend {
	case config.BackendQdrant:
		q, err := qdrantrepo.New(qdrantrepo.Config{
			Host:       cfg.Vector.Qdrant.Host,
			Port:       cfg.Vector.Qdrant.Port,
			Collection: cfg.Vector.Qdrant.Collection,
			APIKey:     cfg.Vector.Qdrant.APIKey,
			TLS:        cfg.Vector.Qdrant.TLS,
			HNSWEf:     cfg.Vector.EFRuntime,
		})
		if err != nil {
			logger.Fatal("Failed to create qdrant client", zap.Error(err))
		}
		defer func() { _ = q.Close() }()
		candidates = q
		healthOpts = append(healthOpts, healthuc.WithVectorIndex(q))
	default:
		candidates = candidate.New(store, cfg.Storage.KeyPrefix, cfg.Vector.Index).
			WithEFRuntime(cfg.Vector.EFRuntime)
	}

	searchSvc := searchuc.New(
		embedder,
		candidates,
		rulerepo.New(store, cfg.Storage.KeyPrefix),
		productrepo.New(store, cfg.Storage.KeyPrefix),
	)
	usageSvc := usageuc.New(windows, cfg.Embedding.Provider, cfg.Embedding.Model)
	healthSvc := healthuc.New(store, healthOpts...)

	server := chiTransport.NewServer(searchSvc, usageSvc, healthSvc)
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		APIKeys:        cfg.Auth.APIKeys,
		RequestTimeout: time.Duration(cfg.HTTP.RequestTimeoutSec) * time.Second,
		Logger:         logger,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error flushing traces", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// queryEmbedder is what both the search use case and the health check need.
type queryEmbedder interface {
	domain.Embedder
	domain.HealthChecker
}

// buildEmbedder assembles the decorator chain: OpenAI -> Instrumented -> Cached -> Prefix.
// The budget sits below the cache so only provider calls are counted.
func buildEmbedder(
	cfg config.Config, store *dbRedis.Store, budget embeddinguc.BudgetChecker, logger *zap.Logger,
) queryEmbedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	var embedder queryEmbedder = embeddinguc.NewInstrumentedEmbedder(
		base, cfg.Embedding.Provider, cfg.Embedding.Model, budget,
	)

	if cfg.Embedding.Cache.Enabled {
		embedder = embcache.New(embedder, store, embcache.Config{
			KeyPrefix: cfg.Storage.KeyPrefix,
			Model:     cfg.Embedding.Model,
			TTL:       cfg.Embedding.Cache.TTL(),
		}, metrics.EmbeddingCacheTotal, logger)
	}

	// Prefix is outermost so the cache key includes it.
	if cfg.Embedding.QueryPrefix != "" {
		embedder = domain.NewPrefixEmbedder(embedder, cfg.Embedding.QueryPrefix)
	}
	return embedder
}
