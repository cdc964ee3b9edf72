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

	"github.com/kailas-cloud/matchmaker/internal/config"
	"github.com/kailas-cloud/matchmaker/internal/db"
	dbRedis "github.com/kailas-cloud/matchmaker/internal/db/redis"
	"github.com/kailas-cloud/matchmaker/internal/domain"
	logpkg "github.com/kailas-cloud/matchmaker/internal/logger"
	"github.com/kailas-cloud/matchmaker/internal/metrics"
	"github.com/kailas-cloud/matchmaker/internal/repository/embcache"
	pairingrepo "github.com/kailas-cloud/matchmaker/internal/repository/pairing"
	"github.com/kailas-cloud/matchmaker/internal/repository/postgres"
	profilerepo "github.com/kailas-cloud/matchmaker/internal/repository/profile"
	chiTransport "github.com/kailas-cloud/matchmaker/internal/transport/chi"
	"github.com/kailas-cloud/matchmaker/internal/transport/hashing"
	openaiEmb "github.com/kailas-cloud/matchmaker/internal/transport/openai"
	"github.com/kailas-cloud/matchmaker/internal/usecase/candidate"
	embeddinguc "github.com/kailas-cloud/matchmaker/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/matchmaker/internal/usecase/health"
	matchinguc "github.com/kailas-cloud/matchmaker/internal/usecase/matching"
	"github.com/kailas-cloud/matchmaker/internal/usecase/scoring"
	"github.com/kailas-cloud/matchmaker/internal/version"
)

// backend is the storage selected by database.driver.
type backend struct {
	profiles matchinguc.ProfileReader
	pairings matchinguc.PairingReader
	pinger   healthuc.Pinger
	// store is set only for the redis driver; it also backs the shared embedding cache.
	store db.Store
	close func()
}

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env,
		logpkg.WithLevel(cfg.Logging.Level),
		logpkg.WithFields(zap.String("service", "matchmaker")),
	)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting matchmaker API server",
		zap.String("build", version.String()),
		zap.Bool("release", version.IsRelease()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("embedding_provider", cfg.Embedding.Provider),
	)

	ctx := context.Background()
	be, err := openBackend(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer be.close()
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterMatchingMetrics()
	metrics.RegisterHTTPMetrics()

	cache, err := embeddinguc.NewLRUCache(cfg.Embedding.CacheSize)
	if err != nil {
		logger.Fatal("Failed to create text cache", zap.Error(err))
	}
	textEmbedder := embeddinguc.NewTextEmbedder(
		func() (domain.Embedder, error) {
			logger.Info("Building embedding model",
				zap.String("provider", cfg.Embedding.Provider),
				zap.String("model", cfg.Embedding.Model),
			)
			return buildEmbedder(cfg.Embedding, be.store, logger), nil
		},
		cache,
		embeddinguc.TextConfig{
			Dimensions:  cfg.Embedding.Dimensions,
			ChunkRunes:  cfg.Embedding.ChunkRunes,
			CallTimeout: time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		},
		logger,
	)
	if cfg.Embedding.Warmup {
		if err := textEmbedder.Warmup(ctx); err != nil {
			// a cold provider only degrades semantic scores
			logger.Warn("Embedding warmup failed", zap.Error(err))
		}
	}
	logger.Info("Text embedder configured",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	scorer := scoring.New(textEmbedder, cfg.Matching.ScoreConfig(), logger)
	matchSvc := matchinguc.New(
		be.profiles, be.pairings, scorer, candidate.NewFilter(time.Now),
		matchinguc.Config{
			DefaultLimit:     cfg.Matching.DefaultLimit,
			MaxLimit:         cfg.Matching.MaxLimit,
			Concurrency:      cfg.Matching.Concurrency,
			RequestTimeout:   cfg.Matching.RequestTimeout(),
			CandidateTimeout: cfg.Matching.CandidateTimeout(),
			Strict:           cfg.Matching.Strict,
		},
		logger,
	)

	// the offline hashing model has no upstream to check
	var embChecker healthuc.EmbeddingChecker
	if cfg.Embedding.Provider == config.ProviderOpenAI {
		embChecker = textEmbedder
	}
	healthSvc := healthuc.New(be.pinger, embChecker, logger)

	server := chiTransport.NewServer(matchSvc, healthSvc, logger)
	router := chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
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

	logger.Info("Server stopped gracefully")
}

func openBackend(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*backend, error) {
	readiness := time.Duration(cfg.ReadinessTimeout) * time.Second

	switch cfg.Driver {
	case config.DriverPostgres:
		repo, err := postgres.Open(postgres.Config{
			DSN:             cfg.DSN,
			MaxOpenConns:    cfg.MaxOpenConns,
			ConnMaxLifetime: 30 * time.Minute,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		repo.WithLogger(logger)
		if err := waitForPing(ctx, repo, readiness); err != nil {
			repo.Close()
			return nil, err
		}
		if err := repo.Migrate(ctx); err != nil {
			repo.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return &backend{profiles: repo, pairings: repo, pinger: repo, close: repo.Close}, nil

	default:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis: %w", err)
		}
		if err := store.WaitForReady(ctx, readiness); err != nil {
			store.Close()
			return nil, fmt.Errorf("database not ready: %w", err)
		}
		return &backend{
			profiles: profilerepo.New(store, logger),
			pairings: pairingrepo.New(store),
			pinger:   store,
			store:    store,
			close:    store.Close,
		}, nil
	}
}

// waitForPing retries Ping until it succeeds or timeout elapses.
func waitForPing(ctx context.Context, p healthuc.Pinger, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		err := p.Ping(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("database not ready: %w", err)
		case <-ticker.C:
		}
	}
}

// buildEmbedder assembles the decorator chain:
// provider -> shared cache -> breaker -> instrumented -> instruction.
func buildEmbedder(cfg config.EmbeddingConfig, store db.Store, logger *zap.Logger) domain.Embedder {
	var (
		base  domain.Embedder
		model string
	)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   cfg.Provider,
			Timeout:    time.Duration(cfg.TimeoutSec) * time.Second,
			Logger:     logger,
		})
		model = cfg.Model
	default:
		base = hashing.NewEmbedder(cfg.Dimensions)
		model = "feature-hash"
	}

	embedder := base
	if store != nil && cfg.SharedCacheTTLSec > 0 {
		embedder = embcache.New(base, store, model,
			time.Duration(cfg.SharedCacheTTLSec)*time.Second, metrics.TextCacheTotal, logger)
	}

	embedder = embeddinguc.NewBreakerEmbedder(embedder, embeddinguc.BreakerConfig{
		Name:        cfg.Provider,
		MaxFailures: cfg.Breaker.MaxFailures,
		OpenTimeout: time.Duration(cfg.Breaker.OpenTimeoutSec) * time.Second,
	}, logger)

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, model, logger)

	// outermost, so cache keys include the instruction
	if cfg.Instruction != "" {
		return domain.NewInstructionEmbedder(embedder, cfg.Instruction)
	}
	return embedder
}
