package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/matchmaker/internal/domain"
	"github.com/kailas-cloud/matchmaker/internal/metrics"
)

// BreakerConfig controls when the embedding breaker opens and how long it stays open.
type BreakerConfig struct {
	Name        string
	MaxFailures uint32
	OpenTimeout time.Duration
}

// BreakerEmbedder short-circuits provider calls after consecutive failures.
// While open, calls fail fast with domain.ErrEmbeddingUnavailable and scorers
// fall back to neutral values instead of waiting on a dead provider.
type BreakerEmbedder struct {
	inner  domain.Embedder
	cb     *gobreaker.CircuitBreaker[domain.BatchEmbeddingResult]
	name   string
	logger *zap.Logger
}

// NewBreakerEmbedder wraps inner with a circuit breaker.
func NewBreakerEmbedder(inner domain.Embedder, cfg BreakerConfig, logger *zap.Logger) *BreakerEmbedder {
	if cfg.Name == "" {
		cfg.Name = "embedding"
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	metrics.BreakerState.WithLabelValues(cfg.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[domain.BatchEmbeddingResult](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		// a caller giving up says nothing about provider health
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Embedding breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.BreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &BreakerEmbedder{inner: inner, cb: cb, name: cfg.Name, logger: logger}
}

// Embed runs a single embedding through the breaker.
func (b *BreakerEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := b.execute(func() (domain.BatchEmbeddingResult, error) {
		r, err := b.inner.Embed(ctx, text)
		if err != nil {
			return domain.BatchEmbeddingResult{}, err //nolint:wrapcheck // wrapped below
		}
		return domain.BatchEmbeddingResult{
			Embeddings:   [][]float32{r.Embedding},
			PromptTokens: r.PromptTokens,
			TotalTokens:  r.TotalTokens,
		}, nil
	})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// BatchEmbed runs a batch through the breaker.
func (b *BreakerEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	return b.execute(func() (domain.BatchEmbeddingResult, error) {
		return domain.EmbedBatch(ctx, b.inner, texts)
	})
}

// HealthCheck reports an open breaker as unhealthy without calling the provider.
func (b *BreakerEmbedder) HealthCheck(ctx context.Context) error {
	if b.cb.State() == gobreaker.StateOpen {
		return domain.ErrEmbeddingUnavailable
	}
	if hc, ok := b.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}

// State returns the current breaker state.
func (b *BreakerEmbedder) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerEmbedder) execute(fn func() (domain.BatchEmbeddingResult, error)) (domain.BatchEmbeddingResult, error) {
	res, err := b.cb.Execute(fn)
	if err == nil {
		return res, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("breaker %s: %w: %w", b.name, domain.ErrEmbeddingUnavailable, err)
	}
	return domain.BatchEmbeddingResult{}, fmt.Errorf("breaker %s: %w", b.name, err)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
