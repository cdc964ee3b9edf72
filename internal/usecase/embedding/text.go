package embedding

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/matchmaker/internal/domain"
	"github.com/kailas-cloud/matchmaker/internal/domain/similarity"
	"github.com/kailas-cloud/matchmaker/internal/metrics"
)

const (
	// DefaultCacheSize bounds the in-process text cache when no size is configured.
	DefaultCacheSize = 10_000
	// DefaultChunkRunes is the longest text sent to the model as a single input.
	DefaultChunkRunes  = 2000
	defaultCallTimeout = 30 * time.Second
	warmupText         = "warm up"
)

// Cache stores finished text vectors keyed by trimmed text.
type Cache interface {
	Get(key string) ([]float32, bool)
	Add(key string, value []float32) bool
	Len() int
}

// NewLRUCache returns a thread-safe LRU cache with the given capacity.
func NewLRUCache(size int) (Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return c, nil
}

// ModelFactory builds the underlying embedding model. It runs at most once.
type ModelFactory func() (domain.Embedder, error)

// TextConfig configures a TextEmbedder.
type TextConfig struct {
	Dimensions  int
	ChunkRunes  int
	CallTimeout time.Duration
}

// TextEmbedder turns free text into unit vectors of a fixed dimension.
// Empty text maps to the zero vector. Results are cached; concurrent misses
// on the same text share one model call.
type TextEmbedder struct {
	model      func() (domain.Embedder, error)
	cache      Cache
	group      singleflight.Group
	dim        int
	chunkRunes int
	timeout    time.Duration
	logger     *zap.Logger
}

// NewTextEmbedder creates a TextEmbedder. The model is built lazily on first use.
func NewTextEmbedder(factory ModelFactory, cache Cache, cfg TextConfig, logger *zap.Logger) *TextEmbedder {
	if cfg.ChunkRunes <= 0 {
		cfg.ChunkRunes = DefaultChunkRunes
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	return &TextEmbedder{
		model:      sync.OnceValues(factory),
		cache:      cache,
		dim:        cfg.Dimensions,
		chunkRunes: cfg.ChunkRunes,
		timeout:    cfg.CallTimeout,
		logger:     logger,
	}
}

// HealthCheck builds the model if needed and forwards to its own health check.
// Models without one are healthy once built.
func (e *TextEmbedder) HealthCheck(ctx context.Context) error {
	m, err := e.model()
	if err != nil {
		return fmt.Errorf("build model: %w", err)
	}
	if hc, ok := m.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // provider error is already descriptive
	}
	return nil
}

// Dimensions returns the vector length produced by Embed.
func (e *TextEmbedder) Dimensions() int {
	return e.dim
}

// Len returns the number of cached vectors.
func (e *TextEmbedder) Len() int {
	return e.cache.Len()
}

// Embed returns the vector for text. Model failures are returned wrapped.
// The returned slice is the caller's own copy; mutating it never touches the cache.
func (e *TextEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return make([]float32, e.dim), nil
	}

	if v, ok := e.cache.Get(text); ok {
		metrics.TextCacheTotal.WithLabelValues("memory", "hit").Inc()
		domain.UsageFromContext(ctx).AddTokens(0)
		return slices.Clone(v), nil
	}
	metrics.TextCacheTotal.WithLabelValues("memory", "miss").Inc()

	// The shared call must outlive a single caller's cancellation, but keeps its values.
	ch := e.group.DoChan(text, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
		defer cancel()

		v, err := e.compute(callCtx, text)
		if err != nil {
			return nil, err
		}
		e.cache.Add(text, v)
		metrics.TextCacheEntries.Set(float64(e.cache.Len()))
		return v, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("embed text: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("embed text: %w", res.Err)
		}
		// waiters of one flight share the value
		return slices.Clone(res.Val.([]float32)), nil //nolint:forcetypeassert // only []float32 is stored
	}
}

// Warmup builds the model and embeds a sample text so the first request does not pay for it.
func (e *TextEmbedder) Warmup(ctx context.Context) error {
	start := time.Now()
	if _, err := e.compute(ctx, warmupText); err != nil {
		return fmt.Errorf("warmup: %w", err)
	}
	e.logger.Info("Embedding model warmed up", zap.Duration("duration", time.Since(start)))
	return nil
}

func (e *TextEmbedder) compute(ctx context.Context, text string) ([]float32, error) {
	model, err := e.model()
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}

	chunks := splitChunks(text, e.chunkRunes)
	var vectors [][]float32
	if len(chunks) == 1 {
		res, err := model.Embed(ctx, chunks[0])
		if err != nil {
			return nil, err //nolint:wrapcheck // wrapped by caller
		}
		vectors = [][]float32{res.Embedding}
	} else {
		res, err := domain.EmbedBatch(ctx, model, chunks)
		if err != nil {
			return nil, err //nolint:wrapcheck // wrapped by caller
		}
		if len(res.Embeddings) != len(chunks) {
			return nil, fmt.Errorf("model returned %d vectors for %d chunks: %w",
				len(res.Embeddings), len(chunks), domain.ErrEmbeddingProviderError)
		}
		vectors = res.Embeddings
	}

	pooled, err := similarity.MeanPool(vectors)
	if err != nil {
		return nil, fmt.Errorf("pool: %w", err)
	}
	if len(pooled) != e.dim {
		return nil, fmt.Errorf("model returned %d dimensions, want %d: %w",
			len(pooled), e.dim, domain.ErrVectorDimMismatch)
	}
	return similarity.Normalize(pooled), nil
}

// splitChunks breaks text on whitespace into pieces of at most limit runes.
// A single word longer than limit becomes its own piece.
func splitChunks(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var b strings.Builder
	size := 0
	for _, word := range strings.Fields(text) {
		n := utf8.RuneCountInString(word)
		if size > 0 && size+1+n > limit {
			chunks = append(chunks, b.String())
			b.Reset()
			size = 0
		}
		if size > 0 {
			b.WriteByte(' ')
			size++
		}
		b.WriteString(word)
		size += n
	}
	if size > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}
