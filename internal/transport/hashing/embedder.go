// Package hashing is an offline embedding provider built on feature hashing.
// Word unigrams and character trigrams are hashed into a fixed number of
// signed buckets, so texts sharing vocabulary land close in cosine space.
// It needs no network and is deterministic across processes.
package hashing

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/kailas-cloud/matchmaker/internal/domain"
	"github.com/kailas-cloud/matchmaker/internal/metrics"
)

const (
	// DefaultDimensions is used when no positive dimension count is configured.
	DefaultDimensions = 256

	provider    = "hashing"
	trigramSize = 3
	// trigrams weigh less than whole words.
	trigramWeight = 0.5
)

// Embedder is a deterministic feature-hashing embedder.
type Embedder struct {
	dimensions int
	model      string
}

// NewEmbedder creates a hashing embedder producing vectors of the given size.
func NewEmbedder(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Embedder{dimensions: dimensions, model: "feature-hash"}
}

// Dimensions returns the vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// Embed implements domain.Embedder. Token usage counts words.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, err //nolint:wrapcheck // caller wraps
	}
	start := time.Now()
	vec, tokens := e.vectorize(text)
	e.observe(1, tokens, time.Since(start))
	return domain.EmbeddingResult{Embedding: vec, PromptTokens: tokens, TotalTokens: tokens}, nil
}

// BatchEmbed implements domain.BatchEmbedder.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	if err := ctx.Err(); err != nil {
		return domain.BatchEmbeddingResult{}, err //nolint:wrapcheck // caller wraps
	}
	start := time.Now()
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, t := range texts {
		vec, tokens := e.vectorize(t)
		out.Embeddings[i] = vec
		out.PromptTokens += tokens
	}
	out.TotalTokens = out.PromptTokens
	e.observe(len(texts), out.TotalTokens, time.Since(start))
	return out, nil
}

// HealthCheck always succeeds; the model is local.
func (e *Embedder) HealthCheck(context.Context) error {
	return nil
}

func (e *Embedder) vectorize(text string) ([]float32, int) {
	vec := make([]float32, e.dimensions)
	words := tokenize(text)
	for _, w := range words {
		e.add(vec, "w:"+w, 1)
		padded := []rune(" " + w + " ")
		for i := 0; i+trigramSize <= len(padded); i++ {
			e.add(vec, "t:"+string(padded[i:i+trigramSize]), trigramWeight)
		}
	}
	return vec, len(words)
}

// add puts weight into the bucket chosen by the low bits of the hash; the top
// bit picks the sign so collisions tend to cancel rather than accumulate.
func (e *Embedder) add(vec []float32, feature string, weight float32) {
	h := xxhash.Sum64String(feature)
	idx := int(h % uint64(e.dimensions))
	if h>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

func (e *Embedder) observe(inputs, tokens int, d time.Duration) {
	metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.model, "success").Add(float64(inputs))
	metrics.EmbeddingRequestDuration.WithLabelValues(provider, e.model).Observe(d.Seconds())
	if tokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(provider, e.model, "total").Add(float64(tokens))
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
