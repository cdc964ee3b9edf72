package embedding

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kailas-cloud/matchmaker/internal/domain"
	"github.com/kailas-cloud/matchmaker/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	os.Exit(m.Run())
}

// mockEmbedder implements Embedder and BatchEmbedder with fixed results.
type mockEmbedder struct {
	result      domain.EmbeddingResult
	err         error
	batchResult domain.BatchEmbeddingResult
	batchErr    error
	batchCalls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return m.result, m.err
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchCalls++
	if m.batchErr != nil {
		return domain.BatchEmbeddingResult{}, m.batchErr
	}
	if m.batchResult.Embeddings != nil {
		return m.batchResult, nil
	}
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = m.result.Embedding
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: m.result.PromptTokens * len(texts),
		TotalTokens:  m.result.TotalTokens * len(texts),
	}, nil
}

// plainMockEmbedder implements only Embedder, not BatchEmbedder.
type plainMockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *plainMockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

// funcModel is a concurrency-safe function-field model for TextEmbedder tests.
type funcModel struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
	batchFn func(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)

	mu         sync.Mutex
	embedTexts []string
	batchTexts [][]string
}

func (m *funcModel) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	m.embedTexts = append(m.embedTexts, text)
	m.mu.Unlock()
	return m.embedFn(ctx, text)
}

func (m *funcModel) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.mu.Lock()
	m.batchTexts = append(m.batchTexts, texts)
	m.mu.Unlock()
	return m.batchFn(ctx, texts)
}

func (m *funcModel) embedCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.embedTexts)
}

// constModel returns vec for every text.
func constModel(vec []float32) *funcModel {
	return &funcModel{
		embedFn: func(context.Context, string) (domain.EmbeddingResult, error) {
			return domain.EmbeddingResult{Embedding: vec, TotalTokens: 1}, nil
		},
		batchFn: func(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
			out := make([][]float32, len(texts))
			for i := range texts {
				out[i] = vec
			}
			return domain.BatchEmbeddingResult{Embeddings: out, TotalTokens: len(texts)}, nil
		},
	}
}

// countingFactory returns a factory yielding model and the number of builds.
func countingFactory(model domain.Embedder) (ModelFactory, *atomic.Int32) {
	var builds atomic.Int32
	return func() (domain.Embedder, error) {
		builds.Add(1)
		return model, nil
	}, &builds
}
