package matchmaker

import "github.com/kailas-cloud/matchmaker/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrProfileNotFound        = domain.ErrProfileNotFound
	ErrInvalidProfile         = domain.ErrInvalidProfile
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrEmbeddingUnavailable   = domain.ErrEmbeddingUnavailable
	ErrInvalidConfig          = domain.ErrInvalidConfig
)
