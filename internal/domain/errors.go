package domain

import (
	"context"
	"errors"
)

var (
	// ErrProfileNotFound signals a missing user profile.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrInvalidProfile signals a malformed user profile.
	ErrInvalidProfile = errors.New("invalid profile")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingUnavailable signals that embedding calls are short-circuited
	// because the provider keeps failing.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
	// ErrInvalidConfig signals an invalid scoring configuration.
	ErrInvalidConfig = errors.New("invalid config")
)

// IsEmbeddingFailure reports whether err came from the embedding backend
// (provider error, open breaker, or an expired deadline while waiting for it).
// Such failures are soft: scorers fall back to their neutral value.
func IsEmbeddingFailure(err error) bool {
	return errors.Is(err, ErrEmbeddingProviderError) ||
		errors.Is(err, ErrEmbeddingUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
