package health

import "context"

// Pinger is satisfied by every storage backend (redis store, postgres DB).
type Pinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker is satisfied by embedders that can check their provider.
// The offline hashing embedder does not implement it and is never checked.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// CheckFunc is one named check registered with Service.Add.
type CheckFunc func(ctx context.Context) error
