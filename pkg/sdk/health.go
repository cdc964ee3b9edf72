package matchmaker

import (
	"context"
	"time"

	healthuc "github.com/kailas-cloud/matchmaker/internal/usecase/health"
)

// HealthStatus is the outcome of Client.Health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // "database", "embedding" -> "ok"/"error"
	Took   map[string]time.Duration
}

// OK reports whether every component answered.
func (h HealthStatus) OK() bool {
	return h.Status == string(healthuc.Healthy)
}

// Health checks the Redis store and, when the custom embedder exposes
// HealthCheck(ctx) error, the embedding provider.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	out := HealthStatus{
		Status: string(report.Status),
		Checks: make(map[string]string, len(report.Checks)),
		Took:   report.Took,
	}
	for name, res := range report.Checks {
		out.Checks[name] = string(res)
	}
	return out
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
