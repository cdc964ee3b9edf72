// Package health aggregates component checks for the /health endpoint.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/matchmaker/internal/logger"
)

// DefaultCheckTimeout bounds a single component check.
const DefaultCheckTimeout = 2 * time.Second

// Check names reported in Report.Checks.
const (
	CheckDatabase  = "database"
	CheckEmbedding = "embedding"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	// Took holds the wall time of each check, timeouts included.
	Took map[string]time.Duration
}

type namedCheck struct {
	name string
	fn   CheckFunc
}

// Service coordinates health checks.
type Service struct {
	checks  []namedCheck
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Service. embedding can be nil, then the check is omitted.
func New(db Pinger, embedding EmbeddingChecker, logger *zap.Logger) *Service {
	s := &Service{timeout: DefaultCheckTimeout, logger: logger}
	s.Add(CheckDatabase, db.Ping)
	if embedding != nil {
		s.Add(CheckEmbedding, embedding.HealthCheck)
	}
	return s
}

// Add registers an extra check. A later check with the same name replaces the earlier one.
func (s *Service) Add(name string, fn CheckFunc) *Service {
	for i := range s.checks {
		if s.checks[i].name == name {
			s.checks[i].fn = fn
			return s
		}
	}
	s.checks = append(s.checks, namedCheck{name: name, fn: fn})
	return s
}

// WithTimeout overrides the per-check timeout. Non-positive values are ignored.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check runs all component checks concurrently. Any failure degrades the
// report; when every check fails the report is unhealthy.
func (s *Service) Check(ctx context.Context) Report {
	log := logger.FromContext(ctx, s.logger)

	var mu sync.Mutex
	checks := make(map[string]CheckResult, len(s.checks))
	took := make(map[string]time.Duration, len(s.checks))
	var wg sync.WaitGroup
	for _, c := range s.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			start := time.Now()
			result := CheckOK
			err := c.fn(cctx)
			elapsed := time.Since(start)
			if err != nil {
				result = CheckError
				log.Warn("Health check failed",
					zap.String("check", c.name),
					zap.Duration("took", elapsed),
					zap.Error(err),
				)
			}
			mu.Lock()
			checks[c.name] = result
			took[c.name] = elapsed
			mu.Unlock()
		}()
	}
	wg.Wait()

	failed := 0
	for _, v := range checks {
		if v == CheckError {
			failed++
		}
	}

	status := Healthy
	switch {
	case failed == len(checks) && failed > 0:
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}
	return Report{Status: status, Checks: checks, Took: took}
}
