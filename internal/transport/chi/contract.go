package chi

import (
	"context"

	"github.com/kailas-cloud/matchmaker/internal/domain/pairing"
	"github.com/kailas-cloud/matchmaker/internal/domain/profile"
	healthuc "github.com/kailas-cloud/matchmaker/internal/usecase/health"
	matchinguc "github.com/kailas-cloud/matchmaker/internal/usecase/matching"
)

// Matcher ranks candidates for a subject.
type Matcher interface {
	FindMatches(ctx context.Context, subjectID string, limit int) (matchinguc.Result, error)
	Rank(
		ctx context.Context, subject profile.Profile, pool []profile.Profile,
		connections []pairing.Connection, exclusions []pairing.Exclusion, limit int,
	) (matchinguc.Result, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
