// Package scoring computes per-dimension compatibility and the weighted total
// for one subject/candidate pair. Scores are seen from the subject's side and
// need not be symmetric.
package scoring

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/matchmaker/internal/domain/match"
	"github.com/kailas-cloud/matchmaker/internal/domain/profile"
	"github.com/kailas-cloud/matchmaker/internal/domain/similarity"
)

// Scorer computes match scores.
type Scorer struct {
	embedder TextEmbedder
	cfg      match.Config
	logger   *zap.Logger
}

// New creates a Scorer. cfg must be valid (see match.Config.Validate).
func New(embedder TextEmbedder, cfg match.Config, logger *zap.Logger) *Scorer {
	return &Scorer{embedder: embedder, cfg: cfg, logger: logger}
}

// Config returns the aggregation config in use.
func (s *Scorer) Config() match.Config {
	return s.cfg
}

// Breakdown computes all seven sub-scores. Embedding failures degrade to neutral
// values; any other error (e.g. vector dimension mismatch) is returned.
func (s *Scorer) Breakdown(ctx context.Context, subject, candidate profile.Profile) (match.Breakdown, error) {
	interests, err := s.Interests(ctx, subject, candidate)
	if err != nil {
		return nil, err
	}
	occupation, err := s.Occupation(ctx, subject, candidate)
	if err != nil {
		return nil, err
	}

	b := match.Breakdown{
		match.DimensionAge:          AgeFit(subject, candidate),
		match.DimensionInterests:    interests,
		match.DimensionAvailability: AvailabilityOverlap(subject, candidate),
		match.DimensionOccupation:   occupation,
		match.DimensionWorkRatio:    WorkRatioCloseness(subject, candidate),
		match.DimensionLocation:     LocationProximity(subject, candidate),
		match.DimensionWorkStyle:    WorkStyle(subject, candidate),
	}
	for d, v := range b {
		b[d] = similarity.Clamp01(v)
	}
	return b, nil
}

// Score computes the full match score of candidate for subject.
func (s *Scorer) Score(ctx context.Context, subject, candidate profile.Profile) (match.Score, error) {
	b, err := s.Breakdown(ctx, subject, candidate)
	if err != nil {
		return match.Score{}, fmt.Errorf("score %s: %w", candidate.UID, err)
	}
	total, label := s.cfg.Aggregate(b)
	return match.Score{
		Candidate:  candidate,
		TotalScore: total,
		Label:      label,
		Breakdown:  b,
	}, nil
}
