package scoring

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/matchmaker/internal/domain"
	"github.com/kailas-cloud/matchmaker/internal/domain/match"
	"github.com/kailas-cloud/matchmaker/internal/domain/profile"
	"github.com/kailas-cloud/matchmaker/internal/domain/similarity"
	"github.com/kailas-cloud/matchmaker/internal/logger"
	"github.com/kailas-cloud/matchmaker/internal/metrics"
)

const (
	neutralSemanticScore = 0.5
	oneSidedInterests    = 0.2
	interestsFloor       = 0.3
)

// Interests compares the embedded interest sets.
func (s *Scorer) Interests(ctx context.Context, subject, candidate profile.Profile) (float64, error) {
	a, b := subject.InterestText(), candidate.InterestText()
	switch {
	case a == "" && b == "":
		return neutralSemanticScore, nil
	case a == "" || b == "":
		return oneSidedInterests, nil
	}

	sim, err := s.textSimilarity(ctx, a, b)
	if err != nil {
		return s.degrade(ctx, match.DimensionInterests, candidate.UID, err)
	}
	switch {
	case sim > 0.7:
		return 1.0, nil
	case sim > 0.5:
		return 0.85, nil
	case sim > 0.3:
		return 0.7, nil
	case sim > 0.15:
		return 0.55, nil
	default:
		return max(sim, interestsFloor), nil
	}
}

// Occupation compares the embedded occupation texts.
func (s *Scorer) Occupation(ctx context.Context, subject, candidate profile.Profile) (float64, error) {
	a, b := subject.OccupationText(), candidate.OccupationText()
	if a == "" || b == "" {
		return neutralSemanticScore, nil
	}

	sim, err := s.textSimilarity(ctx, a, b)
	if err != nil {
		return s.degrade(ctx, match.DimensionOccupation, candidate.UID, err)
	}
	switch {
	case sim > 0.6:
		return 1.0, nil
	case sim > 0.4:
		return 0.8, nil
	case sim > 0.2:
		return 0.6, nil
	default:
		return 0.3, nil
	}
}

func (s *Scorer) textSimilarity(ctx context.Context, a, b string) (float64, error) {
	va, err := s.embedder.Embed(ctx, a)
	if err != nil {
		return 0, fmt.Errorf("embed subject text: %w", err)
	}
	vb, err := s.embedder.Embed(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("embed candidate text: %w", err)
	}
	sim, err := similarity.Cosine(va, vb)
	if err != nil {
		return 0, fmt.Errorf("cosine: %w", err)
	}
	return sim, nil
}

// degrade turns an embedding backend failure into the neutral score.
// Any other error is returned to fail the candidate.
func (s *Scorer) degrade(ctx context.Context, dim match.Dimension, candidateID string, err error) (float64, error) {
	if !domain.IsEmbeddingFailure(err) {
		return 0, fmt.Errorf("%s: %w", dim, err)
	}
	metrics.ScorerDegradedTotal.WithLabelValues(string(dim)).Inc()
	logger.FromContext(ctx, s.logger).Warn("Scorer degraded to neutral value",
		zap.String("dimension", string(dim)),
		zap.String("candidate", candidateID),
		zap.Error(err),
	)
	return neutralSemanticScore, nil
}
