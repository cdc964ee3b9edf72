package matching

import (
	"context"

	"github.com/kailas-cloud/matchmaker/internal/domain/match"
	"github.com/kailas-cloud/matchmaker/internal/domain/pairing"
	"github.com/kailas-cloud/matchmaker/internal/domain/profile"
)

// ProfileReader loads user profiles.
type ProfileReader interface {
	Get(ctx context.Context, uid string) (profile.Profile, error)
	List(ctx context.Context) ([]profile.Profile, error)
}

// PairingReader loads the subject's connections and cooldowns, matching the
// subject in either pair position.
type PairingReader interface {
	Connections(ctx context.Context, uid string) ([]pairing.Connection, error)
	Exclusions(ctx context.Context, uid string) ([]pairing.Exclusion, error)
}

// Scorer scores one candidate from the subject's side.
type Scorer interface {
	Score(ctx context.Context, subject, candidate profile.Profile) (match.Score, error)
}

// CandidateFilter removes ineligible candidates, keeping pool order.
type CandidateFilter interface {
	Apply(
		subjectID string, pool []profile.Profile,
		connections []pairing.Connection, exclusions []pairing.Exclusion,
	) []profile.Profile
}
