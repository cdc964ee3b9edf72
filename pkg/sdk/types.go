package matchmaker

import (
	"time"

	"github.com/kailas-cloud/matchmaker/internal/domain/match"
	"github.com/kailas-cloud/matchmaker/internal/domain/pairing"
	"github.com/kailas-cloud/matchmaker/internal/domain/profile"
	matchinguc "github.com/kailas-cloud/matchmaker/internal/usecase/matching"
)

// Profile, pairing and score types shared with the engine.
type (
	Profile    = profile.Profile
	AgeRange   = profile.AgeRange
	Location   = profile.Location
	WorkVibe   = profile.WorkVibe
	Pair       = pairing.Pair
	Connection = pairing.Connection
	Exclusion  = pairing.Exclusion
	Score      = match.Score
	Dimension  = match.Dimension
	Label      = match.Label
	Thresholds = match.Thresholds
)

// MatchConfig tunes ranking. Zero fields keep their defaults.
type MatchConfig struct {
	DefaultLimit     int
	MaxLimit         int
	Concurrency      int
	RequestTimeout   time.Duration
	CandidateTimeout time.Duration
	// Strict fails the whole request when any candidate cannot be scored.
	Strict bool
	// Weights per dimension; must cover every dimension and sum to 1 when set.
	Weights    map[Dimension]float64
	Thresholds *Thresholds
}

func (mc MatchConfig) scoreConfig() match.Config {
	cfg := match.DefaultConfig()
	if len(mc.Weights) > 0 {
		cfg.Weights = mc.Weights
	}
	if mc.Thresholds != nil {
		cfg.Thresholds = *mc.Thresholds
	}
	return cfg
}

func (mc MatchConfig) serviceConfig() matchinguc.Config {
	return matchinguc.Config{
		DefaultLimit:     mc.DefaultLimit,
		MaxLimit:         mc.MaxLimit,
		Concurrency:      mc.Concurrency,
		RequestTimeout:   mc.RequestTimeout,
		CandidateTimeout: mc.CandidateTimeout,
		Strict:           mc.Strict,
	}
}

// RankRequest is an ad-hoc ranking input. Nothing is read from storage.
type RankRequest struct {
	Subject     Profile
	Candidates  []Profile
	Connections []Connection
	Exclusions  []Exclusion
	Limit       int
}

// MatchList is a ranked, truncated candidate list.
type MatchList struct {
	Matches     []Score
	Considered  int
	Filtered    int
	Failed      int
	GeneratedAt time.Time
}

func matchListFromResult(r matchinguc.Result) MatchList {
	return MatchList{
		Matches:     r.Matches,
		Considered:  r.Considered,
		Filtered:    r.Filtered,
		Failed:      r.Failed,
		GeneratedAt: r.GeneratedAt,
	}
}
