// Package matching ranks a candidate pool for a subject user.
package matching

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/matchmaker/internal/domain/match"
	"github.com/kailas-cloud/matchmaker/internal/domain/pairing"
	"github.com/kailas-cloud/matchmaker/internal/domain/profile"
	"github.com/kailas-cloud/matchmaker/internal/logger"
	"github.com/kailas-cloud/matchmaker/internal/metrics"
)

// Defaults for zero Config values.
const (
	DefaultLimit       = 10
	DefaultMaxLimit    = 100
	DefaultConcurrency = 16
)

// Config tunes ranking.
type Config struct {
	DefaultLimit     int
	MaxLimit         int
	Concurrency      int
	RequestTimeout   time.Duration
	CandidateTimeout time.Duration
	// Strict aborts the whole request on the first candidate failure.
	Strict bool
}

// Result is a ranked, truncated list plus counters for the request.
type Result struct {
	Matches     []match.Score
	Considered  int
	Filtered    int
	Failed      int
	GeneratedAt time.Time
}

// Service ranks candidates.
type Service struct {
	profiles ProfileReader
	pairings PairingReader
	scorer   Scorer
	filter   CandidateFilter
	cfg      Config
	now      func() time.Time
	logger   *zap.Logger
}

// New creates a matching service.
func New(
	profiles ProfileReader, pairings PairingReader,
	scorer Scorer, filter CandidateFilter,
	cfg Config, logger *zap.Logger,
) *Service {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = DefaultMaxLimit
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Service{
		profiles: profiles,
		pairings: pairings,
		scorer:   scorer,
		filter:   filter,
		cfg:      cfg,
		now:      time.Now,
		logger:   logger,
	}
}

// NormalizeLimit maps non-positive limits to the default and caps at MaxLimit.
func (s *Service) NormalizeLimit(limit int) int {
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	return min(limit, s.cfg.MaxLimit)
}

// FindMatches loads the subject, the pool and the subject's pairing records, then ranks.
func (s *Service) FindMatches(ctx context.Context, subjectID string, limit int) (Result, error) {
	subject, err := s.profiles.Get(ctx, subjectID)
	if err != nil {
		return Result{}, fmt.Errorf("load subject: %w", err)
	}

	var (
		pool        []profile.Profile
		connections []pairing.Connection
		exclusions  []pairing.Exclusion
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if pool, err = s.profiles.List(gctx); err != nil {
			return fmt.Errorf("load pool: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if connections, err = s.pairings.Connections(gctx, subjectID); err != nil {
			return fmt.Errorf("load connections: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if exclusions, err = s.pairings.Exclusions(gctx, subjectID); err != nil {
			return fmt.Errorf("load exclusions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err //nolint:wrapcheck // wrapped inside the group
	}

	return s.Rank(ctx, subject, pool, connections, exclusions, limit)
}

// Rank filters pool for subject, scores survivors concurrently and returns
// them by descending total. Equal totals keep their pool order.
func (s *Service) Rank(
	ctx context.Context, subject profile.Profile, pool []profile.Profile,
	connections []pairing.Connection, exclusions []pairing.Exclusion, limit int,
) (Result, error) {
	start := time.Now()
	res, err := s.rank(ctx, subject, pool, connections, exclusions, limit)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RankingDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	return res, err
}

func (s *Service) rank(
	ctx context.Context, subject profile.Profile, pool []profile.Profile,
	connections []pairing.Connection, exclusions []pairing.Exclusion, limit int,
) (Result, error) {
	if err := subject.CheckIdentity(); err != nil {
		return Result{}, fmt.Errorf("subject: %w", err)
	}
	limit = s.NormalizeLimit(limit)

	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	eligible := s.filter.Apply(subject.UID, pool, connections, exclusions)
	metrics.CandidatesTotal.WithLabelValues("filtered").Add(float64(len(pool) - len(eligible)))

	scores, failed, err := s.scoreAll(ctx, subject, eligible)
	if err != nil {
		return Result{}, err
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].TotalScore > scores[j].TotalScore
	})
	if len(scores) > limit {
		scores = scores[:limit]
	}

	return Result{
		Matches:     scores,
		Considered:  len(pool),
		Filtered:    len(pool) - len(eligible),
		Failed:      failed,
		GeneratedAt: s.now().UTC(),
	}, nil
}

// scoreAll scores candidates concurrently. Results are kept by candidate index so
// the output never depends on completion order. Failed candidates are dropped
// unless the service is strict.
func (s *Service) scoreAll(
	ctx context.Context, subject profile.Profile, candidates []profile.Profile,
) ([]match.Score, int, error) {
	log := logger.FromContext(ctx, s.logger)
	slots := make([]*match.Score, len(candidates))
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, c := range candidates {
		g.Go(func() error {
			cctx := gctx
			if s.cfg.CandidateTimeout > 0 {
				var cancel context.CancelFunc
				cctx, cancel = context.WithTimeout(gctx, s.cfg.CandidateTimeout)
				defer cancel()
			}

			sc, err := s.scorer.Score(cctx, subject, c)
			if err != nil {
				metrics.CandidatesTotal.WithLabelValues("failed").Inc()
				if s.cfg.Strict {
					return fmt.Errorf("candidate %s: %w", c.UID, err)
				}
				failed.Add(1)
				log.Warn("Candidate dropped",
					zap.String("subject", subject.UID),
					zap.String("candidate", c.UID),
					zap.Error(err),
				)
				return nil
			}
			metrics.CandidatesTotal.WithLabelValues("scored").Inc()
			slots[i] = &sc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err //nolint:wrapcheck // wrapped inside the group
	}

	scores := make([]match.Score, 0, len(candidates))
	for _, sc := range slots {
		if sc != nil {
			scores = append(scores, *sc)
		}
	}
	return scores, int(failed.Load()), nil
}
