package matchmaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/matchmaker/internal/db"
	dbRedis "github.com/kailas-cloud/matchmaker/internal/db/redis"
	"github.com/kailas-cloud/matchmaker/internal/domain"
	"github.com/kailas-cloud/matchmaker/internal/domain/pairing"
	"github.com/kailas-cloud/matchmaker/internal/domain/profile"
	pairingrepo "github.com/kailas-cloud/matchmaker/internal/repository/pairing"
	profilerepo "github.com/kailas-cloud/matchmaker/internal/repository/profile"
	"github.com/kailas-cloud/matchmaker/internal/transport/hashing"
	"github.com/kailas-cloud/matchmaker/internal/usecase/candidate"
	embeddinguc "github.com/kailas-cloud/matchmaker/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/matchmaker/internal/usecase/health"
	matchinguc "github.com/kailas-cloud/matchmaker/internal/usecase/matching"
	"github.com/kailas-cloud/matchmaker/internal/usecase/scoring"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, swapped for mocks in tests.
type matcher interface {
	FindMatches(ctx context.Context, subjectID string, limit int) (matchinguc.Result, error)
	Rank(
		ctx context.Context, subject profile.Profile, pool []profile.Profile,
		connections []pairing.Connection, exclusions []pairing.Exclusion, limit int,
	) (matchinguc.Result, error)
}

type profileWriter interface {
	Upsert(ctx context.Context, p profile.Profile) error
	Delete(ctx context.Context, uid string) error
}

type pairingWriter interface {
	AddConnection(ctx context.Context, c pairing.Connection) error
	AddExclusion(ctx context.Context, e pairing.Exclusion) error
}

// Client is the matchmaker SDK entry point.
type Client struct {
	store     db.Store
	matchSvc  matcher
	profiles  profileWriter
	pairings  pairingWriter
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("matchmaker: database address required (use WithRedis)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("matchmaker: create redis store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("matchmaker: database not ready: %w", err)
	}

	c, err := wireClient(store, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	scoreCfg := cfg.match.scoreConfig()
	if err := scoreCfg.Validate(); err != nil {
		return nil, fmt.Errorf("matchmaker: match config: %w", err)
	}

	dim := cfg.dimensions
	if dim <= 0 {
		dim = hashing.DefaultDimensions
	}

	// Embedder: offline feature hashing unless the caller supplies one.
	var model domain.Embedder = hashing.NewEmbedder(dim)
	healthSvc := healthuc.New(store, nil, zap.NewNop())
	if cfg.embedder != nil {
		adapter := &embedderAdapter{inner: cfg.embedder}
		model = adapter
		if _, ok := cfg.embedder.(interface{ HealthCheck(context.Context) error }); ok {
			healthSvc.Add(healthuc.CheckEmbedding, adapter.HealthCheck)
		}
	}

	cache, err := embeddinguc.NewLRUCache(cfg.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("matchmaker: %w", err)
	}

	logger := zap.NewNop()
	text := embeddinguc.NewTextEmbedder(
		func() (domain.Embedder, error) { return model, nil },
		cache,
		embeddinguc.TextConfig{Dimensions: dim},
		logger,
	)

	profiles := profilerepo.New(store, logger)
	pairings := pairingrepo.New(store)
	matchSvc := matchinguc.New(
		profiles, pairings,
		scoring.New(text, scoreCfg, logger),
		candidate.NewFilter(time.Now),
		cfg.match.serviceConfig(),
		logger,
	)

	return &Client{
		store:     store,
		matchSvc:  matchSvc,
		profiles:  profiles,
		pairings:  pairings,
		healthSvc: healthSvc,
		obs:       obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// FindMatches ranks every stored profile for the subject. limit <= 0 means the default.
func (c *Client) FindMatches(ctx context.Context, uid string, limit int) (list MatchList, err error) {
	start := time.Now()
	defer func() { c.obs.observeRanking("find_matches", start, list, err, "uid", uid) }()

	res, err := c.matchSvc.FindMatches(ctx, uid, limit)
	if err != nil {
		return MatchList{}, fmt.Errorf("find matches: %w", err)
	}
	return matchListFromResult(res), nil
}

// Rank scores req.Candidates for req.Subject without reading storage.
// Candidates without a uid are skipped and counted in MatchList.Failed.
func (c *Client) Rank(ctx context.Context, req RankRequest) (list MatchList, err error) {
	start := time.Now()
	defer func() { c.obs.observeRanking("rank", start, list, err, "uid", req.Subject.UID) }()

	candidates, rejected := matchinguc.DropUnidentified(req.Candidates)
	res, err := c.matchSvc.Rank(ctx, req.Subject, candidates, req.Connections, req.Exclusions, req.Limit)
	if err != nil {
		return MatchList{}, fmt.Errorf("rank: %w", err)
	}
	return matchListFromResult(res.WithRejected(len(rejected))), nil
}

// UpsertProfile stores or replaces a profile.
func (c *Client) UpsertProfile(ctx context.Context, p Profile) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("profile.upsert", start, err, "uid", p.UID) }()

	if err = c.profiles.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// DeleteProfile removes a profile. Missing profiles are not an error.
func (c *Client) DeleteProfile(ctx context.Context, uid string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("profile.delete", start, err, "uid", uid) }()

	if err = c.profiles.Delete(ctx, uid); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

// AddConnection records a mutual connection; the pair stops seeing each other.
func (c *Client) AddConnection(ctx context.Context, a, b string, at time.Time) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("pairing.connect", start, err, "user_a", a, "user_b", b) }()

	conn := Connection{Pair: Pair{A: a, B: b}, CreatedAt: at}
	if err = c.pairings.AddConnection(ctx, conn); err != nil {
		return fmt.Errorf("add connection: %w", err)
	}
	return nil
}

// AddExclusion hides the pair from each other until expiresAt.
func (c *Client) AddExclusion(ctx context.Context, a, b string, expiresAt time.Time) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("pairing.exclude", start, err, "user_a", a, "user_b", b) }()

	excl := Exclusion{Pair: Pair{A: a, B: b}, ExpiresAt: expiresAt}
	if err = c.pairings.AddExclusion(ctx, excl); err != nil {
		return fmt.Errorf("add exclusion: %w", err)
	}
	return nil
}
