// Package pairing stores connections and cooldowns as per-user Redis hashes.
// Each record is written under both users so lookups by either id find it.
package pairing

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/matchmaker/internal/db"
	"github.com/kailas-cloud/matchmaker/internal/domain"
	dompairing "github.com/kailas-cloud/matchmaker/internal/domain/pairing"
)

var (
	connectionsPrefix = domain.KeyPrefix + "connections:"
	cooldownsPrefix   = domain.KeyPrefix + "cooldowns:"
)

// store is the consumer interface for pairing records (ISP).
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HDel(ctx context.Context, key string, fields ...string) error
}

// Repo implements usecase/matching.PairingReader.
type Repo struct {
	store store
	now   func() time.Time
}

// New creates a pairing repository.
func New(s store) *Repo {
	return &Repo{store: s, now: time.Now}
}

// Connections returns every connection involving uid. Field values are unix seconds.
func (r *Repo) Connections(ctx context.Context, uid string) ([]dompairing.Connection, error) {
	key := connectionsPrefix + uid
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", key, err)
	}

	out := make([]dompairing.Connection, 0, len(m))
	for other, raw := range m {
		sec, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse connection %s/%s: %w", uid, other, err)
		}
		out = append(out, dompairing.Connection{
			Pair:      dompairing.Pair{A: uid, B: other},
			CreatedAt: time.Unix(sec, 0).UTC(),
		})
	}
	return out, nil
}

// Exclusions returns every cooldown involving uid, expired ones included.
// Field values are unix milliseconds.
func (r *Repo) Exclusions(ctx context.Context, uid string) ([]dompairing.Exclusion, error) {
	key := cooldownsPrefix + uid
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", key, err)
	}

	out := make([]dompairing.Exclusion, 0, len(m))
	for other, raw := range m {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse cooldown %s/%s: %w", uid, other, err)
		}
		out = append(out, dompairing.Exclusion{
			Pair:      dompairing.Pair{A: uid, B: other},
			ExpiresAt: time.UnixMilli(ms).UTC(),
		})
	}
	return out, nil
}

// AddConnection records a connection under both users.
func (r *Repo) AddConnection(ctx context.Context, c dompairing.Connection) error {
	if err := validatePair(c.Pair); err != nil {
		return err
	}
	v := strconv.FormatInt(c.CreatedAt.Unix(), 10)
	if err := r.store.HSetMulti(ctx, mirrored(connectionsPrefix, c.Pair, v)); err != nil {
		return fmt.Errorf("add connection %s/%s: %w", c.A, c.B, err)
	}
	return nil
}

// AddExclusion records a cooldown under both users. Expired cooldowns of
// either user are removed first so the hashes stay bounded.
func (r *Repo) AddExclusion(ctx context.Context, e dompairing.Exclusion) error {
	if err := validatePair(e.Pair); err != nil {
		return err
	}
	for _, uid := range []string{e.A, e.B} {
		if err := r.pruneExpired(ctx, uid); err != nil {
			return err
		}
	}
	v := strconv.FormatInt(e.ExpiresAt.UnixMilli(), 10)
	if err := r.store.HSetMulti(ctx, mirrored(cooldownsPrefix, e.Pair, v)); err != nil {
		return fmt.Errorf("add exclusion %s/%s: %w", e.A, e.B, err)
	}
	return nil
}

func (r *Repo) pruneExpired(ctx context.Context, uid string) error {
	excl, err := r.Exclusions(ctx, uid)
	if err != nil {
		return err
	}
	now := r.now()
	var stale []string
	for _, e := range excl {
		if !e.ActiveAt(now) {
			stale = append(stale, e.B)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	key := cooldownsPrefix + uid
	if err := r.store.HDel(ctx, key, stale...); err != nil {
		return fmt.Errorf("prune %s: %w", key, err)
	}
	return nil
}

func mirrored(prefix string, p dompairing.Pair, value string) []db.HashSetItem {
	return []db.HashSetItem{
		{Key: prefix + p.A, Fields: map[string]string{p.B: value}},
		{Key: prefix + p.B, Fields: map[string]string{p.A: value}},
	}
}

func validatePair(p dompairing.Pair) error {
	if p.A == "" || p.B == "" || p.A == p.B {
		return fmt.Errorf("pair %q/%q: %w", p.A, p.B, domain.ErrInvalidProfile)
	}
	return nil
}
