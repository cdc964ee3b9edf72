// Package profile stores user match profiles as JSON strings in Redis/Valkey.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/matchmaker/internal/db"
	"github.com/kailas-cloud/matchmaker/internal/domain"
	domprofile "github.com/kailas-cloud/matchmaker/internal/domain/profile"
	"github.com/kailas-cloud/matchmaker/internal/logger"
	"github.com/kailas-cloud/matchmaker/internal/metrics"
)

var keyPrefix = domain.KeyPrefix + "profile:"

// store is the consumer interface for profiles (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	GetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/matching.ProfileReader.
type Repo struct {
	store  store
	logger *zap.Logger
}

// New creates a profile repository.
func New(s store, logger *zap.Logger) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{store: s, logger: logger}
}

// Get returns a profile by user id.
func (r *Repo) Get(ctx context.Context, uid string) (domprofile.Profile, error) {
	key := profileKey(uid)
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domprofile.Profile{}, fmt.Errorf("%s: %w", uid, domain.ErrProfileNotFound)
		}
		return domprofile.Profile{}, fmt.Errorf("get %s: %w", key, err)
	}
	return decode(uid, raw)
}

// List returns every stored profile ordered by key scan. Entries deleted
// between SCAN and MGET are skipped, and so are entries that do not decode:
// one corrupt record must not empty the candidate pool.
func (r *Repo) List(ctx context.Context) ([]domprofile.Profile, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan profiles: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	raws, err := r.store.GetMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	out := make([]domprofile.Profile, 0, len(keys))
	for i, raw := range raws {
		if raw == nil {
			continue
		}
		uid := strings.TrimPrefix(keys[i], keyPrefix)
		p, err := decode(uid, raw)
		if err != nil {
			metrics.CorruptProfilesTotal.WithLabelValues("redis").Inc()
			logger.FromContext(ctx, r.logger).Warn("Skipping corrupt profile",
				zap.String("uid", uid), zap.Error(err))
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Upsert validates and stores a profile.
func (r *Repo) Upsert(ctx context.Context, p domprofile.Profile) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("upsert %s: %w", p.UID, err)
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	key := profileKey(p.UID)
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete removes a profile. Deleting a missing profile is not an error.
func (r *Repo) Delete(ctx context.Context, uid string) error {
	key := profileKey(uid)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

func decode(uid string, raw []byte) (domprofile.Profile, error) {
	var p domprofile.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return domprofile.Profile{}, fmt.Errorf("decode profile %s: %w", uid, err)
	}
	if p.UID == "" {
		p.UID = uid
	}
	return p, nil
}

func profileKey(uid string) string {
	return keyPrefix + uid
}
