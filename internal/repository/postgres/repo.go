// Package postgres reads and writes profiles and pairing records in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/kailas-cloud/matchmaker/internal/db"
	"github.com/kailas-cloud/matchmaker/internal/domain"
	dompairing "github.com/kailas-cloud/matchmaker/internal/domain/pairing"
	domprofile "github.com/kailas-cloud/matchmaker/internal/domain/profile"
	"github.com/kailas-cloud/matchmaker/internal/logger"
	"github.com/kailas-cloud/matchmaker/internal/metrics"
)

// Schema creates the tables the repository reads. Pairs are stored once in
// either order; lookups match the subject in both columns.
const Schema = `
CREATE TABLE IF NOT EXISTS profiles (
	uid        TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS connections (
	user_a     TEXT NOT NULL,
	user_b     TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_a, user_b)
);
CREATE INDEX IF NOT EXISTS connections_user_b_idx ON connections (user_b);
CREATE TABLE IF NOT EXISTS exclusions (
	user_a     TEXT NOT NULL,
	user_b     TEXT NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_a, user_b)
);
CREATE INDEX IF NOT EXISTS exclusions_user_b_idx ON exclusions (user_b);
`

const (
	queryGetProfile   = `SELECT data FROM profiles WHERE uid = $1`
	queryListProfiles = `SELECT uid, data FROM profiles ORDER BY uid`
	queryUpsert       = `INSERT INTO profiles (uid, data, updated_at) VALUES ($1, $2, now())
ON CONFLICT (uid) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`
	queryConnections = `SELECT user_a, user_b, created_at FROM connections WHERE user_a = $1 OR user_b = $1`
	queryExclusions  = `SELECT user_a, user_b, expires_at FROM exclusions
WHERE (user_a = $1 OR user_b = $1) AND expires_at > now()`
	queryAddConnection = `INSERT INTO connections (user_a, user_b, created_at) VALUES ($1, $2, $3)
ON CONFLICT (user_a, user_b) DO NOTHING`
	queryAddExclusion = `INSERT INTO exclusions (user_a, user_b, expires_at) VALUES ($1, $2, $3)
ON CONFLICT (user_a, user_b) DO UPDATE SET expires_at = EXCLUDED.expires_at`
)

// Config holds connection pool parameters.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Repo implements usecase/matching.ProfileReader and PairingReader on PostgreSQL.
type Repo struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open connects through lib/pq and applies pool settings.
func Open(cfg Config) (*Repo, error) {
	if cfg.DSN == "" {
		return nil, errors.New("dsn is required")
	}
	conn, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return New(conn), nil
}

// New wraps an existing connection pool.
func New(conn *sql.DB) *Repo {
	return &Repo{db: conn, logger: zap.NewNop()}
}

// WithLogger sets the fallback logger for skipped rows. nil is ignored.
func (r *Repo) WithLogger(l *zap.Logger) *Repo {
	if l != nil {
		r.logger = l
	}
	return r
}

// Migrate creates missing tables.
func (r *Repo) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return wrap("migrate", err)
	}
	return nil
}

// Ping checks connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases the pool.
func (r *Repo) Close() {
	_ = r.db.Close()
}

// Get returns a profile by user id.
func (r *Repo) Get(ctx context.Context, uid string) (domprofile.Profile, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, queryGetProfile, uid).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domprofile.Profile{}, fmt.Errorf("%s: %w", uid, domain.ErrProfileNotFound)
		}
		return domprofile.Profile{}, wrap("get profile", err)
	}
	return decode(uid, raw)
}

// List returns every profile ordered by uid. Rows whose data does not decode
// are logged and skipped.
func (r *Repo) List(ctx context.Context) ([]domprofile.Profile, error) {
	rows, err := r.db.QueryContext(ctx, queryListProfiles)
	if err != nil {
		return nil, wrap("list profiles", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domprofile.Profile
	for rows.Next() {
		var (
			uid string
			raw []byte
		)
		if err := rows.Scan(&uid, &raw); err != nil {
			return nil, wrap("scan profile", err)
		}
		p, err := decode(uid, raw)
		if err != nil {
			metrics.CorruptProfilesTotal.WithLabelValues("postgres").Inc()
			logger.FromContext(ctx, r.logger).Warn("Skipping corrupt profile",
				zap.String("uid", uid), zap.Error(err))
			continue
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list profiles", err)
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
	if _, err := r.db.ExecContext(ctx, queryUpsert, p.UID, data); err != nil {
		return wrap("upsert profile", err)
	}
	return nil
}

// Connections returns connections with uid in either column.
func (r *Repo) Connections(ctx context.Context, uid string) ([]dompairing.Connection, error) {
	rows, err := r.db.QueryContext(ctx, queryConnections, uid)
	if err != nil {
		return nil, wrap("query connections", err)
	}
	defer func() { _ = rows.Close() }()

	var out []dompairing.Connection
	for rows.Next() {
		var c dompairing.Connection
		if err := rows.Scan(&c.A, &c.B, &c.CreatedAt); err != nil {
			return nil, wrap("scan connection", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("query connections", err)
	}
	return out, nil
}

// Exclusions returns unexpired cooldowns with uid in either column.
func (r *Repo) Exclusions(ctx context.Context, uid string) ([]dompairing.Exclusion, error) {
	rows, err := r.db.QueryContext(ctx, queryExclusions, uid)
	if err != nil {
		return nil, wrap("query exclusions", err)
	}
	defer func() { _ = rows.Close() }()

	var out []dompairing.Exclusion
	for rows.Next() {
		var e dompairing.Exclusion
		if err := rows.Scan(&e.A, &e.B, &e.ExpiresAt); err != nil {
			return nil, wrap("scan exclusion", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("query exclusions", err)
	}
	return out, nil
}

// AddConnection stores a connection. Re-adding an existing pair is a no-op.
func (r *Repo) AddConnection(ctx context.Context, c dompairing.Connection) error {
	if c.A == "" || c.B == "" || c.A == c.B {
		return fmt.Errorf("pair %q/%q: %w", c.A, c.B, domain.ErrInvalidProfile)
	}
	if _, err := r.db.ExecContext(ctx, queryAddConnection, c.A, c.B, c.CreatedAt); err != nil {
		return wrap("add connection", err)
	}
	return nil
}

// AddExclusion stores or extends a cooldown.
func (r *Repo) AddExclusion(ctx context.Context, e dompairing.Exclusion) error {
	if e.A == "" || e.B == "" || e.A == e.B {
		return fmt.Errorf("pair %q/%q: %w", e.A, e.B, domain.ErrInvalidProfile)
	}
	if _, err := r.db.ExecContext(ctx, queryAddExclusion, e.A, e.B, e.ExpiresAt); err != nil {
		return wrap("add exclusion", err)
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

// wrap attaches the operation and, for server errors, the SQLSTATE code name.
func wrap(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &db.Error{Op: op, Err: fmt.Errorf("%s (%s): %w", pqErr.Message, pqErr.Code.Name(), err)}
	}
	return &db.Error{Op: op, Err: err}
}
