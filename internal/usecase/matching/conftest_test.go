package matching

import (
	"context"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kailas-cloud/matchmaker/internal/db"
	"github.com/kailas-cloud/matchmaker/internal/domain"
	"github.com/kailas-cloud/matchmaker/internal/domain/match"
	"github.com/kailas-cloud/matchmaker/internal/domain/pairing"
	"github.com/kailas-cloud/matchmaker/internal/domain/profile"
)

// --- Mocks ---

type mockProfiles struct {
	byID    map[string]profile.Profile
	listErr error
	getErr  error
}

func (m *mockProfiles) Get(_ context.Context, uid string) (profile.Profile, error) {
	if m.getErr != nil {
		return profile.Profile{}, m.getErr
	}
	p, ok := m.byID[uid]
	if !ok {
		return profile.Profile{}, domain.ErrProfileNotFound
	}
	return p, nil
}

func (m *mockProfiles) List(_ context.Context) ([]profile.Profile, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]profile.Profile, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, p)
	}
	return out, nil
}

type mockPairings struct {
	connections []pairing.Connection
	exclusions  []pairing.Exclusion
	connErr     error
	exclErr     error
	gotUID      atomic.Value
}

func (m *mockPairings) Connections(_ context.Context, uid string) ([]pairing.Connection, error) {
	m.gotUID.Store(uid)
	return m.connections, m.connErr
}

func (m *mockPairings) Exclusions(_ context.Context, _ string) ([]pairing.Exclusion, error) {
	return m.exclusions, m.exclErr
}

// kvStore is a read-mostly in-memory key-value store for wiring the real profile repository.
type kvStore struct {
	data map[string][]byte
}

func newKVStore(values map[string]string) *kvStore {
	s := &kvStore{data: make(map[string][]byte, len(values))}
	for k, v := range values {
		s.data[k] = []byte(v)
	}
	return s
}

func (s *kvStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (s *kvStore) GetMulti(_ context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = s.data[k]
	}
	return out, nil
}

func (s *kvStore) Set(_ context.Context, key string, value []byte) error {
	s.data[key] = value
	return nil
}

func (s *kvStore) Del(_ context.Context, key string) error {
	delete(s.data, key)
	return nil
}

func (s *kvStore) Scan(_ context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// mockScorer scores by a per-candidate table; unknown candidates get 50.
type mockScorer struct {
	totals map[string]int
	errs   map[string]error
	delay  func(uid string) time.Duration

	inFlight atomic.Int32
	maxSeen  atomic.Int32
	mu       sync.Mutex
	scored   []string
}

func (m *mockScorer) Score(ctx context.Context, _ profile.Profile, c profile.Profile) (match.Score, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		seen := m.maxSeen.Load()
		if n <= seen || m.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	if m.delay != nil {
		select {
		case <-time.After(m.delay(c.UID)):
		case <-ctx.Done():
			return match.Score{}, ctx.Err()
		}
	}

	m.mu.Lock()
	m.scored = append(m.scored, c.UID)
	m.mu.Unlock()

	if err := m.errs[c.UID]; err != nil {
		return match.Score{}, err
	}
	total, ok := m.totals[c.UID]
	if !ok {
		total = 50
	}
	return match.Score{Candidate: c, TotalScore: total, Label: match.DefaultConfig().LabelFor(total)}, nil
}

func profiles(uids ...string) []profile.Profile {
	out := make([]profile.Profile, len(uids))
	for i, uid := range uids {
		out[i] = profile.Profile{UID: uid}
	}
	return out
}

func matchUIDs(r Result) []string {
	out := make([]string, len(r.Matches))
	for i, m := range r.Matches {
		out[i] = m.Candidate.UID
	}
	return out
}
