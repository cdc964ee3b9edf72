package pairing

import (
	"context"
	"strconv"
	"time"

	"github.com/kailas-cloud/matchmaker/internal/db"
)

// memHashStore is an in-memory hash store with optional error overrides.
type memHashStore struct {
	hashes map[string]map[string]string

	hgetallErr error
	hsetErr    error
	hdelCalls  []hdelCall
}

type hdelCall struct {
	key    string
	fields []string
}

func newMemHashStore() *memHashStore {
	return &memHashStore{hashes: make(map[string]map[string]string)}
}

func (m *memHashStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	if m.hgetallErr != nil {
		return nil, m.hgetallErr
	}
	out := make(map[string]string, len(m.hashes[key]))
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (m *memHashStore) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	if m.hsetErr != nil {
		return m.hsetErr
	}
	for _, item := range items {
		h, ok := m.hashes[item.Key]
		if !ok {
			h = make(map[string]string)
			m.hashes[item.Key] = h
		}
		for k, v := range item.Fields {
			h[k] = v
		}
	}
	return nil
}

func (m *memHashStore) HDel(_ context.Context, key string, fields ...string) error {
	m.hdelCalls = append(m.hdelCalls, hdelCall{key: key, fields: fields})
	for _, f := range fields {
		delete(m.hashes[key], f)
	}
	return nil
}

func newTestRepo(s *memHashStore, now time.Time) *Repo {
	r := New(s)
	r.now = func() time.Time { return now }
	return r
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
