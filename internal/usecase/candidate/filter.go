// Package candidate removes ineligible users from a candidate pool.
package candidate

import (
	"time"

	"github.com/kailas-cloud/matchmaker/internal/domain/pairing"
	"github.com/kailas-cloud/matchmaker/internal/domain/profile"
)

// Filter drops the subject, connected users and users under an active cooldown.
type Filter struct {
	now func() time.Time
}

// NewFilter creates a Filter. now defaults to time.Now.
func NewFilter(now func() time.Time) *Filter {
	if now == nil {
		now = time.Now
	}
	return &Filter{now: now}
}

// Apply returns the eligible candidates in pool order. Records that do not
// involve the subject are ignored; expired cooldowns count as absent.
func (f *Filter) Apply(
	subjectID string, pool []profile.Profile,
	connections []pairing.Connection, exclusions []pairing.Exclusion,
) []profile.Profile {
	now := f.now()
	blocked := make(map[string]struct{}, len(connections)+len(exclusions)+1)
	blocked[subjectID] = struct{}{}

	for _, c := range connections {
		if other := c.Other(subjectID); other != "" {
			blocked[other] = struct{}{}
		}
	}
	for _, e := range exclusions {
		if !e.ActiveAt(now) {
			continue
		}
		if other := e.Other(subjectID); other != "" {
			blocked[other] = struct{}{}
		}
	}

	out := make([]profile.Profile, 0, len(pool))
	for _, p := range pool {
		if _, ok := blocked[p.UID]; ok {
			continue
		}
		out = append(out, p)
	}
	return out
}
