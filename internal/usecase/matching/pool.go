package matching

import (
	"github.com/kailas-cloud/matchmaker/internal/domain/profile"
	"github.com/kailas-cloud/matchmaker/internal/metrics"
)

// Rejected is a caller-supplied candidate dropped before ranking.
type Rejected struct {
	Index int
	Err   error
}

// DropUnidentified keeps the candidates that carry a uid, in pool order.
// A candidate without one cannot be excluded or reported back, so it is
// rejected; every other malformed field is left to the scorers' defaults.
func DropUnidentified(pool []profile.Profile) ([]profile.Profile, []Rejected) {
	var rejected []Rejected
	kept := make([]profile.Profile, 0, len(pool))
	for i, c := range pool {
		if err := c.CheckIdentity(); err != nil {
			rejected = append(rejected, Rejected{Index: i, Err: err})
			continue
		}
		kept = append(kept, c)
	}
	if len(rejected) > 0 {
		metrics.CandidatesTotal.WithLabelValues("failed").Add(float64(len(rejected)))
	}
	return kept, rejected
}

// WithRejected counts n rejected candidates as considered and failed.
func (r Result) WithRejected(n int) Result {
	r.Considered += n
	r.Failed += n
	return r
}
