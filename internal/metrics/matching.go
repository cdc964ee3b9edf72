package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "matchmaker"

// Ranking metrics.
var (
	RankingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ranking_duration_seconds",
			Help:      "Time to filter, score and sort one candidate pool",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"status"},
	)

	// CandidatesTotal counts candidates by outcome: filtered, scored, failed.
	CandidatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Candidates processed by outcome",
		},
		[]string{"outcome"},
	)

	// CorruptProfilesTotal counts stored profiles skipped because they did not decode.
	CorruptProfilesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "corrupt_profiles_total",
			Help:      "Stored profiles skipped while listing the candidate pool",
		},
		[]string{"backend"},
	)

	ScorerDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scorer_degraded_total",
			Help:      "Scorer calls that fell back to the neutral value after an embedding failure",
		},
		[]string{"dimension"},
	)
)

var matchingMetricsRegistered bool

// RegisterMatchingMetrics registers ranking metrics. Must be called once from main.
func RegisterMatchingMetrics() {
	if matchingMetricsRegistered {
		return
	}
	prometheus.MustRegister(RankingDuration)
	prometheus.MustRegister(CandidatesTotal)
	prometheus.MustRegister(ScorerDegradedTotal)
	prometheus.MustRegister(CorruptProfilesTotal)
	matchingMetricsRegistered = true
}
