package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/kailas-cloud/matchmaker/internal/domain"
	"github.com/kailas-cloud/matchmaker/internal/domain/match"
	"github.com/kailas-cloud/matchmaker/internal/domain/profile"
	"github.com/kailas-cloud/matchmaker/internal/metrics"
)

// unitAt returns a 2D unit vector whose cosine with (1,0) is sim.
func unitAt(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

func newTestScorer(t *testing.T, emb TextEmbedder) *Scorer {
	t.Helper()
	return New(emb, match.DefaultConfig(), zaptest.NewLogger(t))
}

// --- Identical users ---

func TestScore_IdenticalUsersAreExcellent(t *testing.T) {
	s := newTestScorer(t, vectorsEmbedder(nil))
	a, b := fullProfile("a"), fullProfile("b")

	score, err := s.Score(context.Background(), a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score.TotalScore < 95 {
		t.Errorf("want total >= 95, got %d (%v)", score.TotalScore, score.Breakdown)
	}
	if score.Label != match.LabelExcellent {
		t.Errorf("want Excellent, got %s", score.Label)
	}
	if score.Candidate.UID != "b" {
		t.Errorf("score must carry the candidate, got %q", score.Candidate.UID)
	}
}

func TestScore_BreakdownHasAllDimensions(t *testing.T) {
	s := newTestScorer(t, vectorsEmbedder(nil))
	score, err := s.Score(context.Background(), profile.Profile{UID: "a"}, profile.Profile{UID: "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(score.Breakdown) != len(match.Dimensions) {
		t.Fatalf("want %d dimensions, got %d", len(match.Dimensions), len(score.Breakdown))
	}
	for _, d := range match.Dimensions {
		v, ok := score.Breakdown[d]
		if !ok || v < 0 || v > 1 {
			t.Errorf("dimension %s: got %f ok=%v", d, v, ok)
		}
	}
	if want := match.DefaultConfig().Total(score.Breakdown); score.TotalScore != want {
		t.Errorf("total must follow weights: want %d, got %d", want, score.TotalScore)
	}
}

func TestScore_EmptyProfilesUseDefaults(t *testing.T) {
	emb := vectorsEmbedder(nil)
	s := newTestScorer(t, emb)
	score, err := s.Score(context.Background(), profile.Profile{UID: "a"}, profile.Profile{UID: "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := match.Breakdown{
		match.DimensionAge:          0.3,
		match.DimensionInterests:    0.5,
		match.DimensionAvailability: 0,
		match.DimensionOccupation:   0.5,
		match.DimensionWorkRatio:    1,
		match.DimensionLocation:     0.3,
		match.DimensionWorkStyle:    0.5,
	}
	for d, v := range want {
		if score.Breakdown[d] != v {
			t.Errorf("%s: want %f, got %f", d, v, score.Breakdown[d])
		}
	}
	if len(emb.texts) != 0 {
		t.Errorf("empty texts must not reach the embedder, got %v", emb.texts)
	}
}

// --- Interests ---

func TestInterests_Buckets(t *testing.T) {
	tests := []struct {
		sim  float64
		want float64
	}{
		{0.95, 1.0},
		{0.6, 0.85},
		{0.4, 0.7},
		{0.2, 0.55},
		{0.1, 0.3},
		{0.0, 0.3},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("sim=%.2f", tt.sim), func(t *testing.T) {
			s := newTestScorer(t, vectorsEmbedder(map[string][]float32{
				"a":    {1, 0},
				"b, c": unitAt(tt.sim),
			}))
			got, err := s.Interests(context.Background(),
				profile.Profile{Interests: []string{"a"}},
				profile.Profile{Interests: []string{"c", "b"}},
			)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("want %f, got %f", tt.want, got)
			}
		})
	}
}

func TestInterests_EmptySides(t *testing.T) {
	s := newTestScorer(t, vectorsEmbedder(nil))
	ctx := context.Background()
	withInterests := profile.Profile{Interests: []string{"art"}}

	if got, _ := s.Interests(ctx, profile.Profile{}, profile.Profile{}); got != 0.5 {
		t.Errorf("both empty: want 0.5, got %f", got)
	}
	if got, _ := s.Interests(ctx, withInterests, profile.Profile{}); got != 0.2 {
		t.Errorf("candidate empty: want 0.2, got %f", got)
	}
	if got, _ := s.Interests(ctx, profile.Profile{Interests: []string{" "}}, withInterests); got != 0.2 {
		t.Errorf("blank subject: want 0.2, got %f", got)
	}
}

// --- Occupation ---

func TestOccupation_Buckets(t *testing.T) {
	tests := []struct {
		sim  float64
		want float64
	}{
		{0.9, 1.0},
		{0.5, 0.8},
		{0.3, 0.6},
		{0.1, 0.3},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("sim=%.2f", tt.sim), func(t *testing.T) {
			emb := vectorsEmbedder(map[string][]float32{
				"nurse night shifts": {1, 0},
				"barista":            unitAt(tt.sim),
			})
			s := newTestScorer(t, emb)
			got, err := s.Occupation(context.Background(),
				profile.Profile{Occupation: "Nurse", OccupationDescription: "Night shifts"},
				profile.Profile{Occupation: "Barista"},
			)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("want %f, got %f", tt.want, got)
			}
		})
	}
}

func TestOccupation_EitherEmpty(t *testing.T) {
	s := newTestScorer(t, vectorsEmbedder(nil))
	got, err := s.Occupation(context.Background(), profile.Profile{Occupation: "pilot"}, profile.Profile{})
	if err != nil || got != 0.5 {
		t.Errorf("want 0.5, nil; got %f, %v", got, err)
	}
}

// --- Error policy ---

func TestScore_EmbeddingFailureDegrades(t *testing.T) {
	emb := &mockEmbedder{embedFn: func(context.Context, string) ([]float32, error) {
		return nil, fmt.Errorf("openai: %w", domain.ErrEmbeddingProviderError)
	}}
	s := New(emb, match.DefaultConfig(), zap.NewNop())

	before := testutil.ToFloat64(metrics.ScorerDegradedTotal.WithLabelValues("interests"))
	score, err := s.Score(context.Background(), fullProfile("a"), fullProfile("b"))
	if err != nil {
		t.Fatalf("embedding failure must not fail the candidate: %v", err)
	}
	if score.Breakdown[match.DimensionInterests] != 0.5 || score.Breakdown[match.DimensionOccupation] != 0.5 {
		t.Errorf("expected neutral semantic scores, got %v", score.Breakdown)
	}
	after := testutil.ToFloat64(metrics.ScorerDegradedTotal.WithLabelValues("interests"))
	if after-before != 1 {
		t.Errorf("expected one degraded interests increment, got %f", after-before)
	}
}

func TestScore_TimeoutDegrades(t *testing.T) {
	emb := &mockEmbedder{embedFn: func(context.Context, string) ([]float32, error) {
		return nil, context.DeadlineExceeded
	}}
	s := newTestScorer(t, emb)
	score, err := s.Score(context.Background(), fullProfile("a"), fullProfile("b"))
	if err != nil {
		t.Fatalf("timeout must degrade, got %v", err)
	}
	if score.Breakdown[match.DimensionOccupation] != 0.5 {
		t.Errorf("expected neutral occupation, got %f", score.Breakdown[match.DimensionOccupation])
	}
}

func TestScore_DimensionMismatchFails(t *testing.T) {
	emb := &mockEmbedder{embedFn: func(_ context.Context, text string) ([]float32, error) {
		if text == "climbing, espresso, jazz" {
			return []float32{1, 0, 0}, nil
		}
		return []float32{1, 0}, nil
	}}
	s := newTestScorer(t, emb)
	other := fullProfile("b")
	other.Interests = []string{"chess"}

	_, err := s.Score(context.Background(), fullProfile("a"), other)
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

// --- Asymmetry ---

func TestScore_SubjectWithoutLocation(t *testing.T) {
	s := newTestScorer(t, vectorsEmbedder(nil))
	subject := fullProfile("a")
	subject.Location = nil

	for _, loc := range []*profile.Location{{Lat: 52.52, Lng: 13.405}, {Lat: -33.8, Lng: 151.2}} {
		candidate := fullProfile("b")
		candidate.Location = loc
		score, err := s.Score(context.Background(), subject, candidate)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if score.Breakdown[match.DimensionLocation] != 0.3 {
			t.Errorf("want 0.3, got %f", score.Breakdown[match.DimensionLocation])
		}
	}
}
