// Package match defines compatibility scores and the weighted aggregation config.
package match

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/matchmaker/internal/domain"
	"github.com/kailas-cloud/matchmaker/internal/domain/profile"
)

// Dimension names one compared aspect of two profiles.
type Dimension string

// Compared dimensions.
const (
	DimensionAge          Dimension = "age"
	DimensionInterests    Dimension = "interests"
	DimensionAvailability Dimension = "availability"
	DimensionOccupation   Dimension = "occupation"
	DimensionWorkRatio    Dimension = "work_ratio"
	DimensionLocation     Dimension = "location"
	DimensionWorkStyle    Dimension = "work_style"
)

// Dimensions lists every dimension in a fixed order.
var Dimensions = []Dimension{
	DimensionAge,
	DimensionInterests,
	DimensionAvailability,
	DimensionOccupation,
	DimensionWorkRatio,
	DimensionLocation,
	DimensionWorkStyle,
}

// Label is a coarse bucket for a total score.
type Label string

// Compatibility labels, best first.
const (
	LabelExcellent Label = "Excellent"
	LabelGood      Label = "Good"
	LabelFair      Label = "Fair"
	LabelPoor      Label = "Poor"
)

// Breakdown maps every dimension to its sub-score in [0,1].
type Breakdown map[Dimension]float64

// Score is the engine output for one candidate.
type Score struct {
	Candidate  profile.Profile `json:"candidate"`
	TotalScore int             `json:"total_score"`
	Label      Label           `json:"compatibility_label"`
	Breakdown  Breakdown       `json:"breakdown"`
}

// Thresholds are the minimum totals for each label above Poor.
type Thresholds struct {
	Excellent int `yaml:"excellent" json:"excellent"`
	Good      int `yaml:"good" json:"good"`
	Fair      int `yaml:"fair" json:"fair"`
}

// Config is the explicit aggregation setup: per-dimension weights and label thresholds.
type Config struct {
	Weights    map[Dimension]float64
	Thresholds Thresholds
}

const weightSumTolerance = 1e-6

// DefaultConfig returns the stock weights and thresholds.
func DefaultConfig() Config {
	return Config{
		Weights: map[Dimension]float64{
			DimensionAge:          0.10,
			DimensionInterests:    0.15,
			DimensionAvailability: 0.15,
			DimensionOccupation:   0.10,
			DimensionWorkRatio:    0.15,
			DimensionLocation:     0.15,
			DimensionWorkStyle:    0.20,
		},
		Thresholds: Thresholds{Excellent: 85, Good: 70, Fair: 55},
	}
}

// Validate checks that every dimension has a weight in [0,1], the weights sum
// to 1, and thresholds are strictly descending within 0..100.
func (c Config) Validate() error {
	if len(c.Weights) != len(Dimensions) {
		return fmt.Errorf("weights: want %d dimensions, got %d: %w",
			len(Dimensions), len(c.Weights), domain.ErrInvalidConfig)
	}
	var sum float64
	for _, d := range Dimensions {
		w, ok := c.Weights[d]
		if !ok {
			return fmt.Errorf("weights: missing %q: %w", d, domain.ErrInvalidConfig)
		}
		if w < 0 || w > 1 {
			return fmt.Errorf("weights: %q=%f outside 0..1: %w", d, w, domain.ErrInvalidConfig)
		}
		sum += w
	}
	if math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("weights: sum %f != 1: %w", sum, domain.ErrInvalidConfig)
	}
	t := c.Thresholds
	if t.Excellent > 100 || t.Excellent <= t.Good || t.Good <= t.Fair || t.Fair < 0 {
		return fmt.Errorf("thresholds %d/%d/%d not descending in 0..100: %w",
			t.Excellent, t.Good, t.Fair, domain.ErrInvalidConfig)
	}
	return nil
}

// Total returns round(100 * Σ weight·score). Sub-scores are clamped to [0,1]
// and a missing dimension counts as 0.
func (c Config) Total(b Breakdown) int {
	var sum float64
	for _, d := range Dimensions {
		sum += c.Weights[d] * clamp01(b[d])
	}
	return int(math.Round(100 * sum))
}

// LabelFor maps a total score to its label.
func (c Config) LabelFor(total int) Label {
	switch {
	case total >= c.Thresholds.Excellent:
		return LabelExcellent
	case total >= c.Thresholds.Good:
		return LabelGood
	case total >= c.Thresholds.Fair:
		return LabelFair
	default:
		return LabelPoor
	}
}

// Aggregate returns the total score and label for a breakdown.
func (c Config) Aggregate(b Breakdown) (int, Label) {
	total := c.Total(b)
	return total, c.LabelFor(total)
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	return math.Min(x, 1)
}
