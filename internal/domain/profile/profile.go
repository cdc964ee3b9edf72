// Package profile defines the user match profile read by the ranking engine.
package profile

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/kailas-cloud/matchmaker/internal/domain"
	"github.com/kailas-cloud/matchmaker/internal/domain/geo"
)

const (
	// WeekHours is the expected availability length: one slot per hour of a week.
	WeekHours = 7 * 24
	// DefaultAgeSpread widens a user's own age into an acceptable range when no preference is set.
	DefaultAgeSpread = 5
	// DefaultMaxDistanceKm applies when a profile has no positive max distance.
	DefaultMaxDistanceKm = 50.0
	// DefaultWorkDateRatio applies when a profile has no work/social ratio.
	DefaultWorkDateRatio = 50.0
)

// AgeRange is an inclusive age interval.
type AgeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether age falls inside the range.
func (r AgeRange) Contains(age int) bool {
	return age >= r.Min && age <= r.Max
}

// Location is a latitude/longitude pair in degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// WorkVibe describes how a user likes to spend shared work sessions.
type WorkVibe struct {
	WorkChatRatio    float64 `json:"workChatRatio"`
	InteractionLevel float64 `json:"interactionLevel"`
}

// Profile is a user as seen by the matcher. Optional fields are pointers or empty values.
type Profile struct {
	UID                   string    `json:"uid"`
	Age                   *int      `json:"age,omitempty"`
	AgePreference         *AgeRange `json:"agePreference,omitempty"`
	Interests             []string  `json:"interests,omitempty"`
	Availability          []float64 `json:"availability,omitempty"`
	Occupation            string    `json:"occupation,omitempty"`
	OccupationDescription string    `json:"occupationDescription,omitempty"`
	WorkDateRatio         *float64  `json:"workDateRatio,omitempty"`
	Location              *Location `json:"location,omitempty"`
	MaxDistanceKm         float64   `json:"maxDistanceKm,omitempty"`
	WorkVibe              *WorkVibe `json:"workVibe,omitempty"`
}

// InterestSet returns trimmed, de-duplicated, sorted interests. Blank entries are dropped.
func (p Profile) InterestSet() []string {
	if len(p.Interests) == 0 {
		return nil
	}
	out := make([]string, 0, len(p.Interests))
	for _, in := range p.Interests {
		if s := strings.TrimSpace(in); s != "" {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// InterestText joins the interest set with ", " for embedding.
func (p Profile) InterestText() string {
	return strings.Join(p.InterestSet(), ", ")
}

// OccupationText is occupation and description joined, trimmed and lower-cased.
func (p Profile) OccupationText() string {
	return strings.ToLower(strings.TrimSpace(p.Occupation + " " + p.OccupationDescription))
}

// The accessors below are what scorers read. Malformed values fall back to
// the same defaults as missing ones (or are clamped), so a bad field lowers
// one dimension instead of failing the candidate.

// KnownAge returns the age unless it is missing or negative.
func (p Profile) KnownAge() (int, bool) {
	if p.Age == nil || *p.Age < 0 {
		return 0, false
	}
	return *p.Age, true
}

// AcceptableAgeRange is the explicit preference, or own age ±DefaultAgeSpread.
// An inverted preference is ignored. ok is false when neither is usable.
func (p Profile) AcceptableAgeRange() (AgeRange, bool) {
	if r := p.AgePreference; r != nil && r.Min <= r.Max {
		return *r, true
	}
	age, ok := p.KnownAge()
	if !ok {
		return AgeRange{}, false
	}
	return AgeRange{Min: age - DefaultAgeSpread, Max: age + DefaultAgeSpread}, true
}

// WorkRatio returns the work/social ratio clamped to 0..100, or
// DefaultWorkDateRatio when unset or NaN.
func (p Profile) WorkRatio() float64 {
	if p.WorkDateRatio == nil {
		return DefaultWorkDateRatio
	}
	return clampPercent(*p.WorkDateRatio, DefaultWorkDateRatio)
}

// Vibe returns the work vibe with both sliders clamped to 0..100.
func (p Profile) Vibe() (WorkVibe, bool) {
	if p.WorkVibe == nil {
		return WorkVibe{}, false
	}
	return WorkVibe{
		WorkChatRatio:    clampPercent(p.WorkVibe.WorkChatRatio, 50),
		InteractionLevel: clampPercent(p.WorkVibe.InteractionLevel, 50),
	}, true
}

// Coordinates returns the location unless it is missing or off the globe.
func (p Profile) Coordinates() (Location, bool) {
	l := p.Location
	if l == nil || !geo.ValidateCoordinates(l.Lat, l.Lng) {
		return Location{}, false
	}
	return *l, true
}

// MaxDistance returns MaxDistanceKm or DefaultMaxDistanceKm when not positive.
func (p Profile) MaxDistance() float64 {
	if p.MaxDistanceKm <= 0 {
		return DefaultMaxDistanceKm
	}
	return p.MaxDistanceKm
}

// CheckIdentity fails only when the uid is blank. It is the one check ranking
// applies: every other field has a scoring default.
func (p Profile) CheckIdentity() error {
	if strings.TrimSpace(p.UID) == "" {
		return fmt.Errorf("uid is required: %w", domain.ErrInvalidProfile)
	}
	return nil
}

// Validate checks structural constraints before a profile is stored.
// Missing optional fields are not errors.
func (p Profile) Validate() error {
	if err := p.CheckIdentity(); err != nil {
		return err
	}
	if p.Age != nil && *p.Age < 0 {
		return fmt.Errorf("age %d is negative: %w", *p.Age, domain.ErrInvalidProfile)
	}
	if r := p.AgePreference; r != nil && r.Min > r.Max {
		return fmt.Errorf("age preference %d..%d is inverted: %w", r.Min, r.Max, domain.ErrInvalidProfile)
	}
	if l := p.Location; l != nil && !geo.ValidateCoordinates(l.Lat, l.Lng) {
		return fmt.Errorf("location (%f, %f) out of range: %w", l.Lat, l.Lng, domain.ErrInvalidProfile)
	}
	if p.WorkDateRatio != nil && !inPercent(*p.WorkDateRatio) {
		return fmt.Errorf("workDateRatio %f outside 0..100: %w", *p.WorkDateRatio, domain.ErrInvalidProfile)
	}
	if v := p.WorkVibe; v != nil && (!inPercent(v.WorkChatRatio) || !inPercent(v.InteractionLevel)) {
		return fmt.Errorf("workVibe outside 0..100: %w", domain.ErrInvalidProfile)
	}
	for i, slot := range p.Availability {
		if slot < 0 {
			return fmt.Errorf("availability[%d] is negative: %w", i, domain.ErrInvalidProfile)
		}
	}
	return nil
}

func inPercent(v float64) bool {
	return v >= 0 && v <= 100
}

func clampPercent(v, fallback float64) float64 {
	if math.IsNaN(v) {
		return fallback
	}
	return math.Min(math.Max(v, 0), 100)
}
