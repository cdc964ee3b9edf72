package scoring

import (
	"math"
	"testing"

	"github.com/kailas-cloud/matchmaker/internal/domain/geo"
	"github.com/kailas-cloud/matchmaker/internal/domain/profile"
)

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// --- Age ---

func TestAgeFit(t *testing.T) {
	tests := []struct {
		name      string
		subject   profile.Profile
		candidate profile.Profile
		want      float64
	}{
		{"subject missing age", profile.Profile{}, profile.Profile{Age: intPtr(30)}, 0.3},
		{"candidate missing age", profile.Profile{Age: intPtr(30)}, profile.Profile{}, 0.3},
		{"mutual by default spread", profile.Profile{Age: intPtr(30)}, profile.Profile{Age: intPtr(34)}, 1.0},
		{
			"one direction",
			profile.Profile{Age: intPtr(30), AgePreference: &profile.AgeRange{Min: 25, Max: 50}},
			profile.Profile{Age: intPtr(45)},
			0.7,
		},
		{
			"neither, close in age",
			profile.Profile{Age: intPtr(30), AgePreference: &profile.AgeRange{Min: 18, Max: 20}},
			profile.Profile{Age: intPtr(33), AgePreference: &profile.AgeRange{Min: 50, Max: 60}},
			0.8,
		},
		{
			"neither, ten years",
			profile.Profile{Age: intPtr(30), AgePreference: &profile.AgeRange{Min: 18, Max: 20}},
			profile.Profile{Age: intPtr(40), AgePreference: &profile.AgeRange{Min: 50, Max: 60}},
			0.5,
		},
		{
			"neither, far apart",
			profile.Profile{Age: intPtr(25), AgePreference: &profile.AgeRange{Min: 18, Max: 20}},
			profile.Profile{Age: intPtr(45), AgePreference: &profile.AgeRange{Min: 50, Max: 60}},
			0.2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AgeFit(tt.subject, tt.candidate); got != tt.want {
				t.Errorf("want %f, got %f", tt.want, got)
			}
		})
	}
}

// --- Availability ---

func TestAvailabilityOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical wide", weekSlots(hourRange(9, 17)...), weekSlots(hourRange(9, 17)...), 1.0},
		{"identical thin", weekSlots(10, 11), weekSlots(10, 11), 0.5},
		{"partial", weekSlots(hourRange(0, 10)...), weekSlots(hourRange(5, 15)...), 5.0 / 15.0},
		{"thin partial halved", weekSlots(0, 1), weekSlots(1, 2, 3), 0.125},
		{"disjoint", weekSlots(1, 2, 3), weekSlots(4, 5, 6), 0},
		{"nobody available", weekSlots(), weekSlots(), 0},
		{"wrong length", []float64{1, 1, 1}, weekSlots(0, 1, 2), 0},
		{"missing", nil, weekSlots(0, 1, 2), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AvailabilityOverlap(profile.Profile{Availability: tt.a}, profile.Profile{Availability: tt.b})
			if !almost(got, tt.want) {
				t.Errorf("want %f, got %f", tt.want, got)
			}
		})
	}
}

func TestAvailabilityOverlap_PositiveValuesCount(t *testing.T) {
	a := weekSlots(hourRange(0, 5)...)
	b := weekSlots()
	for h := range 5 {
		b[h] = 0.25
	}
	got := AvailabilityOverlap(profile.Profile{Availability: a}, profile.Profile{Availability: b})
	if got != 1 {
		t.Errorf("any value > 0 is available, want 1 got %f", got)
	}
}

// --- Work ratio ---

func TestWorkRatioCloseness(t *testing.T) {
	if got := WorkRatioCloseness(profile.Profile{}, profile.Profile{}); got != 1 {
		t.Errorf("both missing default to 50: want 1, got %f", got)
	}
	if got := WorkRatioCloseness(profile.Profile{WorkDateRatio: floatPtr(50)}, profile.Profile{}); got != 1 {
		t.Errorf("missing equals 50: want 1, got %f", got)
	}
	got := WorkRatioCloseness(profile.Profile{WorkDateRatio: floatPtr(25)}, profile.Profile{WorkDateRatio: floatPtr(50)})
	if !almost(got, math.Exp(-1)) {
		t.Errorf("want e^-1, got %f", got)
	}
}

// --- Location ---

func TestLocationProximity_Missing(t *testing.T) {
	candidates := []*profile.Location{nil, {Lat: 0, Lng: 0}, {Lat: 52.52, Lng: 13.405}}
	for _, loc := range candidates {
		got := LocationProximity(profile.Profile{}, profile.Profile{Location: loc})
		if got != 0.3 {
			t.Errorf("subject without location: want 0.3, got %f (candidate %v)", got, loc)
		}
	}
	got := LocationProximity(profile.Profile{Location: &profile.Location{}}, profile.Profile{})
	if got != 0.3 {
		t.Errorf("candidate without location: want 0.3, got %f", got)
	}
}

func TestLocationProximity_SamePlace(t *testing.T) {
	loc := &profile.Location{Lat: 40.7, Lng: -74}
	if got := LocationProximity(profile.Profile{Location: loc}, profile.Profile{Location: loc}); got != 1 {
		t.Errorf("want 1, got %f", got)
	}
}

func TestLocationProximity_Cutoff(t *testing.T) {
	a := &profile.Location{Lat: 52.52, Lng: 13.405}
	b := &profile.Location{Lat: 52.40, Lng: 13.06}
	d := geo.HaversineKm(a.Lat, a.Lng, b.Lat, b.Lng)

	atEdge := LocationProximity(
		profile.Profile{Location: a, MaxDistanceKm: d},
		profile.Profile{Location: b, MaxDistanceKm: d + 100},
	)
	if atEdge <= 0 || atEdge > math.Exp(-3)+1e-12 {
		t.Errorf("at max distance: want (0, e^-3], got %f", atEdge)
	}

	beyond := LocationProximity(
		profile.Profile{Location: a, MaxDistanceKm: d + 100},
		profile.Profile{Location: b, MaxDistanceKm: d * 0.99},
	)
	if beyond != 0 {
		t.Errorf("beyond tighter max distance: want 0, got %f", beyond)
	}
}

func TestLocationProximity_DefaultMaxDistance(t *testing.T) {
	// ~1 degree of latitude is ~111km, beyond the 50km default
	got := LocationProximity(
		profile.Profile{Location: &profile.Location{Lat: 10, Lng: 10}},
		profile.Profile{Location: &profile.Location{Lat: 11, Lng: 10}},
	)
	if got != 0 {
		t.Errorf("want 0 beyond default distance, got %f", got)
	}
}

// --- Work style ---

func TestWorkStyle(t *testing.T) {
	vibe := &profile.WorkVibe{WorkChatRatio: 40, InteractionLevel: 60}
	if got := WorkStyle(profile.Profile{}, profile.Profile{WorkVibe: vibe}); got != 0.5 {
		t.Errorf("missing: want 0.5, got %f", got)
	}
	if got := WorkStyle(profile.Profile{WorkVibe: vibe}, profile.Profile{WorkVibe: vibe}); !almost(got, 1) {
		t.Errorf("identical: want 1, got %f", got)
	}
	other := &profile.WorkVibe{WorkChatRatio: 65, InteractionLevel: 60}
	got := WorkStyle(profile.Profile{WorkVibe: vibe}, profile.Profile{WorkVibe: other})
	if !almost(got, 0.6*math.Exp(-1)+0.4) {
		t.Errorf("want 0.6e^-1+0.4, got %f", got)
	}
}

// --- Malformed input ---

func TestFeatures_MalformedFieldsUseDefaults(t *testing.T) {
	ok := profile.Profile{
		Age:           intPtr(30),
		WorkDateRatio: floatPtr(100),
		WorkVibe:      &profile.WorkVibe{WorkChatRatio: 0, InteractionLevel: 100},
		Location:      &profile.Location{Lat: 10, Lng: 10},
	}
	bad := profile.Profile{
		Age:           intPtr(-1),
		WorkDateRatio: floatPtr(250),
		WorkVibe:      &profile.WorkVibe{WorkChatRatio: -40, InteractionLevel: 400},
		Location:      &profile.Location{Lat: -100, Lng: 10},
	}

	if got := AgeFit(ok, bad); got != 0.3 {
		t.Errorf("AgeFit: got %v, want 0.3", got)
	}
	if got := WorkRatioCloseness(ok, bad); !almost(got, 1) {
		t.Errorf("WorkRatioCloseness: got %v, want 1 after clamping", got)
	}
	if got := WorkStyle(ok, bad); !almost(got, 1) {
		t.Errorf("WorkStyle: got %v, want 1 after clamping", got)
	}
	if got := LocationProximity(ok, bad); got != 0.3 {
		t.Errorf("LocationProximity: got %v, want 0.3", got)
	}
}

func TestAvailabilityOverlap_NegativeSlotsAreUnavailable(t *testing.T) {
	a := make([]float64, profile.WeekHours)
	b := make([]float64, profile.WeekHours)
	for i := range 4 {
		a[i], b[i] = 1, 1
	}
	a[10], b[11] = -1, -5
	got := AvailabilityOverlap(profile.Profile{Availability: a}, profile.Profile{Availability: b})
	if !almost(got, 1) {
		t.Errorf("got %v, want 1", got)
	}
}
