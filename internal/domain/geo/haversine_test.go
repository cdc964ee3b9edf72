package geo

import (
	"math"
	"testing"
)

func almost(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func TestHaversineKm_SamePoint(t *testing.T) {
	d := HaversineKm(40.7128, -74.0060, 40.7128, -74.0060)
	if d != 0 {
		t.Fatalf("want 0, got %f", d)
	}
}

func TestHaversineKm_NewYork_London(t *testing.T) {
	// ~5,570 km
	d := HaversineKm(40.7128, -74.0060, 51.5074, -0.1278)
	if !almost(d, 5570, 30) {
		t.Fatalf("want ~5570km, got %.1fkm", d)
	}
}

func TestHaversineKm_Antipodal(t *testing.T) {
	d := HaversineKm(0, 0, 0, 180)
	expected := math.Pi * EarthRadiusKm
	if !almost(d, expected, 1e-6) {
		t.Fatalf("want %.3fkm, got %.3fkm", expected, d)
	}
}

func TestHaversineKm_Symmetric(t *testing.T) {
	a := HaversineKm(37.7749, -122.4194, 37.8044, -122.2712)
	b := HaversineKm(37.8044, -122.2712, 37.7749, -122.4194)
	if !almost(a, b, 1e-9) {
		t.Fatalf("asymmetric distance: %f vs %f", a, b)
	}
}

func TestHaversineKm_OneDegreeLatitude(t *testing.T) {
	// one degree of latitude is R*pi/180 everywhere
	d := HaversineKm(10, 20, 11, 20)
	expected := EarthRadiusKm * math.Pi / 180
	if !almost(d, expected, 1e-6) {
		t.Fatalf("want %.4fkm, got %.4fkm", expected, d)
	}
}

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		lat, lng float64
		valid    bool
	}{
		{0, 0, true},
		{90, 180, true},
		{-90, -180, true},
		{91, 0, false},
		{0, 181, false},
		{-91, 0, false},
		{0, -181, false},
	}
	for _, tt := range tests {
		if got := ValidateCoordinates(tt.lat, tt.lng); got != tt.valid {
			t.Errorf("ValidateCoordinates(%f, %f) = %v, want %v", tt.lat, tt.lng, got, tt.valid)
		}
	}
}
