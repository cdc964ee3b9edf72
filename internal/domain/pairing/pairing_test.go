package pairing

import (
	"testing"
	"time"
)

func TestPair_Other(t *testing.T) {
	p := Pair{A: "alice", B: "bob"}
	if p.Other("alice") != "bob" || p.Other("bob") != "alice" {
		t.Fatalf("unexpected other: %q %q", p.Other("alice"), p.Other("bob"))
	}
	if p.Other("carol") != "" {
		t.Errorf("stranger should get empty other, got %q", p.Other("carol"))
	}
	if !p.Involves("bob") || p.Involves("carol") {
		t.Error("Involves mismatch")
	}
}

func TestExclusion_ActiveAt(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		expires time.Time
		want    bool
	}{
		{"future", now.Add(time.Hour), true},
		{"past", now.Add(-time.Hour), false},
		{"exactly now", now, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Exclusion{Pair: Pair{A: "a", B: "b"}, ExpiresAt: tt.expires}
			if got := e.ActiveAt(now); got != tt.want {
				t.Errorf("want %v, got %v", tt.want, got)
			}
		})
	}
}
