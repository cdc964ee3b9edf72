package scoring

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/kailas-cloud/matchmaker/internal/domain/profile"
)

// mockEmbedder is a function-field TextEmbedder.
type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) ([]float32, error)

	mu    sync.Mutex
	texts []string
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()
	return m.embedFn(ctx, text)
}

// vectorsEmbedder returns fixed vectors per text and a hashed vector otherwise.
func vectorsEmbedder(vectors map[string][]float32) *mockEmbedder {
	return &mockEmbedder{embedFn: func(_ context.Context, text string) ([]float32, error) {
		if v, ok := vectors[text]; ok {
			return v, nil
		}
		return hashedVector(text), nil
	}}
}

// hashedVector gives equal texts equal vectors.
func hashedVector(text string) []float32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	sum := h.Sum32()
	return []float32{float32(sum & 0xff), float32(sum >> 8 & 0xff), float32(sum >> 16 & 0xff), 1}
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func weekSlots(hours ...int) []float64 {
	slots := make([]float64, profile.WeekHours)
	for _, h := range hours {
		slots[h] = 1
	}
	return slots
}

func hourRange(from, to int) []int {
	out := make([]int, 0, to-from)
	for h := from; h < to; h++ {
		out = append(out, h)
	}
	return out
}

// fullProfile has every field set.
func fullProfile(uid string) profile.Profile {
	return profile.Profile{
		UID:                   uid,
		Age:                   intPtr(29),
		Interests:             []string{"climbing", "jazz", "espresso"},
		Availability:          weekSlots(hourRange(9, 17)...),
		Occupation:            "Product Designer",
		OccupationDescription: "design systems for fintech",
		WorkDateRatio:         floatPtr(60),
		Location:              &profile.Location{Lat: 52.52, Lng: 13.405},
		MaxDistanceKm:         25,
		WorkVibe:              &profile.WorkVibe{WorkChatRatio: 30, InteractionLevel: 70},
	}
}
