package scoring

import (
	"math"

	"github.com/kailas-cloud/matchmaker/internal/domain/geo"
	"github.com/kailas-cloud/matchmaker/internal/domain/profile"
	"github.com/kailas-cloud/matchmaker/internal/domain/similarity"
)

const (
	missingAgeScore       = 0.3
	mutualAgeScore        = 1.0
	oneWayAgeScore        = 0.7
	missingLocationScore  = 0.3
	missingWorkStyleScore = 0.5

	// closenessScale is the gaussian scale for 0..100 sliders.
	closenessScale = 25.0
	// thinOverlapSlots: overlaps with fewer shared hours are halved.
	thinOverlapSlots  = 3
	locationDecay     = 3.0
	chatWeight        = 0.6
	interactionWeight = 0.4
)

// AgeFit scores how well the ages fit each side's acceptable range.
// A negative age counts as missing.
func AgeFit(subject, candidate profile.Profile) float64 {
	subjectAge, ok1 := subject.KnownAge()
	candidateAge, ok2 := candidate.KnownAge()
	if !ok1 || !ok2 {
		return missingAgeScore
	}
	subjectRange, _ := subject.AcceptableAgeRange()
	candidateRange, _ := candidate.AcceptableAgeRange()

	subjectAccepts := subjectRange.Contains(candidateAge)
	candidateAccepts := candidateRange.Contains(subjectAge)
	switch {
	case subjectAccepts && candidateAccepts:
		return mutualAgeScore
	case subjectAccepts || candidateAccepts:
		return oneWayAgeScore
	}

	diff := subjectAge - candidateAge
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff <= 5:
		return 0.8
	case diff <= 10:
		return 0.5
	default:
		return 0.2
	}
}

// AvailabilityOverlap is the Jaccard index of available weekly hours.
// Overlaps thinner than thinOverlapSlots are halved. Arrays that are not
// exactly one week long score 0; zero, negative and NaN slots are unavailable.
func AvailabilityOverlap(subject, candidate profile.Profile) float64 {
	a, b := subject.Availability, candidate.Availability
	if len(a) != profile.WeekHours || len(b) != profile.WeekHours {
		return 0
	}
	var inter, union int
	for i := range a {
		x, y := a[i] > 0, b[i] > 0
		if x && y {
			inter++
		}
		if x || y {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	jaccard := float64(inter) / float64(union)
	if inter < thinOverlapSlots {
		jaccard /= 2
	}
	return jaccard
}

// WorkRatioCloseness compares work/social ratios; a missing ratio counts as 50
// and out-of-range ratios are clamped.
func WorkRatioCloseness(subject, candidate profile.Profile) float64 {
	return similarity.GaussianCloseness(subject.WorkRatio(), candidate.WorkRatio(), closenessScale)
}

// LocationProximity decays with distance relative to the tighter of both
// max distances and is cut to 0 beyond it. Off-globe coordinates count as missing.
func LocationProximity(subject, candidate profile.Profile) float64 {
	a, ok1 := subject.Coordinates()
	b, ok2 := candidate.Coordinates()
	if !ok1 || !ok2 {
		return missingLocationScore
	}
	maxDist := math.Min(subject.MaxDistance(), candidate.MaxDistance())
	d := geo.HaversineKm(a.Lat, a.Lng, b.Lat, b.Lng)
	if d > maxDist {
		return 0
	}
	r := d / maxDist
	return math.Exp(-locationDecay * r * r)
}

// WorkStyle compares chat ratio and interaction level during shared work.
func WorkStyle(subject, candidate profile.Profile) float64 {
	a, ok1 := subject.Vibe()
	b, ok2 := candidate.Vibe()
	if !ok1 || !ok2 {
		return missingWorkStyleScore
	}
	return chatWeight*similarity.GaussianCloseness(a.WorkChatRatio, b.WorkChatRatio, closenessScale) +
		interactionWeight*similarity.GaussianCloseness(a.InteractionLevel, b.InteractionLevel, closenessScale)
}
