// Package pairing holds the connection and cooldown records that keep users
// out of each other's candidate lists.
package pairing

import "time"

// Pair is an unordered pair of user ids.
type Pair struct {
	A string `json:"user_a"`
	B string `json:"user_b"`
}

// Involves reports whether uid is either side of the pair.
func (p Pair) Involves(uid string) bool {
	return p.A == uid || p.B == uid
}

// Other returns the side that is not uid, or "" when uid is not in the pair.
func (p Pair) Other(uid string) string {
	switch uid {
	case p.A:
		return p.B
	case p.B:
		return p.A
	default:
		return ""
	}
}

// Connection is an established mutual connection. It excludes the pair permanently.
type Connection struct {
	Pair
	CreatedAt time.Time `json:"created_at"`
}

// Exclusion is a cooldown after an unsuccessful pairing attempt.
type Exclusion struct {
	Pair
	ExpiresAt time.Time `json:"expires_at"`
}

// ActiveAt reports whether the cooldown still holds at now.
func (e Exclusion) ActiveAt(now time.Time) bool {
	return e.ExpiresAt.After(now)
}
