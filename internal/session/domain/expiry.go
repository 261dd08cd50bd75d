package domain

import "time"

// ExpiryState classifies how much lifetime a session has left.
type ExpiryState int

const (
	// Healthy means more than the near-expiry threshold remains.
	Healthy ExpiryState = iota
	// NearExpiry means the remaining lifetime is at or below the threshold.
	NearExpiry
	// Expired means the expiry timestamp is now or in the past.
	Expired
)

func (s ExpiryState) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case NearExpiry:
		return "near_expiry"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Classify evaluates expiresAt against now. A session is Expired when
// now >= expiresAt, NearExpiry when at most threshold remains, otherwise
// Healthy. Pure function; total over valid timestamps.
func Classify(now, expiresAt time.Time, threshold time.Duration) ExpiryState {
	if !now.Before(expiresAt) {
		return Expired
	}
	if expiresAt.Sub(now) <= threshold {
		return NearExpiry
	}
	return Healthy
}

// MinutesRemaining returns the remaining session lifetime in minutes.
// Negative when the session is already expired.
func MinutesRemaining(now, expiresAt time.Time) float64 {
	return expiresAt.Sub(now).Minutes()
}
