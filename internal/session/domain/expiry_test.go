package domain

import (
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	threshold := time.Minute

	testCases := []struct {
		name      string
		expiresAt time.Time
		want      ExpiryState
	}{
		{"already expired", now.Add(-5 * time.Minute), Expired},
		{"expires exactly now", now, Expired},
		{"one second left", now.Add(time.Second), NearExpiry},
		{"thirty seconds left", now.Add(30 * time.Second), NearExpiry},
		{"exactly at threshold", now.Add(threshold), NearExpiry},
		{"just past threshold", now.Add(threshold + time.Second), Healthy},
		{"plenty of time", now.Add(14 * time.Minute), Healthy},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(now, tc.expiresAt, threshold)
			if got != tc.want {
				t.Errorf("Classify(now, %v) = %v, want %v", tc.expiresAt, got, tc.want)
			}
		})
	}
}

func TestMinutesRemaining(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if got := MinutesRemaining(now, now.Add(11*time.Minute)); got != 11 {
		t.Errorf("MinutesRemaining = %v, want 11", got)
	}
	if got := MinutesRemaining(now, now.Add(-90*time.Second)); got != -1.5 {
		t.Errorf("MinutesRemaining for expired = %v, want -1.5", got)
	}
	if got := MinutesRemaining(now, now); got != 0 {
		t.Errorf("MinutesRemaining at expiry = %v, want 0", got)
	}
}

func TestNewAndClone(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := New("user-1", "normal", now, 15*time.Minute)

	if s.ID == "" {
		t.Error("New should assign an id")
	}
	if !s.IsValid {
		t.Error("new session should be valid")
	}
	if !s.ExpiresAt.Equal(now.Add(15 * time.Minute)) {
		t.Errorf("ExpiresAt = %v, want %v", s.ExpiresAt, now.Add(15*time.Minute))
	}
	if s.ExtensionCount != 0 {
		t.Errorf("ExtensionCount = %d, want 0", s.ExtensionCount)
	}

	seen := now.Add(time.Minute)
	s.LastSeenAt = &seen
	c := s.Clone()
	if c == s || c.LastSeenAt == s.LastSeenAt {
		t.Error("Clone should not share memory with the original")
	}
	if !c.LastSeenAt.Equal(seen) || c.ID != s.ID {
		t.Error("Clone should copy all fields")
	}

	var nilSession *Session
	if nilSession.Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}
