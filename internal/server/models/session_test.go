package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVerificationSession_IsLiveAt(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := &VerificationSession{VerifiedAt: t0, ExpiresAt: t0.Add(SessionValidity)}

	assert.True(t, s.IsLiveAt(t0))
	assert.True(t, s.IsLiveAt(t0.Add(SessionValidity-time.Nanosecond)))
	assert.False(t, s.IsLiveAt(t0.Add(SessionValidity)), "expiry instant is exclusive")
	assert.False(t, s.IsLiveAt(t0.Add(2*SessionValidity)))
}

func TestVerificationSession_Details(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := &VerificationSession{
		RequesterID:       "a",
		TargetID:          "b",
		TargetUsername:    "bob",
		TargetDisplayName: "Bob",
		VerifiedAt:        t0,
		ExpiresAt:         t0.Add(SessionValidity),
	}

	tests := []struct {
		name        string
		now         time.Time
		wantSeconds int
		wantMinutes int
	}{
		{name: "fresh", now: t0, wantSeconds: 3600, wantMinutes: 60},
		{name: "partial minute floors", now: t0.Add(30*time.Minute + 500*time.Millisecond), wantSeconds: 1799, wantMinutes: 29},
		{name: "last second", now: t0.Add(SessionValidity - time.Second), wantSeconds: 1, wantMinutes: 0},
		{name: "expired clamps to zero", now: t0.Add(2 * SessionValidity), wantSeconds: 0, wantMinutes: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := s.Details(tt.now)
			assert.Equal(t, tt.wantSeconds, d.RemainingSeconds)
			assert.Equal(t, tt.wantMinutes, d.RemainingMinutes)
			assert.Equal(t, "bob", d.TargetUsername)
			assert.Equal(t, "Bob", d.TargetDisplayName)
			assert.Equal(t, s.ExpiresAt, d.ExpiresAt)
		})
	}
}
