package models

import "time"

// SessionValidity is the fixed lifetime of a verification session.
const SessionValidity = time.Hour

// VerificationSession records that RequesterID proved possession of a code
// belonging to TargetID at VerifiedAt. The session is live while
// ExpiresAt is strictly after the current time.
//
// TargetUsername is not stored on the row; it is filled by queries that join
// the users table.
type VerificationSession struct {
	ID                string
	RequesterID       string
	TargetID          string
	TargetUsername    string
	TargetDisplayName string
	VerifiedAt        time.Time
	ExpiresAt         time.Time
}

// IsLiveAt reports whether the session grants access at now.
func (s *VerificationSession) IsLiveAt(now time.Time) bool {
	return s.ExpiresAt.After(now)
}

// SessionDetails is a live session together with its remaining validity as
// seen at a given instant.
type SessionDetails struct {
	RequesterID       string
	TargetID          string
	TargetUsername    string
	TargetDisplayName string
	VerifiedAt        time.Time
	ExpiresAt         time.Time
	RemainingSeconds  int
	RemainingMinutes  int
}

// Details computes the remaining validity of s at now. Remaining time is
// floored to whole seconds and whole minutes and never negative.
func (s *VerificationSession) Details(now time.Time) *SessionDetails {
	remaining := int(s.ExpiresAt.Sub(now) / time.Second)
	if remaining < 0 {
		remaining = 0
	}
	return &SessionDetails{
		RequesterID:       s.RequesterID,
		TargetID:          s.TargetID,
		TargetUsername:    s.TargetUsername,
		TargetDisplayName: s.TargetDisplayName,
		VerifiedAt:        s.VerifiedAt,
		ExpiresAt:         s.ExpiresAt,
		RemainingSeconds:  remaining,
		RemainingMinutes:  remaining / 60,
	}
}
