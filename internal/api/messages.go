package api

import "time"

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type RegisterUserRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Salt        []byte `json:"salt"`
	Verifier    []byte `json:"verifier"`
}

type RegisterUserResponse struct {
	UserID string `json:"user_id"`
}

type GetSaltRequest struct {
	Username string `json:"username"`
}

type GetSaltResponse struct {
	Salt []byte `json:"salt"`
}

type LoginRequest struct {
	Username          string `json:"username"`
	VerifierCandidate []byte `json:"verifier_candidate"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// GenerateCodeRequest asks for the current code of the named user.
type GenerateCodeRequest struct {
	Username string `json:"username"`
}

type GenerateCodeResponse struct {
	Code             string    `json:"code"`
	RemainingSeconds int       `json:"remaining_seconds"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// VerifyCodeRequest submits a code shown by the named user. The requester is
// taken from the access token.
type VerifyCodeRequest struct {
	Username string `json:"username"`
	Code     string `json:"code"`
}

// VerifyCodeResponse carries the verdict. Policy failures come back with
// Valid=false and a Message, not as a gRPC error.
type VerifyCodeResponse struct {
	Valid            bool       `json:"valid"`
	Message          string     `json:"message"`
	ValiditySeconds  int        `json:"validity_seconds,omitempty"`
	RemainingSeconds int        `json:"remaining_seconds,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
}

// Session describes a live verification session from the requester's side.
// Internal identifiers are never exposed.
type Session struct {
	TargetUsername    string    `json:"target_username"`
	TargetDisplayName string    `json:"target_display_name"`
	VerifiedAt        time.Time `json:"verified_at"`
	ExpiresAt         time.Time `json:"expires_at"`
	RemainingSeconds  int       `json:"remaining_seconds"`
	RemainingMinutes  int       `json:"remaining_minutes"`
}

type ListSessionsRequest struct{}

type ListSessionsResponse struct {
	Sessions []*Session `json:"sessions"`
}

type GetSessionRequest struct {
	Username string `json:"username"`
}

type GetSessionResponse struct {
	Found   bool     `json:"found"`
	Session *Session `json:"session,omitempty"`
}

type GetProfileRequest struct {
	Username string `json:"username"`
}

type GetProfileResponse struct {
	Username         string `json:"username"`
	DisplayName      string `json:"display_name"`
	RemainingMinutes int    `json:"remaining_minutes"`
}
