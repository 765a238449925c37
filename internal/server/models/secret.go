package models

import "time"

// Secret is the TOTP shared secret of one user, Base32 encoded.
type Secret struct {
	UserID    string
	Secret    string
	CreatedAt time.Time
}
