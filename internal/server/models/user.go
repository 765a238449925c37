package models

import "time"

// User is an identity known to the server. UserName is the public handle;
// ID never leaves the server.
type User struct {
	ID          string
	UserName    string
	DisplayName string
	Salt        []byte
	Verifier    []byte
	CreatedAt   time.Time
}
