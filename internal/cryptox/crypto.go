// Package cryptox derives the password-based credentials the client sends
// at registration and login. The server only ever sees the salt and the
// verifier, never the password or the master key.
package cryptox

import (
	"crypto/sha256"

	"golang.org/x/crypto/argon2"
)

// MasterKeySize is the length of a derived master key in bytes.
const MasterKeySize = 32

// MakeVerifier returns SHA-256(masterKey).
func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

// DeriveMasterKey stretches password with Argon2id (1 pass, 64 MiB, 4 lanes).
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, MasterKeySize)
}
