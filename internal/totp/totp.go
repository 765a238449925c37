// Package totp implements the time-based one-time codes used to delegate
// data access between two identities.
//
// The construction is RFC 4226 HOTP (HMAC-SHA1 + dynamic truncation) driven by
// an RFC 6238 time counter. The time step is 60 seconds rather than the usual
// 30, so codes are NOT interchangeable with stock authenticator apps. Digits,
// step and the secret alphabet are part of the wire contract with clients
// that compute codes independently and must not be changed at runtime.
package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// Digits is the length of a generated code.
	Digits = 6
	// Period is the length of one time step.
	Period = 60 * time.Second
	// DefaultTolerance is the number of adjacent steps accepted on each side
	// of the current one during validation.
	DefaultTolerance = 1
	// SecretSize is the number of random bytes in a secret (160 bits).
	SecretSize = 20
)

// ErrInvalidSecret is returned when a secret cannot be decoded from Base32.
var ErrInvalidSecret = errors.New("totp: invalid secret")

// secretEncoding is RFC 4648 Base32 without padding.
var secretEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// randRead is a test seam for crypto/rand.Read.
var randRead = rand.Read

const (
	periodSeconds = int64(Period / time.Second)
	codeModulus   = 1_000_000
)

// GenerateSecret draws SecretSize bytes from crypto/rand and returns them
// Base32-encoded without padding (32 characters). It is called once per
// identity, at registration.
func GenerateSecret() (string, error) {
	b := make([]byte, SecretSize)
	if _, err := randRead(b); err != nil {
		return "", fmt.Errorf("totp: read random: %w", err)
	}
	return EncodeSecret(b), nil
}

// EncodeSecret encodes raw key bytes in the secret alphabet.
func EncodeSecret(key []byte) string {
	return secretEncoding.EncodeToString(key)
}

// DecodeSecret returns the raw key bytes of a Base32 secret. Surrounding
// whitespace and trailing padding are ignored and lower-case letters are
// accepted.
func DecodeSecret(secret string) ([]byte, error) {
	s := strings.TrimRight(strings.ToUpper(strings.TrimSpace(secret)), "=")
	if s == "" {
		return nil, ErrInvalidSecret
	}
	key, err := secretEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	return key, nil
}

// GenerateCode returns the code for the time step that contains now.
func GenerateCode(secret string, now time.Time) (string, error) {
	key, err := DecodeSecret(secret)
	if err != nil {
		return "", err
	}
	return codeForCounter(key, Counter(now)), nil
}

// ValidateCode reports whether code matches secret for any step in
// [current-toleranceWindows, current+toleranceWindows]. It never fails:
// malformed codes, undecodable secrets and negative tolerances all
// resolve to a plain answer. Every candidate step is compared so the
// running time does not depend on which step matched.
func ValidateCode(secret, code string, now time.Time, toleranceWindows int) bool {
	code = strings.TrimSpace(code)
	if !isCode(code) {
		return false
	}

	key, err := DecodeSecret(secret)
	if err != nil {
		return false
	}

	if toleranceWindows < 0 {
		toleranceWindows = 0
	}

	current := Counter(now)
	matched := 0
	for delta := -toleranceWindows; delta <= toleranceWindows; delta++ {
		if delta < 0 && uint64(-delta) > current {
			continue
		}
		candidate := codeForCounter(key, current+uint64(int64(delta)))
		matched |= subtle.ConstantTimeCompare([]byte(candidate), []byte(code))
	}

	return matched == 1
}

// RemainingSeconds returns how long, in whole seconds, a code generated at
// now stays in its own step. The result is in [1, 60].
func RemainingSeconds(now time.Time) int {
	return int(periodSeconds - floorMod(now.Unix(), periodSeconds))
}

// WindowEnd returns the instant the step containing now ends.
func WindowEnd(now time.Time) time.Time {
	return time.Unix(int64(Counter(now)+1)*periodSeconds, 0).In(now.Location())
}

// Counter returns the step number for now: floor(unix seconds / 60).
// Instants before the Unix epoch map to step 0.
func Counter(now time.Time) uint64 {
	u := now.Unix()
	if u < 0 {
		return 0
	}
	return uint64(u / periodSeconds)
}

// codeForCounter is RFC 4226 HOTP with a 6-digit output.
func codeForCounter(key []byte, counter uint64) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	return fmt.Sprintf("%0*d", Digits, bin%codeModulus)
}

func isCode(s string) bool {
	if len(s) != Digits {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
