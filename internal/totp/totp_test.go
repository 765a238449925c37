package totp

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rfcSecret is the ASCII key "12345678901234567890" from RFC 4226 appendix D.
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

// rfcCodes are the RFC 4226 appendix D HOTP values for counters 0..9.
var rfcCodes = []string{
	"755224", "287082", "359152", "969429", "338314",
	"254676", "287922", "162583", "399871", "520489",
}

func atCounter(counter int64, offset int64) time.Time {
	return time.Unix(counter*60+offset, 0).UTC()
}

func TestGenerateSecret(t *testing.T) {
	s, err := GenerateSecret()
	require.NoError(t, err)
	assert.Len(t, s, 32)
	assert.NotContains(t, s, "=")

	key, err := DecodeSecret(s)
	require.NoError(t, err)
	assert.Len(t, key, SecretSize)

	other, err := GenerateSecret()
	require.NoError(t, err)
	assert.NotEqual(t, s, other)
}

func TestGenerateSecret_RandError(t *testing.T) {
	orig := randRead
	t.Cleanup(func() { randRead = orig })
	randRead = func([]byte) (int, error) { return 0, errors.New("no entropy") }

	_, err := GenerateSecret()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entropy")
}

func TestGenerateSecret_UsesSecretAlphabet(t *testing.T) {
	orig := randRead
	t.Cleanup(func() { randRead = orig })
	randRead = func(b []byte) (int, error) { return copy(b, "12345678901234567890"), nil }

	s, err := GenerateSecret()
	require.NoError(t, err)
	assert.Equal(t, rfcSecret, s)
}

func TestSecretEncoding_RoundTrip(t *testing.T) {
	raw := []byte("12345678901234567890")
	enc := EncodeSecret(raw)
	assert.Equal(t, rfcSecret, enc)

	got, err := DecodeSecret(enc)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	got, err = DecodeSecret("  " + strings.ToLower(enc) + "\n")
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestDecodeSecret_Invalid(t *testing.T) {
	for _, s := range []string{"", "   ", "GEZDGNBV1", "GEZD!NBV", "ÄÖÜ"} {
		_, err := DecodeSecret(s)
		assert.ErrorIs(t, err, ErrInvalidSecret, "secret %q", s)
	}
}

func TestGenerateCode_RFC4226Vectors(t *testing.T) {
	for counter, want := range rfcCodes {
		for _, offset := range []int64{0, 17, 59} {
			got, err := GenerateCode(rfcSecret, atCounter(int64(counter), offset))
			require.NoError(t, err)
			assert.Equal(t, want, got, "counter %d offset %d", counter, offset)
		}
	}
}

func TestGenerateCode_InvalidSecret(t *testing.T) {
	_, err := GenerateCode("not base32 !", time.Now())
	assert.ErrorIs(t, err, ErrInvalidSecret)
}

func TestGenerateCode_Deterministic(t *testing.T) {
	s1, err := GenerateSecret()
	require.NoError(t, err)
	s2, err := GenerateSecret()
	require.NoError(t, err)

	now := time.Date(2024, 5, 1, 12, 0, 30, 0, time.UTC)

	a, err := GenerateCode(s1, now)
	require.NoError(t, err)
	b, err := GenerateCode(s1, now)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, Digits)

	c, err := GenerateCode(s2, now)
	require.NoError(t, err)
	// One chance in a million of a false failure.
	assert.NotEqual(t, a, c)
}

func TestValidateCode_RoundTrip(t *testing.T) {
	s, err := GenerateSecret()
	require.NoError(t, err)

	now := time.Now()
	code, err := GenerateCode(s, now)
	require.NoError(t, err)

	assert.True(t, ValidateCode(s, code, now, DefaultTolerance))
	assert.True(t, ValidateCode(s, " "+code+"\t", now, DefaultTolerance))
}

func TestValidateCode_Tolerance(t *testing.T) {
	base := atCounter(3, 10)
	code, err := GenerateCode(rfcSecret, base)
	require.NoError(t, err)
	require.Equal(t, "969429", code)

	tests := []struct {
		name      string
		at        time.Time
		tolerance int
		want      bool
	}{
		{name: "same step", at: base, tolerance: 1, want: true},
		{name: "next step", at: base.Add(60 * time.Second), tolerance: 1, want: true},
		{name: "previous step", at: base.Add(-60 * time.Second), tolerance: 1, want: true},
		{name: "two steps later", at: base.Add(120 * time.Second), tolerance: 1, want: false},
		{name: "three steps later", at: base.Add(180 * time.Second), tolerance: 1, want: false},
		{name: "two steps earlier", at: base.Add(-120 * time.Second), tolerance: 1, want: false},
		{name: "two steps later wide window", at: base.Add(120 * time.Second), tolerance: 2, want: true},
		{name: "next step no tolerance", at: base.Add(60 * time.Second), tolerance: 0, want: false},
		{name: "negative tolerance acts as zero", at: base, tolerance: -3, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateCode(rfcSecret, code, tt.at, tt.tolerance))
		})
	}
}

func TestValidateCode_CounterScenario(t *testing.T) {
	const n = 3
	code := rfcCodes[n]

	assert.True(t, ValidateCode(rfcSecret, code, atCounter(n+1, 0), DefaultTolerance))
	assert.False(t, ValidateCode(rfcSecret, code, atCounter(n+2, 0), DefaultTolerance))
}

func TestValidateCode_NearEpoch(t *testing.T) {
	assert.True(t, ValidateCode(rfcSecret, rfcCodes[0], atCounter(0, 5), DefaultTolerance))
	assert.True(t, ValidateCode(rfcSecret, rfcCodes[1], atCounter(0, 5), DefaultTolerance))
	assert.False(t, ValidateCode(rfcSecret, rfcCodes[2], atCounter(0, 5), DefaultTolerance))
}

func TestValidateCode_Malformed(t *testing.T) {
	now := atCounter(3, 0)
	for _, code := range []string{"", "96942", "9694290", "96942a", "96 429", "９６９４２９", "-96942"} {
		assert.False(t, ValidateCode(rfcSecret, code, now, DefaultTolerance), "code %q", code)
	}

	assert.False(t, ValidateCode("!!invalid!!", "969429", now, DefaultTolerance))
	assert.False(t, ValidateCode("", "969429", now, DefaultTolerance))
}

func TestRemainingSeconds(t *testing.T) {
	tests := []struct {
		offset int64
		want   int
	}{
		{offset: 0, want: 60},
		{offset: 1, want: 59},
		{offset: 30, want: 30},
		{offset: 59, want: 1},
	}
	for _, tt := range tests {
		got := RemainingSeconds(atCounter(28_000_000, tt.offset))
		assert.Equal(t, tt.want, got, "offset %d", tt.offset)
	}
}

func TestWindowEnd(t *testing.T) {
	now := atCounter(10, 42)
	end := WindowEnd(now)

	assert.Equal(t, atCounter(11, 0), end)
	assert.Equal(t, RemainingSeconds(now), int(end.Sub(now).Seconds()))
}

func TestCounter(t *testing.T) {
	assert.Equal(t, uint64(0), Counter(time.Unix(59, 0)))
	assert.Equal(t, uint64(1), Counter(time.Unix(60, 0)))
	assert.Equal(t, uint64(0), Counter(time.Unix(-61, 0)))
}
