package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestCredential_Valid_BoundaryIsExpired(t *testing.T) {
	now := time.Date(2026, 8, 6, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		valid     bool
	}{
		{name: "FutureExpiry_IsValid", expiresAt: now.Add(time.Second), valid: true},
		{name: "ExactlyNow_IsExpired", expiresAt: now, valid: false},
		{name: "PastExpiry_IsExpired", expiresAt: now.Add(-time.Second), valid: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cred := NewCredential("tok", tc.expiresAt)
			assert.Equal(t, tc.valid, cred.Valid(now))
		})
	}
}

func TestCredential_ExpiresIn(t *testing.T) {
	now := time.Date(2026, 8, 6, 12, 0, 0, 0, time.UTC)
	cred := NewCredential("tok", now.Add(90*time.Second))

	assert.Equal(t, 90*time.Second, cred.ExpiresIn(now))
	assert.Negative(t, NewCredential("tok", now.Add(-time.Minute)).ExpiresIn(now))
}

func TestCredential_HeaderValue(t *testing.T) {
	cred := NewCredential("abc123", time.Now())
	assert.Equal(t, "Bearer abc123", cred.HeaderValue())
}

func TestCredential_Masked(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "Short_FullyMasked", value: "abcd", want: "****"},
		{name: "EightChars_FullyMasked", value: "abcdefgh", want: "********"},
		{name: "Long_KeepsEnds", value: "abcdefghijkl", want: "abcd****ijkl"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cred := NewCredential(tc.value, time.Now())
			assert.Equal(t, tc.want, cred.Masked())
		})
	}
}

// TestCredential_PropertyBased_ValidityMatchesExpiry checks that validity is
// exactly "expiry is strictly after now" for arbitrary offsets.
func TestCredential_PropertyBased_ValidityMatchesExpiry(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		now := time.Date(2026, 8, 6, 12, 0, 0, 0, time.UTC)
		offsetSeconds := rapid.Int64Range(-3600, 3600).Draw(t, "offsetSeconds")

		cred := NewCredential("tok", now.Add(time.Duration(offsetSeconds)*time.Second))

		assert.Equal(t, offsetSeconds > 0, cred.Valid(now))
	})
}

// TestCredential_PropertyBased_MaskNeverLeaksMiddle checks that masking never
// exposes more than the first and last four characters.
func TestCredential_PropertyBased_MaskNeverLeaksMiddle(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		value := rapid.StringMatching(`[a-zA-Z0-9._-]{0,64}`).Draw(t, "value")
		cred := NewCredential(value, time.Now())

		masked := cred.Masked()
		assert.Equal(t, len(value), len(masked))
		if len(value) > 8 {
			assert.True(t, strings.HasPrefix(masked, value[:4]))
			assert.True(t, strings.HasSuffix(masked, value[len(value)-4:]))
			assert.Equal(t, strings.Repeat("*", len(value)-8), masked[4:len(masked)-4])
		} else {
			assert.Equal(t, strings.Repeat("*", len(value)), masked)
		}
	})
}
