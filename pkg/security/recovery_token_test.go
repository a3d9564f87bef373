package security

import (
	"bytes"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSource(entropy []byte, at time.Time) *TokenSource {
	return &TokenSource{
		Rand: bytes.NewReader(entropy),
		Now:  func() time.Time { return at },
	}
}

func TestMintIsDeterministicWithPinnedInputs(t *testing.T) {
	entropy := make([]byte, tokenSize)
	for i := range entropy {
		entropy[i] = byte(i)
	}
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tok, err := fixedSource(entropy, at).Mint(PurposePasswordReset, "user-1")
	require.NoError(t, err)

	assert.Equal(t, hex.EncodeToString(entropy), tok.Token)
	assert.Len(t, tok.Token, 64)
	assert.Equal(t, "user-1", tok.UserID)
	assert.Equal(t, PurposePasswordReset, tok.Purpose)
	assert.Equal(t, at, tok.CreatedAt)
	assert.Equal(t, at.Add(time.Hour), tok.ExpiresAt)
	assert.False(t, tok.Used)
	assert.Nil(t, tok.UsedAt)
	require.NotNil(t, tok.CleanupAt)
	assert.True(t, tok.CleanupAt.After(tok.ExpiresAt))
}

func TestMintExpiryPerPurpose(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	reset, err := fixedSource(make([]byte, tokenSize), at).Mint(PurposePasswordReset, "u")
	require.NoError(t, err)
	assert.Equal(t, at.Add(ResetTokenTTL), reset.ExpiresAt)

	verify, err := fixedSource(make([]byte, tokenSize), at).Mint(PurposeEmailVerify, "u")
	require.NoError(t, err)
	assert.Equal(t, at.Add(VerifyTokenTTL), verify.ExpiresAt)
}

func TestMintRejectsBadInput(t *testing.T) {
	s := NewTokenSource()

	_, err := s.Mint(PurposePasswordReset, "")
	assert.Error(t, err)

	_, err = s.Mint("session", "u")
	assert.ErrorIs(t, err, ErrUnknownPurpose)
}

func TestMintUniqueTokens(t *testing.T) {
	s := NewTokenSource()

	seen := map[string]bool{}
	for i := 0; i < 16; i++ {
		tok, err := s.Mint(PurposeEmailVerify, "u")
		require.NoError(t, err)
		assert.False(t, seen[tok.Token])
		seen[tok.Token] = true
	}
}

func TestTTLFor(t *testing.T) {
	ttl, err := TTLFor(PurposePasswordReset)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, ttl)

	ttl, err = TTLFor(PurposeEmailVerify)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, ttl)

	_, err = TTLFor("nope")
	assert.ErrorIs(t, err, ErrUnknownPurpose)
}

func TestMintFailsOnExhaustedEntropy(t *testing.T) {
	s := fixedSource(make([]byte, 4), time.Now())

	_, err := s.Mint(PurposePasswordReset, "u")
	assert.Error(t, err)
}
