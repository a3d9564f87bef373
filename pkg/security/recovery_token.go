package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"time"

	"keyfold/account-api/model"
)

// tokenSize is the number of random bytes behind every token, so 256
// bits of entropy encoded as 64 hex characters.
const tokenSize = 32

const (
	PurposePasswordReset = "password_reset"
	PurposeEmailVerify   = "email_verify"
)

const (
	ResetTokenTTL  = time.Hour
	VerifyTokenTTL = 24 * time.Hour

	// Spent and expired rows are kept around this long for auditing
	// before the cleanup job may remove them.
	tokenRetention = 60 * 24 * time.Hour
)

var ErrUnknownPurpose = errors.New("unknown token purpose")

// TokenSource mints recovery tokens. Rand and Now default to the real
// thing and exist as fields so tests can pin both.
type TokenSource struct {
	Rand io.Reader
	Now  func() time.Time
}

func NewTokenSource() *TokenSource {
	return &TokenSource{
		Rand: rand.Reader,
		Now:  time.Now,
	}
}

// TTLFor returns how long a freshly minted token of the given purpose
// stays redeemable.
func TTLFor(purpose string) (time.Duration, error) {
	switch purpose {
	case PurposePasswordReset:
		return ResetTokenTTL, nil
	case PurposeEmailVerify:
		return VerifyTokenTTL, nil
	default:
		return 0, ErrUnknownPurpose
	}
}

// Mint produces an unsaved token row for the given user. It does no
// I/O beyond reading the entropy source.
func (s *TokenSource) Mint(purpose, userID string) (*model.RecoveryToken, error) {
	if userID == "" {
		return nil, errors.New("no user ID provided")
	}

	ttl, err := TTLFor(purpose)
	if err != nil {
		return nil, err
	}

	b := make([]byte, tokenSize)
	if _, err := io.ReadFull(s.Rand, b); err != nil {
		return nil, err
	}

	now := s.Now()
	cleanupAt := now.Add(tokenRetention)

	return &model.RecoveryToken{
		UserID:    userID,
		Token:     hex.EncodeToString(b),
		Purpose:   purpose,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		CleanupAt: &cleanupAt,
		Used:      false,
	}, nil
}
