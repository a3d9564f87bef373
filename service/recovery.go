// Package service implements the account recovery flows: password
// reset and email verification over single-use tokens, plus the
// session revocation that follows a successful reset.
package service

import (
	"errors"
	"strings"

	"keyfold/account-api/pkg/security"

	"gorm.io/gorm"
)

// Generic outcomes returned whether or not the email is registered, so
// responses never betray account existence.
const (
	MsgResetRequested     = "If that email address is registered, a password reset link is on its way."
	MsgVerificationResent = "If that email address needs verification, a new link is on its way."
)

var (
	ErrInvalidToken = errors.New("this link is invalid or was already used")
	ErrExpiredToken = errors.New("this link has expired")
)

type Recovery struct {
	DB     *gorm.DB
	Argon  *security.ArgonParams
	Tokens *security.TokenSource
	Mail   Mailer
}

func NewRecovery(db *gorm.DB, mail Mailer) *Recovery {
	return &Recovery{
		DB:     db,
		Argon:  security.NewArgon(),
		Tokens: security.NewTokenSource(),
		Mail:   mail,
	}
}

// Emails are unique case-insensitively, so every lookup goes through
// the same normalization.
func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
