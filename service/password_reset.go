package service

import (
	"errors"
	"fmt"
	"time"

	"keyfold/account-api/model"
	"keyfold/account-api/pkg/security"
	"keyfold/account-api/validators"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RequestReset issues a fresh password reset token for the account
// behind email and mails out the link. Unknown addresses take the
// silent branch: no writes, same message, so the response never tells
// an attacker whether the email is registered.
func (r *Recovery) RequestReset(email string) (string, error) {
	addr := normalizeEmail(email)

	var minted *model.RecoveryToken
	var recipient model.User

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var u model.User
		if err := tx.Where("email = ?", addr).First(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// TODO: burn an equivalent amount of work here (mint a
				// throwaway token, or sleep a fixed delay) so the two
				// branches can't be told apart by timing
				return nil
			}
			return err
		}

		if err := retireTokens(tx, u.ID, security.PurposePasswordReset, r.Tokens.Now()); err != nil {
			return err
		}

		t, err := r.Tokens.Mint(security.PurposePasswordReset, u.ID)
		if err != nil {
			return err
		}

		if err := tx.Create(t).Error; err != nil {
			return err
		}

		minted = t
		recipient = u
		return nil
	})
	if err != nil {
		zap.L().Error("Failed to issue password reset token", zap.Error(err))
		return "", err
	}

	if minted != nil {
		if err := r.sendResetMail(recipient.Email, minted.Token); err != nil {
			zap.L().Error("Failed to send password reset email", zap.Error(err))
			return "", err
		}

		zap.L().Debug("Password reset token issued", zap.String("user_id", recipient.ID))
	}

	return MsgResetRequested, nil
}

// VerifyResetToken is a read-only probe so the caller can tell the
// user "this link is no longer valid" before asking for a new
// password. Nothing is consumed; ResetPassword re-checks everything.
func (r *Recovery) VerifyResetToken(token string) (string, error) {
	var t model.RecoveryToken

	err := r.DB.
		Where("token = ? AND purpose = ? AND used = ?", token, security.PurposePasswordReset, false).
		First(&t).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}

	if !r.Tokens.Now().Before(t.ExpiresAt) {
		return "", ErrExpiredToken
	}

	return t.UserID, nil
}

// ResetPassword redeems a reset token: the credential is replaced, the
// token is permanently spent and every existing session dies, all in
// one transaction. Any failed step rolls the whole thing back.
func (r *Recovery) ResetPassword(token, newPassword string) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var t model.RecoveryToken
		if err := tx.Where("token = ? AND purpose = ? AND used = ?", token, security.PurposePasswordReset, false).
			First(&t).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidToken
			}
			return err
		}

		now := r.Tokens.Now()
		if !now.Before(t.ExpiresAt) {
			return ErrExpiredToken
		}

		if err := validators.PasswordValidator(newPassword); err != nil {
			return err
		}

		hash, err := r.Argon.HashPassword(newPassword)
		if err != nil {
			return err
		}

		if err := tx.Model(&model.User{}).
			Where("id = ?", t.UserID).
			Update("password_hash", hash).
			Error; err != nil {
			return err
		}

		// Conditional claim: whichever concurrent call flips used
		// first wins, the loser sees zero affected rows.
		res := tx.Model(&model.RecoveryToken{}).
			Where("id = ? AND used = ?", t.ID, false).
			Updates(map[string]any{"used": true, "used_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidToken
		}

		return InvalidateSessions(tx, t.UserID)
	})
	if err != nil {
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrExpiredToken) || validators.IsPasswordError(err) {
			return err
		}

		zap.L().Error("Failed to reset password", zap.Error(err))
		return fmt.Errorf("failed to reset password, %w", err)
	}

	return nil
}

func (r *Recovery) sendResetMail(to, token string) error {
	link := recoveryLink("reset-password", token)

	return r.Mail.Send(to,
		"Reset your password",
		fmt.Sprintf("Click <a href='%v'>here</a> to choose a new password.<br><br>This link will expire in %v and can only be used once. If you didn't ask for it you can safely ignore this email.",
			link, security.ResetTokenTTL))
}

// retireTokens marks every still-unused token of the given purpose as
// used, which is what keeps at most one valid token per user alive.
func retireTokens(tx *gorm.DB, userID, purpose string, now time.Time) error {
	return tx.Model(&model.RecoveryToken{}).
		Where("user_id = ? AND purpose = ? AND used = ?", userID, purpose, false).
		Updates(map[string]any{"used": true, "used_at": now}).
		Error
}
