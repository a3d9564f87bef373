package service

import (
	"errors"
	"fmt"
	"time"

	"keyfold/account-api/model"
	"keyfold/account-api/pkg/security"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SendVerificationEmail renders the verification link for token and
// delegates delivery. The store is never touched here, so it can run
// right after registration inserted the token or after a resend.
func (r *Recovery) SendVerificationEmail(email, token, displayName string) error {
	link := recoveryLink("verify", token)

	greeting := "Hi"
	if displayName != "" {
		greeting = "Hi " + displayName
	}

	return r.Mail.Send(email,
		"Verify your email address",
		fmt.Sprintf("%v,<br><br>Click <a href='%v'>here</a> to verify your email address.<br><br>This link will expire in %v.",
			greeting, link, security.VerifyTokenTTL))
}

// VerifyEmail redeems a verification token: the owning account's
// verified flag and the token's used flag flip in one transaction, so
// a half-applied state is never observable.
func (r *Recovery) VerifyEmail(token string) (string, error) {
	var userID string

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var t model.RecoveryToken
		if err := tx.Where("token = ? AND purpose = ? AND used = ?", token, security.PurposeEmailVerify, false).
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

		if err := tx.Model(&model.User{}).
			Where("id = ?", t.UserID).
			Update("verified", true).
			Error; err != nil {
			return err
		}

		res := tx.Model(&model.RecoveryToken{}).
			Where("id = ? AND used = ?", t.ID, false).
			Updates(map[string]any{"used": true, "used_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidToken
		}

		userID = t.UserID
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrExpiredToken) {
			return "", err
		}

		zap.L().Error("Failed to verify email", zap.Error(err))
		return "", fmt.Errorf("failed to verify email, %w", err)
	}

	return userID, nil
}

// ResendVerificationEmail issues a fresh verification token for a
// still-unverified account and mails the link. Unknown and already
// verified addresses take the silent branch, and so do accounts inside
// their resend cooldown, all behind the same generic message.
func (r *Recovery) ResendVerificationEmail(email string) (string, error) {
	addr := normalizeEmail(email)

	var minted *model.RecoveryToken
	var recipient model.User

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var u model.User
		if err := tx.Where("email = ? AND verified = ?", addr, false).First(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		now := r.Tokens.Now()

		ok, err := r.passResendCooldown(tx, u.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			zap.L().Debug("Resend request inside cooldown, ignoring", zap.String("user_id", u.ID))
			return nil
		}

		if err := retireTokens(tx, u.ID, security.PurposeEmailVerify, now); err != nil {
			return err
		}

		t, err := r.Tokens.Mint(security.PurposeEmailVerify, u.ID)
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
		zap.L().Error("Failed to reissue verification token", zap.Error(err))
		return "", err
	}

	if minted != nil {
		if err := r.SendVerificationEmail(recipient.Email, minted.Token, recipient.DisplayName); err != nil {
			zap.L().Error("Failed to send verification email", zap.Error(err))
			return "", err
		}
	}

	return MsgVerificationResent, nil
}

// IsEmailVerified is a pure read used by access control checks
// elsewhere in the application.
func (r *Recovery) IsEmailVerified(userID string) (bool, error) {
	var verified bool

	err := r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Select("verified").
		First(&verified).
		Error
	if err != nil {
		return false, err
	}

	return verified, nil
}

// passResendCooldown records a resend attempt and reports whether the
// user is allowed another verification mail yet.
func (r *Recovery) passResendCooldown(tx *gorm.DB, userID string, now time.Time) (bool, error) {
	cooldown := viper.GetDuration("mail.resend_cooldown")

	var rr model.ResendRequest
	err := tx.Where("user_id = ?", userID).First(&rr).Error

	switch {
	case err == nil:
		if rr.Blocked || now.Before(rr.Cooldown) {
			return false, nil
		}

		rr.LastResend = now
		rr.Cooldown = now.Add(cooldown)
		return true, tx.Save(&rr).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return true, tx.Create(&model.ResendRequest{
			UserID:     userID,
			LastResend: now,
			Cooldown:   now.Add(cooldown),
		}).Error
	default:
		return false, err
	}
}
