package service

import (
	"keyfold/account-api/model"

	"gorm.io/gorm"
)

// InvalidateSessions marks every session belonging to userID as no
// longer trusted. It runs on the caller's transaction handle: a
// password change and the death of its old sessions must commit
// together, never as a detached follow-up. Calling it twice is
// harmless.
func InvalidateSessions(tx *gorm.DB, userID string) error {
	return tx.Model(&model.Session{}).
		Where("user_id = ?", userID).
		Update("invalidated", true).
		Error
}
