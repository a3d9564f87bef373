package model

import "time"

type RecoveryToken struct {
	ID        int    `gorm:"primaryKey;autoIncrement"`
	UserID    string `gorm:"index"`
	Token     string `gorm:"uniqueIndex"`
	Purpose   string `gorm:"index"`
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
	CleanupAt *time.Time
	Used      bool
}
