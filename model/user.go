package model

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
)

const idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

type User struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	DisplayName  string
	PasswordHash string `gorm:"not null"`
	Verified     bool   `gorm:"default:false"`

	RecoveryTokens []RecoveryToken `gorm:"foreignKey:UserID"`
	Sessions       []Session       `gorm:"foreignKey:UserID"`
	ResendRequest  ResendRequest   `gorm:"foreignKey:UserID"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID != "" {
		return nil
	}

	id, err := gonanoid.Generate(idCharset, 16)
	if err != nil {
		return err
	}

	u.ID = id
	return nil
}
