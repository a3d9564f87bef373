package model

import (
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
)

// Session rows are created by the login side of the application. This
// subsystem only ever flips Invalidated to true.
type Session struct {
	ID          string `gorm:"primaryKey"`
	UserID      string `gorm:"index"`
	Invalidated bool   `gorm:"default:false"`
	CreatedAt   time.Time
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID != "" {
		return nil
	}

	id, err := gonanoid.Generate(idCharset, 24)
	if err != nil {
		return err
	}

	s.ID = id
	return nil
}
