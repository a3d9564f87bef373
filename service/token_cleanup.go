package service

import (
	"time"

	"keyfold/account-api/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TokenCleanup defines a function used to periodically clean up old
// recovery tokens that aren't needed anymore. Purging is purely
// housekeeping: spent and expired rows are already inert, they are
// only kept for a retention window for auditing.
func TokenCleanup(t time.Duration, db *gorm.DB) {
	ticker := time.NewTicker(t)

	zap.L().Debug("Token cleanup attached", zap.Duration("tick_every", t))

	go func() {
		for range ticker.C {
			n, err := purgeTokens(db, time.Now())
			if err != nil {
				zap.L().Error("Failed to clean up recovery tokens", zap.Error(err))
				continue
			}

			if n > 0 {
				zap.L().Debug("Cleaned up recovery tokens", zap.Int64("purged", n))
			}
		}
	}()
}

func purgeTokens(db *gorm.DB, now time.Time) (int64, error) {
	res := db.
		Where("cleanup_at < ?", now).
		Delete(&model.RecoveryToken{})

	return res.RowsAffected, res.Error
}
