package service

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"keyfold/account-api/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	sent []sentMail
	fail bool
}

func (m *fakeMailer) Send(to, subject, htmlBody string) error {
	if m.fail {
		return errors.New("smtp unavailable")
	}

	m.sent = append(m.sent, sentMail{to, subject, htmlBody})
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.User{}, model.RecoveryToken{}, model.Session{}, model.ResendRequest{}))

	return db
}

func newTestRecovery(t *testing.T) (*Recovery, *fakeMailer) {
	t.Helper()

	m := &fakeMailer{}
	return NewRecovery(newTestDB(t), m), m
}

func seedUser(t *testing.T, db *gorm.DB, email string) model.User {
	t.Helper()

	u := model.User{
		Email:        email,
		DisplayName:  "Sam",
		PasswordHash: "$argon2id$stand-in$not-a-real-hash",
	}
	require.NoError(t, db.Create(&u).Error)

	return u
}

func seedSessions(t *testing.T, db *gorm.DB, userID string, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		require.NoError(t, db.Create(&model.Session{UserID: userID}).Error)
	}
}

func tokensFor(t *testing.T, db *gorm.DB, userID, purpose string) []model.RecoveryToken {
	t.Helper()

	var out []model.RecoveryToken
	require.NoError(t, db.Where("user_id = ? AND purpose = ?", userID, purpose).Order("id").Find(&out).Error)

	return out
}

func unusedCount(t *testing.T, ts []model.RecoveryToken) int {
	t.Helper()

	n := 0
	for _, tok := range ts {
		if !tok.Used {
			n++
		}
	}

	return n
}

func freezeClock(r *Recovery, at time.Time) {
	r.Tokens.Now = func() time.Time { return at }
}
