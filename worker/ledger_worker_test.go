package worker

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"leadpilot/config"
	"leadpilot/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.MigrateDB(db))
	return db
}

func newTestWorker(db *gorm.DB) *LedgerWorker {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return NewLedgerWorker(db, logrus.NewEntry(l))
}

func createProfile(t *testing.T, db *gorm.DB, credits int) models.Profile {
	t.Helper()

	user := models.User{Email: "worker@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	profile := models.Profile{UserID: user.ID, Credits: credits}
	require.NoError(t, db.Create(&profile).Error)
	return profile
}

func TestProcessPending_RetriesDebit(t *testing.T) {
	db := setupTestDB(t)
	profile := createProfile(t, db, 10)

	entry := models.LedgerOutbox{
		UserID: profile.UserID,
		Kind:   models.OutboxKindDebit,
		Amount: 4,
	}
	require.NoError(t, db.Create(&entry).Error)

	lw := newTestWorker(db)
	lw.ProcessPending()

	var updated models.Profile
	require.NoError(t, db.Where("user_id = ?", profile.UserID).First(&updated).Error)
	assert.Equal(t, 6, updated.Credits)

	var processed models.LedgerOutbox
	require.NoError(t, db.First(&processed, entry.ID).Error)
	assert.NotNil(t, processed.ProcessedAt)
	assert.Equal(t, 1, processed.Attempts)
}

func TestProcessPending_DebitClampsAtZero(t *testing.T) {
	db := setupTestDB(t)
	profile := createProfile(t, db, 3)

	entry := models.LedgerOutbox{
		UserID: profile.UserID,
		Kind:   models.OutboxKindDebit,
		Amount: 10,
	}
	require.NoError(t, db.Create(&entry).Error)

	lw := newTestWorker(db)
	lw.ProcessPending()

	var updated models.Profile
	require.NoError(t, db.Where("user_id = ?", profile.UserID).First(&updated).Error)
	assert.Equal(t, 0, updated.Credits, "owed more than available clamps to zero")
}

func TestProcessPending_RetriesHistoryInsert(t *testing.T) {
	db := setupTestDB(t)
	profile := createProfile(t, db, 10)

	history := models.SearchHistory{
		UserID:       profile.UserID,
		Keyword:      "plumber",
		Location:     "Denver",
		ResultsCount: 2,
		ResultsData: []models.Lead{
			{Name: "A Plumbing", Phone: "+13035550100"},
			{Name: "B Plumbing", Phone: "+13035550200"},
		},
	}
	payload, err := json.Marshal(history)
	require.NoError(t, err)

	entry := models.LedgerOutbox{
		UserID:  profile.UserID,
		Kind:    models.OutboxKindHistory,
		Payload: payload,
	}
	require.NoError(t, db.Create(&entry).Error)

	lw := newTestWorker(db)
	lw.ProcessPending()

	var rows []models.SearchHistory
	require.NoError(t, db.Where("user_id = ?", profile.UserID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "plumber", rows[0].Keyword)
	assert.Equal(t, 2, rows[0].ResultsCount)
	assert.Len(t, rows[0].ResultsData, 2)
}

func TestProcessPending_SkipsExhaustedEntries(t *testing.T) {
	db := setupTestDB(t)
	profile := createProfile(t, db, 10)

	entry := models.LedgerOutbox{
		UserID:   profile.UserID,
		Kind:     models.OutboxKindDebit,
		Amount:   5,
		Attempts: maxOutboxAttempts,
	}
	require.NoError(t, db.Create(&entry).Error)

	lw := newTestWorker(db)
	lw.ProcessPending()

	var updated models.Profile
	require.NoError(t, db.Where("user_id = ?", profile.UserID).First(&updated).Error)
	assert.Equal(t, 10, updated.Credits, "exhausted entries are left alone")
}
