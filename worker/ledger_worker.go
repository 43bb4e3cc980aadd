package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"leadpilot/models"
)

const maxOutboxAttempts = 10

// LedgerWorker drains the bookkeeping outbox: credit debits and history
// inserts that failed after a provider call already succeeded. It retries
// until each entry lands or exhausts its attempts, so balances and history
// converge with actual usage.
type LedgerWorker struct {
	DB     *gorm.DB
	Logger *logrus.Entry
}

func NewLedgerWorker(db *gorm.DB, logger *logrus.Entry) *LedgerWorker {
	return &LedgerWorker{
		DB:     db,
		Logger: logger,
	}
}

func (lw *LedgerWorker) Start(ctx context.Context) {
	lw.Logger.Info("Ledger worker started")

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			lw.Logger.Info("Ledger worker shutting down...")
			return
		case <-ticker.C:
			lw.ProcessPending()
		}
	}
}

// ProcessPending retries every unprocessed outbox entry once.
func (lw *LedgerWorker) ProcessPending() {
	var entries []models.LedgerOutbox
	if err := lw.DB.Where("processed_at IS NULL AND attempts < ?", maxOutboxAttempts).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		lw.Logger.WithError(err).Error("Error fetching outbox entries")
		return
	}

	for _, entry := range entries {
		if err := lw.processEntry(&entry); err != nil {
			lw.Logger.WithError(err).WithFields(logrus.Fields{
				"outbox_id": entry.ID,
				"kind":      entry.Kind,
				"attempts":  entry.Attempts + 1,
			}).Error("Outbox entry retry failed")
			lw.DB.Model(&entry).Updates(map[string]interface{}{
				"attempts":   gorm.Expr("attempts + 1"),
				"last_error": err.Error(),
			})
			continue
		}

		now := time.Now()
		lw.DB.Model(&entry).Updates(map[string]interface{}{
			"attempts":     gorm.Expr("attempts + 1"),
			"processed_at": &now,
		})
	}
}

func (lw *LedgerWorker) processEntry(entry *models.LedgerOutbox) error {
	switch entry.Kind {
	case models.OutboxKindDebit:
		// The user may legitimately have fewer credits left than owed;
		// clamp at zero rather than leave the debt dangling forever.
		res := lw.DB.Model(&models.Profile{}).
			Where("user_id = ? AND credits >= ?", entry.UserID, entry.Amount).
			UpdateColumn("credits", gorm.Expr("credits - ?", entry.Amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			res = lw.DB.Model(&models.Profile{}).
				Where("user_id = ?", entry.UserID).
				UpdateColumn("credits", 0)
			if res.Error != nil {
				return res.Error
			}
		}
		return nil

	case models.OutboxKindHistory:
		var history models.SearchHistory
		if err := json.Unmarshal(entry.Payload, &history); err != nil {
			return err
		}
		history.ID = 0
		return lw.DB.Create(&history).Error

	default:
		lw.Logger.WithField("kind", entry.Kind).Warn("Unknown outbox kind, skipping")
		return nil
	}
}
