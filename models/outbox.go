package models

import (
	"time"

	"gorm.io/gorm"
)

// Outbox operation kinds
const (
	OutboxKindDebit   = "debit"
	OutboxKindHistory = "history"
)

// LedgerOutbox queues bookkeeping writes that failed after a paid provider
// call already succeeded. The ledger worker retries these until they land,
// so the balance and history eventually match actual usage.
type LedgerOutbox struct {
	gorm.Model
	UserID uint   `gorm:"not null;index" json:"user_id"`
	Kind   string `gorm:"not null" json:"kind"` // debit, history

	// For debits: number of credits still owed
	Amount int `json:"amount"`

	// For history entries: the serialized SearchHistory row
	Payload []byte `gorm:"type:jsonb" json:"-"`

	Attempts    int        `gorm:"default:0" json:"attempts"`
	LastError   string     `json:"last_error,omitempty"`
	ProcessedAt *time.Time `gorm:"index" json:"processed_at,omitempty"`
}
