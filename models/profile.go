package models

import "gorm.io/gorm"

// Profile holds the display name and credit balance for a user.
// Credits are debited once per lead returned by a search; the balance is
// only ever decremented through a conditional update so it cannot go
// negative under concurrent searches.
type Profile struct {
	gorm.Model
	UserID   uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	FullName string `json:"full_name"`
	Credits  int    `gorm:"not null;default:0" json:"credits"`

	// Relations
	User User `json:"-"`
}
