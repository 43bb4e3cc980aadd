package models

import "gorm.io/gorm"

// Affiliate is created at most once per user. The referral code is issued
// once and never changes afterwards.
type Affiliate struct {
	gorm.Model
	UserID       uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	ReferralCode string `gorm:"uniqueIndex;not null;size:6" json:"referral_code"`

	ClicksCount  int `gorm:"default:0" json:"clicks_count"`
	SignupsCount int `gorm:"default:0" json:"signups_count"`
	Earnings     int `gorm:"default:0" json:"earnings"` // in cents

	// Relations
	User User `json:"-"`
}
