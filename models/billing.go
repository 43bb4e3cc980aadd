package models

import "gorm.io/gorm"

// Plan represents a purchasable credit pack
type Plan struct {
	gorm.Model
	Name        string `gorm:"not null;uniqueIndex" json:"name"` // free, starter, grow, enterprise
	Description string `json:"description"`

	// Lead credits granted by the pack
	Credits int `gorm:"not null" json:"credits"`
	Price   int `gorm:"not null" json:"price"` // in cents

	// For display purposes
	DisplayPrice string `gorm:"-" json:"display_price"` // e.g. "$20"
	IsPopular    bool   `gorm:"default:false" json:"is_popular"`

	StripePriceID string `json:"stripe_price_id"` // price_xxx from Stripe dashboard
}

// CreditTransaction records credit purchases
type CreditTransaction struct {
	gorm.Model
	UserID uint  `gorm:"not null;index" json:"user_id"`
	PlanID *uint `json:"plan_id,omitempty"`

	Credits int `gorm:"not null" json:"credits"` // Positive for purchases

	// Financial information
	Amount        int    `json:"amount"` // in cents
	Currency      string `gorm:"default:'USD'" json:"currency"`
	PaymentStatus string `gorm:"default:'pending'" json:"payment_status"` // pending, completed, failed, refunded

	Description           string `json:"description"`
	StripePaymentIntentID string `gorm:"index" json:"stripe_payment_intent_id"`
	ReceiptURL            string `json:"receipt_url,omitempty"`

	// Relations
	User User  `json:"-"`
	Plan *Plan `json:"plan,omitempty"`
}
