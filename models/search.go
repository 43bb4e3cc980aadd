package models

import "gorm.io/gorm"

// Lead is a normalized business record produced from a provider search.
// Leads are only ever stored embedded in a SearchHistory row.
type Lead struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Phone   string  `json:"phone"`
	Website string  `json:"website"`
	Rating  float64 `json:"rating"`
}

// SearchHistory records one completed search per row. Append-only.
type SearchHistory struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	Keyword      string `gorm:"not null" json:"keyword"`
	Location     string `gorm:"not null" json:"location"`
	ResultsCount int    `gorm:"not null" json:"results_count"`
	ResultsData  []Lead `gorm:"type:jsonb;serializer:json" json:"results_data"`

	// Relations
	User User `json:"-"`
}
