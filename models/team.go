package models

import "gorm.io/gorm"

// Team represents a user's workspace. Each user owns at most one team; it
// is created lazily on the first invite or settings save.
type Team struct {
	gorm.Model
	OwnerID uint   `gorm:"uniqueIndex;not null" json:"owner_id"`
	Name    string `gorm:"not null" json:"name"`

	// Relations
	Members []TeamMember `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}

// TeamMember represents an invited member of a team, keyed by email.
type TeamMember struct {
	gorm.Model
	TeamID uint   `gorm:"not null;index;uniqueIndex:idx_team_members_team_email" json:"team_id"`
	Email  string `gorm:"not null;uniqueIndex:idx_team_members_team_email" json:"email"`

	// Relations
	Team Team `json:"-"`
}
