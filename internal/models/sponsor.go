package models

import "time"

// Sponsor is a partner organization shown on the partners page.
type Sponsor struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name        string `gorm:"type:text;not null;uniqueIndex"`
	LogoURL     string `gorm:"type:text;not null"`
	WebsiteURL  string `gorm:"type:text"`
	Tier        string `gorm:"type:text"` // gold, silver, community.
	Description string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
