package models

import "time"

// Reward is a redeemable catalog item priced in AntiCoins.
type Reward struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Title       string `gorm:"type:text;not null"`
	Description string `gorm:"type:text"`
	ImageURL    string `gorm:"type:text"`

	Cost int64 `gorm:"not null"` // Redemption price in AntiCoins.

	Active bool `gorm:"not null;default:true"` // Hidden from the store when false.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
