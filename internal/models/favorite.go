package models

import "time"

// Favorite marks a cafe as saved by a user.
type Favorite struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;uniqueIndex:idx_user_cafe"` // Owning user.
	CafeID uint64 `gorm:"not null;uniqueIndex:idx_user_cafe"` // Saved venue.
	Cafe   *Cafe  `gorm:"foreignKey:CafeID"`                  // Venue record.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
