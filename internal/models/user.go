package models

import (
	"time"

	"gorm.io/datatypes"
)

// User represents a member profile. AnticoinBalance is a cached counter:
// it is only ever mutated by SQL-expression deltas in the same transaction
// as a ledger append, so it always equals the sum of the user's
// CoinTransaction amounts.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Email    string `gorm:"type:text;not null;uniqueIndex"` // Login email.
	Password string `gorm:"type:text;not null"`             // Bcrypt hash.

	Name      string         `gorm:"type:text"` // Display name.
	Bio       string         `gorm:"type:text"` // Short biography.
	AvatarURL string         `gorm:"type:text"` // Avatar image URL.
	Skills    datatypes.JSON `gorm:"type:jsonb"`
	WorkStyle string         `gorm:"type:text"`

	AnticoinBalance int64   `gorm:"not null;default:0"` // Cached ledger sum.
	WalletAddress   *string `gorm:"type:text"`          // Connected wallet, if any.

	Disabled bool `gorm:"not null;default:false"` // Blocks login when set.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName keeps the relation name the rest of the product uses.
func (User) TableName() string {
	return "user_profiles"
}
