package models

import "time"

// Checkin represents a timed session at a cafe. An open session has a
// null EndTime; at most one open row may exist per user (enforced by a
// partial unique index plus a transactional guard at insert).
type Checkin struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"`    // Session owner.
	User   *User  `gorm:"foreignKey:UserID"` // Owner record.

	CafeID uint64 `gorm:"not null;index"`    // Venue of the session.
	Cafe   *Cafe  `gorm:"foreignKey:CafeID"` // Venue record.

	StartTime time.Time  `gorm:"not null"` // Wall clock at check-in.
	EndTime   *time.Time `gorm:"index"`    // Null while the session is open.

	DurationMinutes int64 `gorm:"not null;default:0"` // Settled duration.
	CostCents       int64 `gorm:"not null;default:0"` // Settled seat cost.
	CoinsEarned     int64 `gorm:"not null;default:0"` // Settled AntiCoin reward.

	BlockchainTxID *string `gorm:"type:text"` // On-chain mirror reference, if confirmed.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// Active reports whether the session is still open.
func (c *Checkin) Active() bool {
	return c.EndTime == nil
}
