package models

import (
	"time"

	"gorm.io/datatypes"
)

// Cafe represents a partner venue. Money columns are integer cents.
type Cafe struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name        string `gorm:"type:text;not null"` // Venue name.
	Description string `gorm:"type:text"`
	Location    string `gorm:"type:text"` // Neighbourhood / short label.
	Address     string `gorm:"type:text"` // Full street address.
	ImageURL    string `gorm:"type:text"`

	Latitude  *float64
	Longitude *float64

	HourlyRateCents int64 `gorm:"not null;default:0"` // Seat price per hour.
	CoinRate        int64 `gorm:"not null;default:1"` // AntiCoins earned per minute.

	SeatingCapacity int            `gorm:"not null;default:0"`
	WifiStrength    int            `gorm:"not null;default:0"` // 0-5 scale.
	NoiseLevel      int            `gorm:"not null;default:0"` // 0-5 scale.
	PowerOutlets    bool           `gorm:"not null;default:false"`
	Amenities       datatypes.JSON `gorm:"type:jsonb"` // Free-form amenity list.
	OpenHours       datatypes.JSON `gorm:"type:jsonb"` // Weekday -> hours map.
	Rating          float64        `gorm:"not null;default:0"`

	Active bool `gorm:"not null;default:true"` // Hidden from the directory when false.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName keeps the relation name the rest of the product uses.
func (Cafe) TableName() string {
	return "cafes"
}
