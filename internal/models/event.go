package models

import "time"

// Event represents a community event, optionally hosted at a cafe.
type Event struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Title       string `gorm:"type:text;not null"` // Event title.
	Description string `gorm:"type:text"`
	Location    string `gorm:"type:text"`
	ImageURL    string `gorm:"type:text"`

	CafeID *uint64 `gorm:"index"`             // Hosting venue, if any.
	Cafe   *Cafe   `gorm:"foreignKey:CafeID"` // Venue record.

	EventDate time.Time `gorm:"not null;index"` // Calendar day of the event.
	StartTime time.Time `gorm:"not null"`
	EndTime   time.Time `gorm:"not null"`

	AnticoinCost int64 `gorm:"not null;default:0"` // Registration price in AntiCoins.
	CoinReward   int64 `gorm:"not null;default:0"` // Attendance reward in AntiCoins.
	SeatLimit    int   `gorm:"not null;default:0"` // 0 means unlimited.

	Organizer       string  `gorm:"type:text"` // Organizer display name.
	OrganizerWallet *string `gorm:"type:text"` // Receives on-chain event payments.

	IsFeatured bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// EventAttendee is the registration join row. The user/event pair is
// unique; capacity is enforced transactionally at registration.
type EventAttendee struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	EventID uint64 `gorm:"not null;uniqueIndex:idx_event_user"` // Registered event.
	Event   *Event `gorm:"foreignKey:EventID"`                  // Event record.

	UserID uint64 `gorm:"not null;uniqueIndex:idx_event_user;index"` // Registered user.
	User   *User  `gorm:"foreignKey:UserID"`                         // User record.

	Attended bool `gorm:"not null;default:false"` // Set when checked in at the event.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Registration timestamp.
}
