package models

import "time"

// Booking statuses.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

// Booking represents a reserved seat at a cafe. Bookings are independent
// of check-ins; nothing requires a booking before checking in.
type Booking struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Reference string `gorm:"type:text;not null;uniqueIndex"` // Client-facing booking reference.

	UserID uint64 `gorm:"not null;index"`    // Booking owner.
	User   *User  `gorm:"foreignKey:UserID"` // Owner record.

	CafeID uint64 `gorm:"not null;index"`    // Reserved venue.
	Cafe   *Cafe  `gorm:"foreignKey:CafeID"` // Venue record.

	BookingDate     time.Time `gorm:"not null;index"` // Calendar day of the booking.
	StartTime       time.Time `gorm:"not null"`       // Reserved slot start.
	DurationMinutes int       `gorm:"not null"`       // Reserved slot length.
	TotalCostCents  int64     `gorm:"not null"`       // Price at booking time.

	Status string `gorm:"type:text;not null;default:'pending';index"` // Lifecycle status.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// EndTime returns the reserved slot end.
func (b *Booking) EndTime() time.Time {
	return b.StartTime.Add(time.Duration(b.DurationMinutes) * time.Minute)
}
