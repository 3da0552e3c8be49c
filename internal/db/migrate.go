package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/anti-app/antiapp-backend/internal/models"
)

// Migrate creates or updates the schema and backfills columns renamed by
// earlier schema revisions.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}

	if err := conn.AutoMigrate(
		&models.User{},
		&models.Admin{},
		&models.Cafe{},
		&models.Booking{},
		&models.Checkin{},
		&models.CoinTransaction{},
		&models.Event{},
		&models.EventAttendee{},
		&models.Favorite{},
		&models.Reward{},
		&models.Sponsor{},
	); err != nil {
		return fmt.Errorf("db: auto migrate: %w", err)
	}

	if err := backfillLegacyColumns(conn); err != nil {
		return err
	}
	if err := ensureActiveCheckinIndex(conn); err != nil {
		return err
	}
	return seedRewards(conn)
}

// backfillLegacyColumns copies values from columns used by earlier schema
// revisions (bookings.date, checkins.minutes_spent/anticoin_earned) into
// their canonical successors, then leaves the legacy columns alone.
func backfillLegacyColumns(conn *gorm.DB) error {
	migrator := conn.Migrator()

	if migrator.HasColumn(&models.Booking{}, "date") {
		if err := conn.Exec(
			`UPDATE bookings SET booking_date = date WHERE date IS NOT NULL AND booking_date IS NULL`,
		).Error; err != nil {
			return fmt.Errorf("db: backfill bookings.booking_date: %w", err)
		}
	}
	if migrator.HasColumn(&models.Checkin{}, "minutes_spent") {
		if err := conn.Exec(
			`UPDATE checkins SET duration_minutes = minutes_spent WHERE minutes_spent IS NOT NULL AND duration_minutes = 0`,
		).Error; err != nil {
			return fmt.Errorf("db: backfill checkins.duration_minutes: %w", err)
		}
	}
	if migrator.HasColumn(&models.Checkin{}, "anticoin_earned") {
		if err := conn.Exec(
			`UPDATE checkins SET coins_earned = anticoin_earned WHERE anticoin_earned IS NOT NULL AND coins_earned = 0`,
		).Error; err != nil {
			return fmt.Errorf("db: backfill checkins.coins_earned: %w", err)
		}
	}
	return nil
}

// ensureActiveCheckinIndex creates the partial unique index that caps a
// user at one open check-in. Both supported dialects accept the syntax.
func ensureActiveCheckinIndex(conn *gorm.DB) error {
	if err := conn.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_checkins_one_active ON checkins (user_id) WHERE end_time IS NULL`,
	).Error; err != nil {
		return fmt.Errorf("db: create active checkin index: %w", err)
	}
	return nil
}

// seedRewards installs the launch reward catalog into an empty store.
func seedRewards(conn *gorm.DB) error {
	var count int64
	if err := conn.Model(&models.Reward{}).Count(&count).Error; err != nil {
		return fmt.Errorf("db: count rewards: %w", err)
	}
	if count > 0 {
		return nil
	}

	catalog := []models.Reward{
		{Title: "Free Coffee", Description: "Redeem for a free coffee at any partner cafe", Cost: 100, ImageURL: "https://images.unsplash.com/photo-1497636577773-f1231844b336", Active: true},
		{Title: "30 Minutes Free", Description: "Get 30 minutes free at any workspace", Cost: 200, ImageURL: "https://images.unsplash.com/photo-1517502884422-41eaead166d4", Active: true},
		{Title: "Premium Workspace Access", Description: "One-time access to premium workspace areas", Cost: 300, ImageURL: "https://images.unsplash.com/photo-1497215728101-856f4ea42174", Active: true},
		{Title: "AntiApp Merchandise", Description: "Exclusive AntiApp branded notebook and sticker set", Cost: 400, ImageURL: "https://images.unsplash.com/photo-1531053270060-6643c8e70e8f", Active: true},
		{Title: "Workshop Ticket", Description: "Free ticket to a partner workshop", Cost: 500, ImageURL: "https://images.unsplash.com/photo-1517245386807-bb43f82c33c4", Active: true},
	}
	if err := conn.Create(&catalog).Error; err != nil {
		return fmt.Errorf("db: seed rewards: %w", err)
	}
	return nil
}
