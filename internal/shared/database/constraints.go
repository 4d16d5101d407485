package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds indexes AutoMigrate does not express, covering the
// scheduler claim query and the booking listing paths.
func MigrateConstraints(db *gorm.DB) error {
	// Due-job claiming filters on status and orders by due_at
	err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_scheduler_jobs_status_due_at
		ON scheduler_jobs (status, due_at);
	`).Error
	if err != nil {
		return err
	}

	// User booking history
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_user_id_created_at
		ON bookings (user_id, created_at DESC);
	`).Error
	if err != nil {
		return err
	}

	// Reconciliation scans unpaid bookings per show
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_show_id_unpaid
		ON bookings (show_id)
		WHERE is_paid = false;
	`).Error
	if err != nil {
		return err
	}

	return nil
}
