package database

import (
	"cinebook/internal/bookings"
	"cinebook/internal/movies"
	"cinebook/internal/scheduler"
	"cinebook/internal/shows"
	"cinebook/internal/users"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&users.User{},
		&movies.Movie{},
		&shows.Show{},
		&bookings.Booking{},
		&scheduler.Job{},
	)
}
