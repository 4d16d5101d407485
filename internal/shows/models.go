package shows

import (
	"time"

	"cinebook/internal/movies"

	"github.com/google/uuid"
)

// Show is one screening of a movie. OccupiedSeats is the denormalized
// projection of active bookings onto this show's seat map; it is mutated
// only inside the reservation and expiry transactions.
type Show struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	MovieID       string    `json:"movie_id" gorm:"size:32;index;not null"`
	StartTime     time.Time `json:"start_time" gorm:"index;not null"`
	Price         float64   `json:"price" gorm:"not null;check:price >= 0"`
	OccupiedSeats SeatMap   `json:"occupied_seats" gorm:"type:jsonb"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Movie *movies.Movie `json:"movie,omitempty" gorm:"foreignKey:MovieID;constraint:OnDelete:RESTRICT;"`
}

func (Show) TableName() string {
	return "shows"
}

// AddShowsRequest creates screenings for one movie across several dates.
type AddShowsRequest struct {
	MovieID string      `json:"movie_id" binding:"required"`
	Price   float64     `json:"price" binding:"required,min=0"`
	Shows   []ShowInput `json:"shows" binding:"required,min=1,dive"`
}

type ShowInput struct {
	Date  string   `json:"date" binding:"required,datetime=2006-01-02"`
	Times []string `json:"times" binding:"required,min=1,dive,datetime=15:04"`
}

// ShowTime is one entry in the per-date screening listing.
type ShowTime struct {
	ShowID uuid.UUID `json:"show_id"`
	Time   time.Time `json:"time"`
}

// MovieShowsResponse groups a movie's upcoming screenings by date.
type MovieShowsResponse struct {
	Movie    *movies.Movie         `json:"movie"`
	DateTime map[string][]ShowTime `json:"date_time"`
}
