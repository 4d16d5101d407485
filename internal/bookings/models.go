package bookings

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"cinebook/internal/shows"
	"cinebook/internal/users"

	"github.com/google/uuid"
)

// SeatList is the ordered set of seat labels a booking claims, stored as jsonb.
type SeatList []string

func (s SeatList) Value() (driver.Value, error) {
	if s == nil {
		s = SeatList{}
	}
	return json.Marshal(s)
}

func (s *SeatList) Scan(value interface{}) error {
	if value == nil {
		*s = SeatList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported seat list source type %T", value)
	}
	if len(data) == 0 {
		*s = SeatList{}
		return nil
	}
	return json.Unmarshal(data, s)
}

// Booking is one reservation attempt. Unpaid bookings are provisional: the
// expiry job deletes them and frees their seats once the hold window lapses.
// Once IsPaid flips to true the record is permanent and the expiry path
// leaves it alone.
type Booking struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ShowID     uuid.UUID `json:"show_id" gorm:"type:uuid;not null;index"`
	UserID     string    `json:"user_id" gorm:"size:64;not null;index"`
	Seats      SeatList  `json:"seats" gorm:"type:jsonb;not null"`
	Amount     float64   `json:"amount" gorm:"not null;check:amount >= 0"`
	IsPaid     bool      `json:"is_paid" gorm:"not null;default:false;index"`
	PaymentRef string    `json:"payment_ref,omitempty" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Show *shows.Show `json:"show,omitempty" gorm:"foreignKey:ShowID;constraint:OnDelete:RESTRICT;"`
	User *users.User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT;"`
}

func (Booking) TableName() string {
	return "bookings"
}

// CreateBookingRequest reserves seats on one show for the caller.
type CreateBookingRequest struct {
	ShowID string   `json:"show_id" binding:"required,uuid"`
	Seats  []string `json:"seats" binding:"required,min=1,dive,required"`
}

// CreateBookingResponse returns the new booking and where to pay for it.
type CreateBookingResponse struct {
	Booking    *Booking `json:"booking"`
	PaymentURL string   `json:"payment_url"`
}

// ExpiryPayload is the scheduler payload for a booking's expiry check.
type ExpiryPayload struct {
	BookingID uuid.UUID `json:"booking_id"`
}
