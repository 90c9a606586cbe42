package models

import (
	"tbs/src/types"

	"github.com/google/uuid"
)

// AvailableSeats is only ever read or written inside the per-train
// locked unit in utils.ReserveSeat / utils.CancelBooking.
type Train struct {
	ID             uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	TrainName      string    `gorm:"not null" json:"trainName,omitempty"`
	Source         string    `gorm:"not null;index:idx_trains_route" json:"source,omitempty"`
	Destination    string    `gorm:"not null;index:idx_trains_route" json:"destination,omitempty"`
	TotalSeats     uint      `gorm:"not null" json:"totalSeats,omitempty"`
	AvailableSeats uint      `gorm:"not null" json:"availableSeats"`

	Bookings []Booking `gorm:"foreignKey:train_id" json:"bookings,omitempty"`

	types.Timestamps
}
