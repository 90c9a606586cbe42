package models

import (
	"tbs/src/types"

	"github.com/google/uuid"
)

type Booking struct {
	ID         uuid.UUID           `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID     uuid.UUID           `gorm:"type:uuid;not null;index" json:"user_id,omitempty"`
	TrainID    uuid.UUID           `gorm:"type:uuid;not null;index" json:"train_id,omitempty"`
	SeatNumber uint                `gorm:"not null" json:"seatNumber,omitempty"`
	Status     types.BookingStatus `gorm:"default:confirmed" json:"status,omitempty"`

	User  *User  `gorm:"foreignKey:user_id" json:"user,omitempty"`
	Train *Train `gorm:"foreignKey:train_id" json:"train,omitempty"`

	types.Timestamps
}
