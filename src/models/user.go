package models

import (
	"tbs/src/types"

	"github.com/google/uuid"
)

type User struct {
	ID       uuid.UUID  `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	Username string     `gorm:"uniqueIndex;not null" json:"username,omitempty"`
	Email    string     `gorm:"uniqueIndex;not null" json:"email,omitempty"`
	Password string     `gorm:"not null" json:"-"`
	Role     types.Role `gorm:"default:user" json:"role,omitempty"`

	Bookings []Booking `gorm:"foreignKey:user_id" json:"bookings,omitempty"`

	types.Timestamps
}
