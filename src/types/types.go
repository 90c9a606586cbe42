package types

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type RegisterUserRequestBody struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role,omitempty" binding:"omitempty,oneof=user admin"`
}

type LoginRequestBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CreateTrainRequestBody struct {
	TrainName   string `json:"trainName" binding:"required"`
	Source      string `json:"source" binding:"required"`
	Destination string `json:"destination" binding:"required,tripdistinct=Source"`
	TotalSeats  uint   `json:"totalSeats" binding:"required,min=1"`
}

type TrainAvailabilityQuery struct {
	Source      string `form:"source" binding:"required"`
	Destination string `form:"destination" binding:"required"`
}

type CreateBookingRequestBody struct {
	TrainID string `json:"trainId" binding:"required,uuid"`
}

type BookingURIParams struct {
	ID string `uri:"id" binding:"required,uuid"`
}

type Role string

const (
	ROLE_USER  Role = "user"
	ROLE_ADMIN Role = "admin"
)

type BookingStatus string

const (
	BOOKING_CONFIRMED BookingStatus = "confirmed"
	BOOKING_CANCELED  BookingStatus = "cancelled"
)

type APIResponseTrain struct {
	ID             string `json:"id"`
	TrainName      string `json:"trainName"`
	Source         string `json:"source"`
	Destination    string `json:"destination"`
	AvailableSeats uint   `json:"availableSeats"`
}

type APIResponseBooking struct {
	ID         string    `json:"id"`
	SeatNumber uint      `json:"seatNumber"`
	CreatedAt  time.Time `json:"created_at"`

	Train *APIResponseTrainSummary `json:"train,omitempty"`
}

type APIResponseTrainSummary struct {
	TrainName   string `json:"trainName"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
}
