package utils

import (
	"context"
	"errors"
	"fmt"
	"log"
	"tbs/src/config"
	"tbs/src/db"
	"tbs/src/lib"
	"tbs/src/models"
	"tbs/src/types"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReserveResult struct {
	BookingID  uuid.UUID
	SeatNumber uint
}

// ReserveSeat allocates one seat on a train for a user. The whole unit
// runs in a single transaction holding a FOR UPDATE lock on the train
// row, so concurrent calls for the same train are serialized while
// calls for different trains proceed in parallel. On any error the
// transaction rolls back with no partial state.
func ReserveSeat(trainID uuid.UUID, userID uuid.UUID) (*ReserveResult, error) {
	// uuid.Nil is gorm's zero value; a struct condition would drop the
	// id predicate and lock an arbitrary train row.
	if trainID == uuid.Nil {
		return nil, types.ErrTrainNotFound
	}
	db := db.GetDb()
	var result ReserveResult
	var source, destination string
	err := db.Transaction(func(tx *gorm.DB) error {
		var train models.Train
		if err := tx.
			Clauses(clause.Locking{
				Strength: "UPDATE",
				Table:    clause.Table{Name: clause.CurrentTable},
			}).
			Where(&models.Train{ID: trainID}).
			First(&train).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.ErrTrainNotFound
			}
			return err
		}
		if train.AvailableSeats < 1 {
			return types.ErrNoSeatsAvailable
		}

		// The duplicate check must happen under the train lock, or two
		// concurrent requests from the same user could both pass it.
		var existing int64
		if err := tx.
			Model(&models.Booking{}).
			Where(&models.Booking{UserID: userID, TrainID: trainID, Status: types.BOOKING_CONFIRMED}).
			Count(&existing).
			Error; err != nil {
			return err
		}
		if existing > 0 {
			return types.ErrDuplicateBooking
		}

		seat, err := nextFreeSeat(tx, &train)
		if err != nil {
			return err
		}

		booking := models.Booking{
			UserID:     userID,
			TrainID:    trainID,
			SeatNumber: seat,
			Status:     types.BOOKING_CONFIRMED,
		}
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}
		if err := tx.
			Model(&models.Train{}).
			Where(&models.Train{ID: trainID}).
			Update("available_seats", gorm.Expr("available_seats - ?", 1)).
			Error; err != nil {
			return err
		}

		result = ReserveResult{BookingID: booking.ID, SeatNumber: seat}
		source, destination = train.Source, train.Destination
		return nil
	})
	if err != nil {
		return nil, err
	}
	InvalidateAvailabilityCache(source, destination)
	return &result, nil
}

// nextFreeSeat picks the lowest seat number not held by a confirmed
// booking. Without cancellations this is exactly
// totalSeats - availableSeats + 1; after a cancellation the freed
// number is reassigned. Caller must hold the train row lock.
func nextFreeSeat(tx *gorm.DB, train *models.Train) (uint, error) {
	var taken []uint
	if err := tx.
		Model(&models.Booking{}).
		Where(&models.Booking{TrainID: train.ID, Status: types.BOOKING_CONFIRMED}).
		Order("seat_number asc").
		Pluck("seat_number", &taken).
		Error; err != nil {
		return 0, err
	}
	seat := uint(len(taken) + 1)
	for i, sn := range taken {
		if sn != uint(i+1) {
			seat = uint(i + 1)
			break
		}
	}
	if seat > train.TotalSeats {
		return 0, types.ErrNoSeatsAvailable
	}
	return seat, nil
}

// CancelBooking flips a confirmed booking to cancelled and returns its
// seat to the pool. The seat count update happens under the same
// per-train lock ReserveSeat takes, keeping
// available_seats == total_seats - count(confirmed) at every commit.
func CancelBooking(bookingID uuid.UUID, userID uuid.UUID) error {
	if bookingID == uuid.Nil {
		return types.ErrBookingNotFound
	}
	db := db.GetDb()
	var source, destination string
	err := db.Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := tx.
			Where(&models.Booking{ID: bookingID, UserID: userID, Status: types.BOOKING_CONFIRMED}).
			First(&booking).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.ErrBookingNotFound
			}
			return err
		}
		var train models.Train
		if err := tx.
			Clauses(clause.Locking{
				Strength: "UPDATE",
				Table:    clause.Table{Name: clause.CurrentTable},
			}).
			Where(&models.Train{ID: booking.TrainID}).
			First(&train).
			Error; err != nil {
			return err
		}
		// Re-check under the lock; a concurrent cancel may have won.
		res := tx.
			Model(&models.Booking{}).
			Where(&models.Booking{ID: bookingID, UserID: userID, Status: types.BOOKING_CONFIRMED}).
			Update("status", types.BOOKING_CANCELED)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return types.ErrBookingNotFound
		}
		if err := tx.
			Model(&models.Train{}).
			Where(&models.Train{ID: train.ID}).
			Update("available_seats", gorm.Expr("available_seats + ?", 1)).
			Error; err != nil {
			return err
		}
		source, destination = train.Source, train.Destination
		return nil
	})
	if err != nil {
		return err
	}
	InvalidateAvailabilityCache(source, destination)
	return nil
}

func GetTrainSeats(id uuid.UUID) (free uint, reserved uint, err error) {
	if id == uuid.Nil {
		return 0, 0, types.ErrTrainNotFound
	}
	db := db.GetDb()
	var train models.Train
	tx := db.Session(&gorm.Session{PrepareStmt: true})
	if err := tx.Where(&models.Train{ID: id}).First(&train).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, 0, types.ErrTrainNotFound
		}
		return 0, 0, err
	}
	var confirmed int64
	if err := tx.
		Model(&models.Booking{}).
		Where(&models.Booking{TrainID: id, Status: types.BOOKING_CONFIRMED}).
		Count(&confirmed).
		Error; err != nil {
		return 0, 0, err
	}
	return train.AvailableSeats, uint(confirmed), nil
}

func AvailabilityCacheKey(source string, destination string) string {
	return fmt.Sprintf("trains:availability:%s:%s", source, destination)
}

// InvalidateAvailabilityCache drops the cached availability list for a
// route. Best effort; the cache is never authoritative.
func InvalidateAvailabilityCache(source string, destination string) {
	rd := lib.GetRedisClient()
	if rd == nil {
		return
	}
	key := AvailabilityCacheKey(source, destination)
	if err := rd.Del(context.Background(), key).Err(); err != nil {
		log.Printf("[redis] Error invalidating key [%s]: %s\n", key, err.Error())
	}
}

func GenerateJWT(username string, role types.Role, id uuid.UUID) (string, error) {
	now := time.Now()
	claims := types.Claims{
		Username: username,
		Role:     string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(config.TOKEN_TTL_HOURS * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	return token.SignedString(config.JWTSecret())
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func ComparePassword(input string, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(input)) == nil
}
