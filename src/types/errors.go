package types

import "errors"

// Failure modes of the seat reservation transaction. Handlers match
// these with errors.Is to pick the response status; anything else is a
// store failure surfaced as 500 after rollback.
var (
	ErrTrainNotFound    = errors.New("train not found")
	ErrNoSeatsAvailable = errors.New("no seats available")
	ErrDuplicateBooking = errors.New("you have already booked a seat on this train")
	ErrBookingNotFound  = errors.New("booking not found")
)
