package main

import (
	"errors"
	"log"
	"net/http"
	"tbs/src/db"
	"tbs/src/models"
	"tbs/src/types"
	"tbs/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func bookingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/bookings", func(ctx *gin.Context) {
			var body types.CreateBookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			trainId, err := uuid.Parse(body.TrainID)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId, err := uuid.Parse(ctx.GetString("id"))
			if err != nil {
				ctx.AbortWithStatus(http.StatusUnauthorized)
				return
			}

			result, err := utils.ReserveSeat(trainId, userId)
			if err != nil {
				switch {
				case errors.Is(err, types.ErrTrainNotFound):
					ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				case errors.Is(err, types.ErrNoSeatsAvailable),
					errors.Is(err, types.ErrDuplicateBooking):
					ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				default:
					log.Printf("Error reserving seat on train [%s] for user [%s]: %s\n", body.TrainID, userId.String(), err.Error())
					ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Booking failed"})
				}
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{
				"message":    "Booking Successful",
				"bookingId":  result.BookingID.String(),
				"seatNumber": result.SeatNumber,
			})
		}).
		GET("/bookings", func(ctx *gin.Context) {
			userId, err := uuid.Parse(ctx.GetString("id"))
			if err != nil {
				ctx.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			db := db.GetDb()
			var bookings []models.Booking
			if err := db.
				Model(&models.Booking{}).
				Where(&models.Booking{UserID: userId, Status: types.BOOKING_CONFIRMED}).
				Preload("Train").
				Order("created_at asc").
				Find(&bookings).
				Error; err != nil {
				log.Printf("Error retrieving bookings for user [%s]: %s\n", userId.String(), err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong! Please try again!"})
				return
			}
			data := make([]types.APIResponseBooking, 0, len(bookings))
			for _, booking := range bookings {
				data = append(data, bookingResponse(&booking))
			}
			ctx.JSON(http.StatusOK, gin.H{"data": data, "count": len(data)})
		}).
		GET("/bookings/:id", func(ctx *gin.Context) {
			var params types.BookingURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			bookingId, _ := uuid.Parse(params.ID)
			if bookingId == uuid.Nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": types.ErrBookingNotFound.Error()})
				return
			}
			userId, err := uuid.Parse(ctx.GetString("id"))
			if err != nil {
				ctx.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			db := db.GetDb()
			var booking models.Booking
			// Ownership is part of the query; a foreign booking id is
			// indistinguishable from a missing one.
			if err := db.
				Model(&models.Booking{}).
				Where(&models.Booking{ID: bookingId, UserID: userId, Status: types.BOOKING_CONFIRMED}).
				Preload("Train").
				First(&booking).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": types.ErrBookingNotFound.Error()})
					return
				}
				log.Printf("Error retrieving booking [%s]: %s\n", params.ID, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong! Please try again!"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookingResponse(&booking)})
		}).
		PUT("/bookings/:id/cancel", func(ctx *gin.Context) {
			var params types.BookingURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			bookingId, _ := uuid.Parse(params.ID)
			userId, err := uuid.Parse(ctx.GetString("id"))
			if err != nil {
				ctx.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			if err := utils.CancelBooking(bookingId, userId); err != nil {
				if errors.Is(err, types.ErrBookingNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
					return
				}
				log.Printf("Error cancelling booking [%s]: %s\n", params.ID, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Error while processing request"})
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}

func bookingResponse(booking *models.Booking) types.APIResponseBooking {
	resp := types.APIResponseBooking{
		ID:         booking.ID.String(),
		SeatNumber: booking.SeatNumber,
		CreatedAt:  booking.CreatedAt,
	}
	if booking.Train != nil {
		resp.Train = &types.APIResponseTrainSummary{
			TrainName:   booking.Train.TrainName,
			Source:      booking.Train.Source,
			Destination: booking.Train.Destination,
		}
	}
	return resp
}
