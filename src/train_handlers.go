package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"tbs/src/db"
	"tbs/src/lib"
	"tbs/src/middlewares"
	"tbs/src/models"
	"tbs/src/types"
	"tbs/src/utils"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const availabilityCacheTTL = 30 * time.Second

func trainHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/trains", middlewares.RequireAdmin, func(ctx *gin.Context) {
			var body types.CreateTrainRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			var train models.Train
			err := db.Transaction(func(tx *gorm.DB) error {
				train = models.Train{
					TrainName:      body.TrainName,
					Source:         body.Source,
					Destination:    body.Destination,
					TotalSeats:     body.TotalSeats,
					AvailableSeats: body.TotalSeats,
				}
				if err := tx.Create(&train).Error; err != nil {
					return err
				}
				return nil
			})
			if err != nil {
				log.Printf("Error creating train: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add train"})
				return
			}
			utils.InvalidateAvailabilityCache(train.Source, train.Destination)
			ctx.JSON(http.StatusCreated, gin.H{
				"message": "Train added successfully",
				"trainId": train.ID.String(),
			})
		}).
		GET("/trains/availability", func(ctx *gin.Context) {
			var query types.TrainAvailabilityQuery
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Source and destination are required"})
				return
			}

			key := utils.AvailabilityCacheKey(query.Source, query.Destination)
			rd := lib.GetRedisClient()
			if rd != nil {
				cached, err := rd.Get(context.Background(), key).Result()
				if err == nil && cached != "" {
					ctx.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
					return
				}
			}

			db := db.GetDb()
			var trains []models.Train
			if err := db.
				Model(&models.Train{}).
				Where(&models.Train{Source: query.Source, Destination: query.Destination}).
				Where("available_seats > ?", 0).
				Find(&trains).
				Error; err != nil {
				log.Printf("Error retrieving availability: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch train availability"})
				return
			}
			data := make([]types.APIResponseTrain, 0, len(trains))
			for _, train := range trains {
				data = append(data, types.APIResponseTrain{
					ID:             train.ID.String(),
					TrainName:      train.TrainName,
					Source:         train.Source,
					Destination:    train.Destination,
					AvailableSeats: train.AvailableSeats,
				})
			}
			body := gin.H{"data": data, "count": len(data)}
			if rd != nil {
				if raw, err := json.Marshal(body); err == nil {
					if err := rd.SetEx(context.Background(), key, string(raw), availabilityCacheTTL).Err(); err != nil {
						log.Printf("[redis] Error caching value [%s]: %s\n", key, err.Error())
					}
				}
			}
			ctx.JSON(http.StatusOK, body)
		}).
		GET("/trains/:id/seats", func(ctx *gin.Context) {
			var params types.BookingURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			trainId, _ := uuid.Parse(params.ID)
			free, reserved, err := utils.GetTrainSeats(trainId)
			if err != nil {
				if errors.Is(err, types.ErrTrainNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
					return
				}
				log.Printf("Error retrieving seats for train [%s]: %s\n", params.ID, err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"id": params.ID, "free": free, "reserved": reserved})
		})
	return g
}
