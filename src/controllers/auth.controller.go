package controllers

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

func AuthRegister(ctx *gin.Context) (userId *uuid.UUID, status int, err error) {
	var body types.RegisterUserRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	role := types.ROLE_USER
	if body.Role != "" {
		role = types.Role(body.Role)
	}

	hashed, err := utils.HashPassword(body.Password)
	if err != nil {
		log.Printf("Error hashing password: %s\n", err.Error())
		return nil, http.StatusInternalServerError, errors.New("registration failed")
	}

	db := db.GetDb()
	var newUser models.User
	err = db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.
			Model(&models.User{}).
			Where("username = ? OR email = ?", body.Username, body.Email).
			Count(&existing).
			Error; err != nil {
			return err
		}
		if existing > 0 {
			return errors.New("username or email already exists")
		}
		newUser = models.User{
			Username: body.Username,
			Email:    body.Email,
			Password: hashed,
			Role:     role,
		}
		if err := tx.Create(&newUser).Error; err != nil {
			log.Printf("Error creating user: %s\n", err.Error())
			return err
		}
		return nil
	})
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	return &newUser.ID, http.StatusCreated, nil
}

func AuthLogin(ctx *gin.Context) (token *string, user *models.User, status int, err error) {
	var body types.LoginRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, nil, http.StatusBadRequest, err
	}

	db := db.GetDb()
	var muser models.User
	if err := db.
		Model(&models.User{}).
		Where(&models.User{Username: body.Username}).
		First(&muser).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, http.StatusUnauthorized, errors.New("invalid credentials")
		}
		log.Printf("error: %s\n", err.Error())
		return nil, nil, http.StatusInternalServerError, errors.New("login failed")
	}
	if !utils.ComparePassword(body.Password, muser.Password) {
		return nil, nil, http.StatusUnauthorized, errors.New("invalid credentials")
	}

	jwt, err := utils.GenerateJWT(muser.Username, muser.Role, muser.ID)
	if err != nil {
		log.Printf("Error generating token for user [%s]: %s\n", muser.ID.String(), err.Error())
		return nil, nil, http.StatusInternalServerError, errors.New("login failed")
	}
	return &jwt, &muser, http.StatusOK, nil
}
