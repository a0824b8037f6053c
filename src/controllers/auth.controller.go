package controllers

import (
	"ers/src/db"
	"ers/src/models"
	"ers/src/types"
	"ers/src/utils"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func AuthRegister(ctx *gin.Context) (*models.User, int, error) {
	var body types.RegisterUserRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	role := types.ROLE_STUDENT
	if body.Role != "" {
		role = types.UserRole(body.Role)
		if !role.Valid() || role == types.ROLE_ADMIN {
			return nil, http.StatusBadRequest, errors.New("invalid role")
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	user := models.User{
		Name:     body.Name,
		Email:    body.Email,
		Password: string(hash),
		Role:     role,
	}
	dbi := db.GetDb()
	err = dbi.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", body.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errors.New("email already registered")
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	return &user, http.StatusCreated, nil
}

func AuthLogin(ctx *gin.Context) (*string, int, error) {
	var body types.LoginRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	dbi := db.GetDb()
	var user models.User
	if err := dbi.
		Model(&models.User{}).
		Where(&models.User{Email: body.Email}).
		First(&user).
		Error; err != nil {
		log.Printf("error: %s\n", err.Error())
		return nil, http.StatusUnauthorized, errors.New("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(body.Password)); err != nil {
		return nil, http.StatusUnauthorized, errors.New("invalid credentials")
	}
	if err := dbi.
		Model(&models.User{}).
		Where("id", user.ID).
		Update("last_active", time.Now()).
		Error; err != nil {
		log.Printf("Error updating last_active for user %d: %s\n", user.ID, err.Error())
	}
	token, err := utils.GenerateJWT(user.Email, user.ID, user.Role)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return &token, http.StatusOK, nil
}
