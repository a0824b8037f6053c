package main

import (
	"ers/src/common"
	"ers/src/db"
	"ers/src/middlewares"
	"ers/src/models"
	"ers/src/types"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func userHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/users/me", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			var user models.User
			if err := db.GetDb().
				Where(&models.User{ID: userId}).
				Preload("Permissions").
				Preload("Permissions.Equipment").
				First(&user).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": common.ErrUserNotFound.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": user})
		}).
		PUT("/users/me", func(ctx *gin.Context) {
			var body types.UpdateProfileRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			var user models.User
			dbi := db.GetDb()
			err := dbi.Transaction(func(tx *gorm.DB) error {
				if err := tx.
					Where(&models.User{ID: userId}).
					First(&user).
					Error; err != nil {
					return common.ErrUserNotFound
				}
				if body.Name != nil {
					user.Name = *body.Name
				}
				if body.Email != nil {
					user.Email = *body.Email
					user.EmailVerified = false
				}
				return tx.Save(&user).Error
			})
			if err != nil {
				ctx.JSON(errorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": user})
		}).
		GET("/users", middlewares.RequireAdmin, func(ctx *gin.Context) {
			var users []models.User
			q := db.GetDb().Model(&models.User{})
			if role := ctx.Query("role"); role != "" {
				q = q.Where("role = ?", role)
			}
			if err := q.Order("id").Find(&users).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": users, "count": len(users)})
		}).
		PUT("/users/:id/role", middlewares.RequireAdmin, func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body struct {
				Role string `json:"role" binding:"required"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			role := types.UserRole(body.Role)
			if !role.Valid() {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
				return
			}
			res := db.GetDb().
				Model(&models.User{}).
				Where(&models.User{ID: params.ID}).
				Update("role", role)
			if res.Error != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": res.Error.Error()})
				return
			}
			if res.RowsAffected == 0 {
				ctx.JSON(http.StatusNotFound, gin.H{"error": common.ErrUserNotFound.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"id": params.ID, "role": role}})
		})
	return g
}
