package main

import (
	"ers/src/common"
	"ers/src/db"
	"ers/src/middlewares"
	"ers/src/models"
	"ers/src/types"
	"ers/src/utils"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

func equipmentHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/equipment", func(ctx *gin.Context) {
			var data []models.Equipment
			q := db.GetDb().Model(&models.Equipment{})
			if status := ctx.Query("status"); status != "" {
				q = q.Where("status = ?", status)
			}
			if err := q.Order("name").Find(&data).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": data, "count": len(data)})
		}).
		GET("/equipment/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var equipment models.Equipment
			if err := db.GetDb().
				Where(&models.Equipment{ID: params.ID}).
				Preload("Manager").
				Preload("Attachments").
				First(&equipment).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": common.ErrEquipmentNotFound.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": equipment})
		}).
		GET("/equipment/:id/reservations", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			data, err := utils.GetEquipmentReservations(params.ID)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": data, "count": len(data)})
		}).
		POST("/equipment", middlewares.RequireAdmin, func(ctx *gin.Context) {
			var body types.CreateEquipmentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			equipment := models.Equipment{
				Name:      body.Name,
				Slug:      slug.Make(body.Name),
				Location:  body.Location,
				Status:    types.EQUIPMENT_AVAILABLE,
				ManagerID: body.ManagerID,
				ManualURL: body.ManualURL,
			}
			if body.Description != "" {
				equipment.Description = &body.Description
			}
			if err := db.GetDb().Create(&equipment).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": equipment})
		}).
		PUT("/equipment/:id", middlewares.RequireAdmin, func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.UpdateEquipmentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			dbi := db.GetDb()
			var equipment models.Equipment
			err := dbi.Transaction(func(tx *gorm.DB) error {
				if err := tx.
					Where(&models.Equipment{ID: params.ID}).
					First(&equipment).
					Error; err != nil {
					return common.ErrEquipmentNotFound
				}
				if body.Name != nil {
					equipment.Name = *body.Name
					equipment.Slug = slug.Make(*body.Name)
				}
				if body.Location != nil {
					equipment.Location = *body.Location
				}
				if body.Description != nil {
					equipment.Description = body.Description
				}
				if body.ManagerID != nil {
					equipment.ManagerID = body.ManagerID
				}
				if body.ManualURL != nil {
					equipment.ManualURL = body.ManualURL
				}
				return tx.Save(&equipment).Error
			})
			if err != nil {
				ctx.JSON(errorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": equipment})
		}).
		PUT("/equipment/:id/status", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.UpdateEquipmentStatusRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			status := types.EquipmentStatus(body.Status)
			if !status.Valid() {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": common.ErrInvalidStatus.Error()})
				return
			}
			userId := ctx.GetUint("id")
			role := types.UserRole(ctx.GetString("role"))
			dbi := db.GetDb()
			err := dbi.Transaction(func(tx *gorm.DB) error {
				if role != types.ROLE_ADMIN {
					manages, err := common.CanManageEquipment(tx, params.ID, userId)
					if err != nil {
						return err
					}
					if !manages {
						return common.ErrForbidden
					}
				}
				res := tx.
					Model(&models.Equipment{}).
					Where(&models.Equipment{ID: params.ID}).
					Update("status", status)
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					return common.ErrEquipmentNotFound
				}
				return nil
			})
			if err != nil {
				ctx.JSON(errorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"id": params.ID, "status": status}})
		}).
		DELETE("/equipment/:id", middlewares.RequireAdmin, func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			dbi := db.GetDb()
			err := dbi.Transaction(func(tx *gorm.DB) error {
				var count int64
				if err := tx.
					Model(&models.Reservation{}).
					Where(&models.Reservation{EquipmentID: params.ID}).
					Count(&count).
					Error; err != nil {
					return err
				}
				if count > 0 {
					return common.ErrConflict
				}
				res := tx.Delete(&models.Equipment{}, params.ID)
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					return common.ErrEquipmentNotFound
				}
				return nil
			})
			if err != nil {
				ctx.JSON(errorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
