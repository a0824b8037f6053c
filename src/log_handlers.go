package main

import (
	"ers/src/common"
	"ers/src/db"
	"ers/src/models"
	"ers/src/types"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func logHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/logs", func(ctx *gin.Context) {
			var body types.CreateLogRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			logType := types.LogType(body.Type)
			if !logType.Valid() {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": common.ErrInvalidStatus.Error()})
				return
			}
			entry := models.EquipmentLog{
				EquipmentID:   body.EquipmentID,
				UserID:        ctx.GetUint("id"),
				ReservationID: body.ReservationID,
				Type:          logType,
				Content:       body.Content,
			}
			dbi := db.GetDb()
			var count int64
			if err := dbi.Model(&models.Equipment{}).Where("id = ?", body.EquipmentID).Count(&count).Error; err != nil || count == 0 {
				ctx.JSON(http.StatusNotFound, gin.H{"error": common.ErrEquipmentNotFound.Error()})
				return
			}
			if err := dbi.Create(&entry).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": entry})
		}).
		GET("/logs", func(ctx *gin.Context) {
			limit := 50
			if l := ctx.Query("limit"); l != "" {
				atoi, err := strconv.Atoi(l)
				if err != nil || atoi < 1 {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
					return
				}
				limit = atoi
			}
			q := db.GetDb().Model(&models.EquipmentLog{})
			if eq := ctx.Query("equipment"); eq != "" {
				atoi, err := strconv.Atoi(eq)
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				q = q.Where("equipment_id = ?", atoi)
			}
			if res := ctx.Query("reservation"); res != "" {
				atoi, err := strconv.Atoi(res)
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				q = q.Where("reservation_id = ?", atoi)
			}
			var entries []models.EquipmentLog
			if err := q.
				Preload("User").
				Order("created_at DESC").
				Limit(limit).
				Find(&entries).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": entries, "count": len(entries)})
		}).
		PUT("/logs/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.UpdateLogRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			entry, status, err := authorizeLogMutation(ctx, params.ID)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			entry.Content = body.Content
			if err := db.GetDb().Save(entry).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": entry})
		}).
		DELETE("/logs/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			entry, status, err := authorizeLogMutation(ctx, params.ID)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			if err := db.GetDb().Delete(entry).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}

// authorizeLogMutation loads the entry and checks the author-or-admin rule.
func authorizeLogMutation(ctx *gin.Context, id uint) (*models.EquipmentLog, int, error) {
	var entry models.EquipmentLog
	if err := db.GetDb().
		Where(&models.EquipmentLog{ID: id}).
		First(&entry).
		Error; err != nil {
		return nil, http.StatusNotFound, common.ErrLogNotFound
	}
	userId := ctx.GetUint("id")
	role := types.UserRole(ctx.GetString("role"))
	if entry.UserID != userId && role != types.ROLE_ADMIN {
		return nil, http.StatusForbidden, common.ErrForbidden
	}
	return &entry, http.StatusOK, nil
}
