package main

import (
	"ers/src/common"
	"ers/src/db"
	"ers/src/models"
	"ers/src/types"
	"ers/src/utils"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func reservationHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/reservations", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			data, err := utils.GetOwnReservations(userId)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": data, "count": len(data)})
		}).
		GET("/reservations/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var reservation models.Reservation
			if err := db.GetDb().
				Where(&models.Reservation{ID: params.ID}).
				Preload("Equipment").
				Preload("User").
				First(&reservation).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": common.ErrReservationNotFound.Error()})
				return
			}
			userId := ctx.GetUint("id")
			role := types.UserRole(ctx.GetString("role"))
			if reservation.UserID != userId && role != types.ROLE_ADMIN {
				ctx.JSON(http.StatusForbidden, gin.H{"error": common.ErrForbidden.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reservation})
		}).
		GET("/conflicts", func(ctx *gin.Context) {
			var query struct {
				Equipment uint   `form:"equipment" binding:"required"`
				Start     string `form:"start" binding:"required"`
				End       string `form:"end" binding:"required"`
				Exclude   string `form:"exclude"`
			}
			if err := ctx.BindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			start, err := utils.ParseBookingTime(query.Start)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			end, err := utils.ParseBookingTime(query.End)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if !end.After(start) {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": common.ErrInvalidInterval.Error()})
				return
			}
			var excludeId uint
			if query.Exclude != "" {
				atoi, err := strconv.Atoi(query.Exclude)
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				excludeId = uint(atoi)
			}
			conflict, err := common.CheckConflict(db.GetDb(), query.Equipment, start, end, excludeId)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"conflict": conflict})
		}).
		POST("/reservations", func(ctx *gin.Context) {
			var body types.CreateReservationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			start, err := utils.ParseBookingTime(body.StartTime)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			end, err := utils.ParseBookingTime(body.EndTime)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			reservation, err := common.CreateReservation(&common.CreateReservationInput{
				EquipmentID: body.EquipmentID,
				UserID:      ctx.GetUint("id"),
				Role:        types.UserRole(ctx.GetString("role")),
				StartTime:   start,
				EndTime:     end,
				Purpose:     body.Purpose,
			})
			if err != nil {
				ctx.JSON(errorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": reservation})
		}).
		PUT("/reservations/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.UpdateReservationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			in := common.UpdateReservationInput{Purpose: body.Purpose}
			if body.StartTime != nil {
				start, err := utils.ParseBookingTime(*body.StartTime)
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				in.StartTime = &start
			}
			if body.EndTime != nil {
				end, err := utils.ParseBookingTime(*body.EndTime)
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				in.EndTime = &end
			}
			reservation, err := common.UpdateReservation(
				params.ID,
				ctx.GetUint("id"),
				types.UserRole(ctx.GetString("role")),
				&in,
			)
			if err != nil {
				ctx.JSON(errorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reservation})
		}).
		PUT("/reservations/:id/cancel", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			err := common.CancelReservation(params.ID, ctx.GetUint("id"), types.UserRole(ctx.GetString("role")))
			if err != nil {
				ctx.JSON(errorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"id": params.ID, "status": types.RESERVATION_CANCELLED}})
		}).
		PUT("/reservations/:id/restore", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			reservation, err := common.RestoreReservation(params.ID, ctx.GetUint("id"), types.UserRole(ctx.GetString("role")))
			if err != nil {
				ctx.JSON(errorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reservation})
		}).
		PUT("/reservations/:id/approve", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			reservation, err := common.ApproveReservation(params.ID, ctx.GetUint("id"), types.UserRole(ctx.GetString("role")))
			if err != nil {
				ctx.JSON(errorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reservation})
		}).
		DELETE("/reservations/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			err := common.DeleteReservation(params.ID, types.UserRole(ctx.GetString("role")))
			if err != nil {
				ctx.JSON(errorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
