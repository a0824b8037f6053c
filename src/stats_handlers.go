package main

import (
	"ers/src/middlewares"
	"ers/src/utils"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func statsHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/stats/reservations", middlewares.RequireAdmin, func(ctx *gin.Context) {
			counts, err := utils.GetReservationStats()
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": counts})
		}).
		GET("/stats/usage", middlewares.RequireAdmin, func(ctx *gin.Context) {
			since := time.Now().AddDate(0, -1, 0)
			if s := ctx.Query("since"); s != "" {
				parsed, err := utils.ParseBookingTime(s)
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				since = parsed
			}
			usage, err := utils.GetEquipmentUsageStats(since)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": usage})
		})
	return g
}
