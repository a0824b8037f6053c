package main

import (
	"ers/src/common"
	"ers/src/db"
	"ers/src/models"
	"ers/src/types"
	"net/http"

	"github.com/gin-gonic/gin"
)

// canAdministerGrants applies the ledger's authorization rule: admins may do
// anything; a manager-level grant holder may administer normal/autonomous
// grants for that equipment but never manager grants. The caller's own level
// comes from the cached read; grant and revoke invalidate it, so a stale hit
// lives at most one cache TTL.
func canAdministerGrants(ctx *gin.Context, equipmentId uint, targetLevel types.PermissionLevel) (bool, error) {
	role := types.UserRole(ctx.GetString("role"))
	if role == types.ROLE_ADMIN {
		return true, nil
	}
	if targetLevel == types.PERMISSION_MANAGER {
		return false, nil
	}
	level, err := common.GetPermissionLevel(equipmentId, ctx.GetUint("id"))
	if err != nil {
		return false, err
	}
	return level == types.PERMISSION_MANAGER, nil
}

func permissionHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/equipment/:id/permissions", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			allowed, err := canAdministerGrants(ctx, params.ID, types.PERMISSION_NORMAL)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			if !allowed {
				ctx.JSON(http.StatusForbidden, gin.H{"error": common.ErrForbidden.Error()})
				return
			}
			var grants []models.EquipmentPermission
			if err := db.GetDb().
				Where(&models.EquipmentPermission{EquipmentID: params.ID}).
				Preload("User").
				Find(&grants).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": grants, "count": len(grants)})
		}).
		POST("/equipment/:id/permissions", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.GrantPermissionRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			level := types.PermissionLevel(body.Level)
			if !level.Valid() {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": common.ErrInvalidStatus.Error()})
				return
			}
			allowed, err := canAdministerGrants(ctx, params.ID, level)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			if !allowed {
				ctx.JSON(http.StatusForbidden, gin.H{"error": common.ErrForbidden.Error()})
				return
			}
			grant, err := common.GrantPermission(params.ID, body.UserID, ctx.GetUint("id"), level)
			if err != nil {
				ctx.JSON(errorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": grant})
		}).
		DELETE("/equipment/:id/permissions/:user", func(ctx *gin.Context) {
			var params struct {
				ID   uint `uri:"id" binding:"required"`
				User uint `uri:"user" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			// revoking a manager grant takes the same privilege as creating one
			targetLevel := types.PERMISSION_NORMAL
			existing, err := common.GetPermission(db.GetDb(), params.ID, params.User)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			if existing != nil {
				targetLevel = existing.Level
			}
			allowed, err := canAdministerGrants(ctx, params.ID, targetLevel)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			if !allowed {
				ctx.JSON(http.StatusForbidden, gin.H{"error": common.ErrForbidden.Error()})
				return
			}
			if err := common.RevokePermission(params.ID, params.User); err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		GET("/permissions", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			var grants []models.EquipmentPermission
			if err := db.GetDb().
				Where(&models.EquipmentPermission{UserID: userId}).
				Preload("Equipment").
				Find(&grants).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": grants, "count": len(grants)})
		}).
		GET("/permissions/managed", func(ctx *gin.Context) {
			equipment, err := common.GetManagedEquipment(ctx.GetUint("id"))
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": equipment, "count": len(equipment)})
		})
	return g
}
