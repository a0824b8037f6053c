package main

import (
	"ers/src/common"
	"ers/src/db"
	awslib "ers/src/lib/aws"
	"ers/src/models"
	"ers/src/types"
	"fmt"
	"log"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func attachmentHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/equipment/:id/attachments", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var attachments []models.Attachment
			if err := db.GetDb().
				Where(&models.Attachment{EquipmentID: params.ID}).
				Order("created_at DESC").
				Find(&attachments).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": attachments, "count": len(attachments)})
		}).
		POST("/equipment/:id/attachments", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var count int64
			dbi := db.GetDb()
			if err := dbi.Model(&models.Equipment{}).Where("id = ?", params.ID).Count(&count).Error; err != nil || count == 0 {
				ctx.JSON(http.StatusNotFound, gin.H{"error": common.ErrEquipmentNotFound.Error()})
				return
			}
			file, err := ctx.FormFile("file")
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			src, err := file.Open()
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			defer src.Close()
			contentType := file.Header.Get("Content-Type")
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			key := fmt.Sprintf("equipment/%d/%s%s", params.ID, uuid.New().String(), path.Ext(file.Filename))
			url, err := awslib.S3UploadAttachment(key, src, contentType)
			if err != nil {
				log.Printf("Error uploading attachment: %s\n", err.Error())
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "upload failed"})
				return
			}
			attachment := models.Attachment{
				EquipmentID: params.ID,
				UploadedBy:  ctx.GetUint("id"),
				Name:        file.Filename,
				ObjectKey:   key,
				URL:         *url,
				ContentType: contentType,
				Size:        file.Size,
			}
			if err := dbi.Create(&attachment).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": attachment})
		}).
		DELETE("/attachments/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			dbi := db.GetDb()
			var attachment models.Attachment
			if err := dbi.
				Where(&models.Attachment{ID: params.ID}).
				First(&attachment).
				Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			userId := ctx.GetUint("id")
			role := types.UserRole(ctx.GetString("role"))
			if attachment.UploadedBy != userId && role != types.ROLE_ADMIN {
				ctx.JSON(http.StatusForbidden, gin.H{"error": common.ErrForbidden.Error()})
				return
			}
			if err := awslib.S3DeleteAttachment(attachment.ObjectKey); err != nil {
				log.Printf("Error deleting attachment object %s: %s\n", attachment.ObjectKey, err.Error())
			}
			if err := dbi.Unscoped().Delete(&attachment).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
