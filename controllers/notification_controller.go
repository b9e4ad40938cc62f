package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harborpoint/homewatch-api/config"
	"github.com/harborpoint/homewatch-api/middleware"
	"github.com/harborpoint/homewatch-api/models"
)

// ListNotifications handles GET /api/v1/notifications - the caller's own
// in-app notifications, newest first. ?unread=true narrows to unread.
func ListNotifications(c *gin.Context) {
	user, ok := middleware.RequireConfirmedUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	query := db.Where("user_id = ?", user.ID).Order("created_at DESC").Limit(100)
	if c.Query("unread") == "true" {
		query = query.Where("read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch notifications")
		return
	}

	respondData(c, http.StatusOK, notifications)
}

// MarkNotificationRead handles PATCH /api/v1/notifications/:id/read.
// Marking an already-read notification again is a no-op, not an error.
func MarkNotificationRead(c *gin.Context) {
	user, ok := middleware.RequireConfirmedUser(c)
	if !ok {
		return
	}

	db := config.GetDB()

	var notification models.Notification
	if err := db.Where("user_id = ?", user.ID).First(&notification, c.Param("id")).Error; err != nil {
		respondError(c, http.StatusNotFound, "NOTIFICATION_NOT_FOUND", "Notification not found")
		return
	}

	if !notification.Read {
		now := time.Now().UTC()
		notification.Read = true
		notification.ReadAt = &now
		if err := db.Save(&notification).Error; err != nil {
			respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update notification")
			return
		}
	}

	respondData(c, http.StatusOK, notification)
}
