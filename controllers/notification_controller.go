package controllers

import (
	"fmt"
	"net/http"

	"github.com/bookdaan/bookdaan_backend/database"
	"github.com/bookdaan/bookdaan_backend/models"
	"github.com/gin-gonic/gin"
)

// GetNotifications godoc
// @Summary Get all notifications for the authenticated user
// @Description Returns the caller's notification feed, newest first
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "List of notifications"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/notifications [get]
func GetNotifications(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	var notifications []models.Notification
	if err := database.DB.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Preload("Book").
		Preload("From").
		Find(&notifications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// MarkNotificationSeen godoc
// @Summary Mark a notification as seen
// @Description Marks one of the caller's notifications as seen; repeated calls
// @Description are a no-op
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} map[string]string "Marked as seen"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Notification not found"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/notifications/{id}/seen [patch]
func MarkNotificationSeen(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	notificationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var notification models.Notification
	if err := database.DB.
		Where("id = ? AND user_id = ?", notificationID, userID).
		First(&notification).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}

	if !notification.Seen {
		if err := database.DB.Model(&notification).Update("seen", true).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Marked as seen"})
}

// DeleteNotification godoc
// @Summary Delete a notification
// @Description Removes one of the caller's notifications
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} map[string]string "Notification removed"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Notification not found"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/notifications/{id} [delete]
func DeleteNotification(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	notificationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result := database.DB.
		Where("id = ? AND user_id = ?", notificationID, userID).
		Delete(&models.Notification{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete notification"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification removed"})
}

// ClearSeenNotifications godoc
// @Summary Delete all seen notifications
// @Description Removes every notification the caller has already seen and
// @Description reports how many were deleted
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Deletion summary"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/notifications/clear/seen [delete]
func ClearSeenNotifications(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	result := database.DB.
		Where("user_id = ? AND seen = ?", userID, true).
		Delete(&models.Notification{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear seen notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Deleted %d seen notifications", result.RowsAffected),
		"deleted": result.RowsAffected,
	})
}
