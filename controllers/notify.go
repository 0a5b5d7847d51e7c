package controllers

import (
	"log"

	"github.com/bookdaan/bookdaan_backend/database"
	"github.com/bookdaan/bookdaan_backend/models"
	"github.com/bookdaan/bookdaan_backend/websocket"
)

// pushNotification appends a notification to the recipient's feed and pushes
// it to their live sockets. Failures are logged, never surfaced to the caller:
// notification writes are best-effort side effects of the primary mutation.
func pushNotification(n models.Notification) {
	if err := database.DB.Create(&n).Error; err != nil {
		log.Printf("Error saving notification for user %d: %v", n.UserID, err)
		return
	}

	websocket.BroadcastToUser(n.UserID, "notification", n)
}

// notificationSweep describes a conditional "mark as seen" pass over one
// user's unseen notifications.
type notificationSweep struct {
	UserID uint
	Type   string
	BookID uint  // 0 matches any book
	FromID *uint // nil matches any sender
	ChatID *uint // nil matches any chat
}

// sweepNotificationsSeen marks matching unseen notifications as seen so badge
// counts stay consistent once the underlying action is resolved. Best-effort,
// log-and-continue.
func sweepNotificationsSeen(s notificationSweep) {
	q := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND type = ? AND seen = ?", s.UserID, s.Type, false)
	if s.BookID != 0 {
		q = q.Where("book_id = ?", s.BookID)
	}
	if s.FromID != nil {
		q = q.Where("from_id = ?", *s.FromID)
	}
	if s.ChatID != nil {
		q = q.Where("chat_id = ?", *s.ChatID)
	}
	if err := q.Update("seen", true).Error; err != nil {
		log.Printf("Error sweeping notifications for user %d: %v", s.UserID, err)
	}
}

func uintPtr(v uint) *uint {
	return &v
}
