package models

import (
	"time"
)

// Notification types
const (
	NotifBookRequest  = "book-request"
	NotifBookWithdraw = "book-withdraw"
	NotifBookAccepted = "book-accepted"
	NotifBookRejected = "book-rejected"
	NotifChatStarted  = "chat-started"
)

// Notification is an entry in a user's in-app notification feed. Rows are
// append-only apart from the Seen flag; users may delete their own entries.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"` // recipient
	Type      string    `gorm:"size:30;not null" json:"type"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	BookID    uint      `gorm:"not null;index" json:"book_id"`
	Book      Book      `gorm:"foreignKey:BookID" json:"book,omitempty"`
	FromID    *uint     `json:"from_id,omitempty"`
	From      *User     `gorm:"foreignKey:FromID" json:"from,omitempty"`
	RequestID *uint     `json:"request_id,omitempty"` // set on book-request notifications
	ChatID    *uint     `json:"chat_id,omitempty"`    // set on book-accepted and chat-started
	Seen      bool      `gorm:"default:false;index" json:"seen"`
	CreatedAt time.Time `json:"created_at"`
}
