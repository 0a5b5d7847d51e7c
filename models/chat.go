package models

import (
	"time"
)

// Chat is a per-book conversation between the book owner and one requester.
// Participants are stored in normalized order (UserAID < UserBID) so the
// uniqueness constraint on (book, pair) holds regardless of who initiated.
type Chat struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	BookID         uint          `gorm:"not null;uniqueIndex:idx_chat_book_pair" json:"book_id"`
	Book           Book          `gorm:"foreignKey:BookID" json:"book,omitempty"`
	UserAID        uint          `gorm:"not null;uniqueIndex:idx_chat_book_pair" json:"user_a_id"`
	UserBID        uint          `gorm:"not null;uniqueIndex:idx_chat_book_pair" json:"user_b_id"`
	UserA          User          `gorm:"foreignKey:UserAID" json:"user_a,omitempty"`
	UserB          User          `gorm:"foreignKey:UserBID" json:"user_b,omitempty"`
	Messages       []ChatMessage `gorm:"foreignKey:ChatID" json:"messages,omitempty"`
	Active         bool          `gorm:"default:true" json:"active"`
	Terminated     bool          `gorm:"default:false" json:"terminated"`
	TerminatedByID *uint         `json:"terminated_by_id,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"` // bumped on every message, used for chat-list ordering
}

type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ChatID    uint      `gorm:"not null;index" json:"chat_id"`
	SenderID  uint      `gorm:"not null" json:"sender_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizePair orders two participant ids ascending.
func NormalizePair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

// HasParticipant reports whether the user is one of the two chat participants.
func (c *Chat) HasParticipant(userID uint) bool {
	return c.UserAID == userID || c.UserBID == userID
}

// OtherParticipant returns the participant that is not the given user.
func (c *Chat) OtherParticipant(userID uint) uint {
	if c.UserAID == userID {
		return c.UserBID
	}
	return c.UserAID
}
