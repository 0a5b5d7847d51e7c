package models

import (
	"time"
)

// Book statuses
const (
	BookAvailable = "Available"
	BookRequested = "Requested"
	BookDonated   = "Donated"
)

// Request statuses
const (
	RequestPending   = "Pending"
	RequestAccepted  = "Accepted"
	RequestRejected  = "Rejected"
	RequestWithdrawn = "Withdrawn"
)

type Book struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Title        string `gorm:"size:255;not null" json:"title"`
	Author       string `gorm:"size:255" json:"author,omitempty"`
	Subject      string `gorm:"size:255" json:"subject,omitempty"`
	ClassLevel   string `gorm:"size:100" json:"class_level,omitempty"`
	Location     string `gorm:"size:255" json:"location,omitempty"`
	Contact      string `gorm:"size:255" json:"contact,omitempty"`
	Cover        string `gorm:"size:512" json:"cover,omitempty"`
	ISBN         string `gorm:"size:20" json:"isbn,omitempty"`
	Genre        string `gorm:"size:100" json:"genre,omitempty"`
	BookLanguage string `gorm:"size:100" json:"book_language,omitempty"`
	Condition    string `gorm:"size:20;default:'Good'" json:"condition"` // New, Good, Acceptable

	Status string `gorm:"size:20;default:'Available';index" json:"status"` // Available, Requested, Donated

	OwnerID uint `gorm:"not null;index" json:"owner_id"`
	Owner   User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`

	Requests []BookRequest `gorm:"foreignKey:BookID" json:"requests,omitempty"`

	AcceptedRequestID *uint `json:"accepted_request_id,omitempty"` // user id of the accepted requester
	DonatedToID       *uint `json:"donated_to_id,omitempty"`
	DonatedTo         *User `gorm:"foreignKey:DonatedToID" json:"donated_to,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BookRequest is owned by its Book: it is only ever created and mutated
// inside the transaction that saves the parent book.
type BookRequest struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BookID    uint      `gorm:"not null;index" json:"book_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status    string    `gorm:"size:20;default:'Pending'" json:"status"` // Pending, Accepted, Rejected, Withdrawn
	CreatedAt time.Time `json:"requested_at"`
}

// HasActiveRequests reports whether any request is still Pending or Accepted.
func (b *Book) HasActiveRequests() bool {
	for _, r := range b.Requests {
		if r.Status == RequestPending || r.Status == RequestAccepted {
			return true
		}
	}
	return false
}

// PendingRequestBy returns the pending request made by the given user, if any.
func (b *Book) PendingRequestBy(userID uint) *BookRequest {
	for i := range b.Requests {
		if b.Requests[i].UserID == userID && b.Requests[i].Status == RequestPending {
			return &b.Requests[i]
		}
	}
	return nil
}
