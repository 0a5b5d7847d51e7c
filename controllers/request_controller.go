package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/bookdaan/bookdaan_backend/database"
	"github.com/bookdaan/bookdaan_backend/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// loadBookForUpdate fetches a book with its requests. The caller must hold
// the book lock.
func loadBookForUpdate(bookID uint) (*models.Book, error) {
	var book models.Book
	if err := database.DB.Preload("Requests").First(&book, bookID).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// respondWithBook reloads the book with all relationships for the response.
func respondWithBook(c *gin.Context, message string, bookID uint) {
	var book models.Book
	database.DB.
		Preload("Owner").
		Preload("Requests.User").
		Preload("DonatedTo").
		First(&book, bookID)

	c.JSON(http.StatusOK, gin.H{"message": message, "book": book})
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// RequestBook godoc
// @Summary Request a book
// @Description Places a pending donation request on an available book
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} map[string]interface{} "Book requested"
// @Failure 400 {object} map[string]string "Already donated, already requested or active chat exists"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Book not found"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/books/{id}/request [post]
func RequestBook(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	unlock := database.Locks.Lock("book", bookID)
	defer unlock()

	book, err := loadBookForUpdate(bookID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return
	}

	if book.OwnerID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot request your own book"})
		return
	}

	if book.Status == models.BookDonated {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Book already donated"})
		return
	}

	// An open chat between requester and owner means a previous request cycle
	// is still live; it must be closed before re-requesting.
	userA, userB := models.NormalizePair(userID, book.OwnerID)
	var activeChat models.Chat
	if err := database.DB.
		Where("book_id = ? AND user_a_id = ? AND user_b_id = ? AND active = ? AND terminated = ?",
			bookID, userA, userB, true, false).
		First(&activeChat).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "You already have an active chat for this book. Please terminate the chat to re-request.",
		})
		return
	}

	if book.PendingRequestBy(userID) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Already requested"})
		return
	}

	request := models.BookRequest{
		BookID: bookID,
		UserID: userID,
		Status: models.RequestPending,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&request).Error; err != nil {
			return err
		}
		return tx.Model(book).Update("status", models.BookRequested).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Request failed"})
		return
	}

	var requester models.User
	if err := database.DB.First(&requester, userID).Error; err == nil {
		pushNotification(models.Notification{
			UserID:    book.OwnerID,
			Type:      models.NotifBookRequest,
			Message:   fmt.Sprintf("%s has requested your book: %q", requester.Name, book.Title),
			BookID:    bookID,
			FromID:    uintPtr(userID),
			RequestID: uintPtr(request.ID),
		})
	}

	respondWithBook(c, "Book requested", bookID)
}

// WithdrawRequest godoc
// @Summary Withdraw a book request
// @Description Withdraws the caller's pending request on a book
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} map[string]interface{} "Request withdrawn"
// @Failure 400 {object} map[string]string "No active request found"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Book not found"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/books/{id}/withdraw [post]
func WithdrawRequest(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	unlock := database.Locks.Lock("book", bookID)
	defer unlock()

	book, err := loadBookForUpdate(bookID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return
	}

	request := book.PendingRequestBy(userID)
	if request == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No active request found"})
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		request.Status = models.RequestWithdrawn
		if err := tx.Save(request).Error; err != nil {
			return err
		}

		if !book.HasActiveRequests() {
			return tx.Model(book).Updates(map[string]interface{}{
				"status":              models.BookAvailable,
				"accepted_request_id": nil,
			}).Error
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Withdraw failed"})
		return
	}

	var requester models.User
	if err := database.DB.First(&requester, userID).Error; err == nil {
		pushNotification(models.Notification{
			UserID:  book.OwnerID,
			Type:    models.NotifBookWithdraw,
			Message: fmt.Sprintf("%s has withdrawn their request for %q", requester.Name, book.Title),
			BookID:  bookID,
			FromID:  uintPtr(userID),
		})
	}

	respondWithBook(c, "Request withdrawn", bookID)
}

// AcceptRequest godoc
// @Summary Accept a book request
// @Description Accepts one pending request; every other pending request on the
// @Description book is rejected in the same operation and a chat is opened with
// @Description the accepted requester
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param requestId path int true "Request ID"
// @Success 200 {object} map[string]interface{} "Request accepted and chat started"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Caller is not the book owner"
// @Failure 404 {object} map[string]string "Request not found or already processed"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/books/{id}/accept/{requestId} [post]
func AcceptRequest(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	requestID, ok := parseIDParam(c, "requestId")
	if !ok {
		return
	}

	unlock := database.Locks.Lock("book", bookID)
	defer unlock()

	book, err := loadBookForUpdate(bookID)
	if err != nil || book.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
		return
	}

	var accepted *models.BookRequest
	for i := range book.Requests {
		if book.Requests[i].ID == requestID {
			accepted = &book.Requests[i]
			break
		}
	}
	if accepted == nil || accepted.Status != models.RequestPending {
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found or already processed"})
		return
	}

	winnerID := accepted.UserID
	var loserIDs []uint
	for _, r := range book.Requests {
		if r.Status == models.RequestPending && r.ID != requestID {
			loserIDs = append(loserIDs, r.UserID)
		}
	}

	// The accept and the batch rejection of every other pending request
	// commit together; no partial state is observable.
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.BookRequest{}).
			Where("book_id = ? AND status = ? AND id <> ?", bookID, models.RequestPending, requestID).
			Update("status", models.RequestRejected).Error; err != nil {
			return err
		}
		if err := tx.Model(accepted).Update("status", models.RequestAccepted).Error; err != nil {
			return err
		}
		return tx.Model(book).Updates(map[string]interface{}{
			"accepted_request_id": winnerID,
			"status":              models.BookRequested,
		}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Accept failed"})
		return
	}

	chat, _, err := initOrReactivateChat(bookID, userID, winnerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start chat"})
		return
	}

	var winner models.User
	if err := database.DB.First(&winner, winnerID).Error; err == nil {
		pushNotification(models.Notification{
			UserID:  winnerID,
			Type:    models.NotifBookAccepted,
			Message: fmt.Sprintf("Your request for %q was accepted!", book.Title),
			BookID:  bookID,
			FromID:  uintPtr(userID),
			ChatID:  uintPtr(chat.ID),
		})

		pushNotification(models.Notification{
			UserID:  userID,
			Type:    models.NotifChatStarted,
			Message: fmt.Sprintf("You can now chat with %s about %q.", winner.Name, book.Title),
			BookID:  bookID,
			FromID:  uintPtr(winnerID),
			ChatID:  uintPtr(chat.ID),
		})
	}

	for _, loserID := range loserIDs {
		pushNotification(models.Notification{
			UserID:  loserID,
			Type:    models.NotifBookRejected,
			Message: fmt.Sprintf("Your request for %q was rejected.", book.Title),
			BookID:  bookID,
			FromID:  uintPtr(userID),
		})
		sweepNotificationsSeen(notificationSweep{
			UserID: loserID,
			Type:   models.NotifBookRequest,
			BookID: bookID,
		})
	}

	respondWithBook(c, "Request accepted and chat started", bookID)
}

// RejectRequest godoc
// @Summary Reject a book request
// @Description Rejects the pending request from the given user and closes any
// @Description active chat between owner and requester for this book
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param userId path int true "Requester user ID"
// @Success 200 {object} map[string]interface{} "Request rejected"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Caller is not the book owner"
// @Failure 404 {object} map[string]string "Request not found"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/books/{id}/reject/{userId} [post]
func RejectRequest(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	targetID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}

	unlock := database.Locks.Lock("book", bookID)
	defer unlock()

	book, err := loadBookForUpdate(bookID)
	if err != nil || book.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
		return
	}

	request := book.PendingRequestBy(targetID)
	if request == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		request.Status = models.RequestRejected
		if err := tx.Save(request).Error; err != nil {
			return err
		}

		if !book.HasActiveRequests() {
			return tx.Model(book).Updates(map[string]interface{}{
				"status":              models.BookAvailable,
				"accepted_request_id": nil,
			}).Error
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Reject failed"})
		return
	}

	// The rejection lands pre-acknowledged: the requester learns the outcome
	// from the book page, not from an unread badge.
	pushNotification(models.Notification{
		UserID:  targetID,
		Type:    models.NotifBookRejected,
		Message: fmt.Sprintf("Your request for %q was rejected.", book.Title),
		BookID:  bookID,
		FromID:  uintPtr(userID),
		Seen:    true,
	})

	sweepNotificationsSeen(notificationSweep{
		UserID: userID,
		Type:   models.NotifBookRequest,
		BookID: bookID,
		FromID: uintPtr(targetID),
	})

	userA, userB := models.NormalizePair(userID, targetID)
	if err := database.DB.Model(&models.Chat{}).
		Where("book_id = ? AND user_a_id = ? AND user_b_id = ? AND active = ?", bookID, userA, userB, true).
		Update("active", false).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Reject failed"})
		return
	}

	respondWithBook(c, "Request rejected", bookID)
}

// MarkDonated godoc
// @Summary Mark a book as donated
// @Description Hands the book to the accepted requester and closes every
// @Description active chat for the book
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} map[string]interface{} "Book marked as donated"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Caller is not the owner or no accepted request"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/books/{id}/mark-donated [post]
func MarkDonated(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	unlock := database.Locks.Lock("book", bookID)
	defer unlock()

	book, err := loadBookForUpdate(bookID)
	if err != nil || book.OwnerID != userID || book.AcceptedRequestID == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized or no accepted request"})
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(book).Updates(map[string]interface{}{
			"donated_to_id": *book.AcceptedRequestID,
			"status":        models.BookDonated,
		}).Error; err != nil {
			return err
		}

		// Every chat about this book closes, not just the accepted pair's.
		return tx.Model(&models.Chat{}).
			Where("book_id = ? AND active = ?", bookID, true).
			Update("active", false).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Marking donated failed"})
		return
	}

	respondWithBook(c, "Book marked as donated", bookID)
}
