package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/bookdaan/bookdaan_backend/database"
	"github.com/bookdaan/bookdaan_backend/models"
	"github.com/bookdaan/bookdaan_backend/websocket"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type InitChatInput struct {
	BookID uint `json:"book_id" binding:"required" example:"1"`
	UserID uint `json:"user_id" binding:"required" example:"2"`
}

type SendMessageInput struct {
	Text string `json:"text" binding:"required" example:"Hi, is the book still available?"`
}

// initOrReactivateChat returns the single chat row for (book, pair), bringing
// it back to life if a previous cycle deactivated it, or creating it on first
// accept. The caller must hold the book lock. The reported bool is true when
// a new chat was created.
func initOrReactivateChat(bookID, userA, userB uint) (*models.Chat, bool, error) {
	a, b := models.NormalizePair(userA, userB)

	var chat models.Chat
	err := database.DB.
		Where("book_id = ? AND user_a_id = ? AND user_b_id = ?", bookID, a, b).
		First(&chat).Error

	if err == nil {
		if chat.Active {
			return &chat, false, nil
		}
		updates := map[string]interface{}{
			"active":           true,
			"terminated":       false,
			"terminated_by_id": nil,
		}
		if err := database.DB.Model(&chat).Updates(updates).Error; err != nil {
			return nil, false, err
		}
		chat.Active = true
		chat.Terminated = false
		chat.TerminatedByID = nil
		return &chat, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, err
	}

	chat = models.Chat{
		BookID:  bookID,
		UserAID: a,
		UserBID: b,
		Active:  true,
	}
	if err := database.DB.Create(&chat).Error; err != nil {
		return nil, false, err
	}
	return &chat, true, nil
}

// InitChat godoc
// @Summary Create or reactivate a chat session
// @Description Idempotently opens the chat between the caller and the given
// @Description user for a book
// @Tags chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param chat body InitChatInput true "Chat target"
// @Success 200 {object} models.Chat "Existing or reactivated chat"
// @Success 201 {object} models.Chat "New chat"
// @Failure 400 {object} map[string]string "Invalid input or self chat"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/chats/init [post]
func InitChat(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	var input InitChatInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.UserID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot chat with yourself"})
		return
	}

	unlock := database.Locks.Lock("book", input.BookID)
	defer unlock()

	chat, created, err := initOrReactivateChat(input.BookID, userID, input.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create or fetch chat"})
		return
	}

	if created {
		c.JSON(http.StatusCreated, chat)
	} else {
		c.JSON(http.StatusOK, chat)
	}
}

// GetChats godoc
// @Summary List the caller's chats
// @Description Returns all chats the caller participates in, most recently
// @Description active first
// @Tags chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "List of chats"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/chats [get]
func GetChats(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	var chats []models.Chat
	if err := database.DB.
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("updated_at DESC").
		Preload("Book").
		Preload("UserA").
		Preload("UserB").
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("chat_messages.created_at ASC")
		}).
		Find(&chats).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch chats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// SendMessage godoc
// @Summary Send a chat message
// @Description Appends a message to an active chat and broadcasts it to
// @Description subscribed websocket clients
// @Tags chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Chat ID"
// @Param message body SendMessageInput true "Message"
// @Success 200 {object} models.Chat "Updated chat"
// @Failure 400 {object} map[string]string "Empty text or chat terminated"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Not a participant"
// @Failure 404 {object} map[string]string "Chat not found"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/chats/{id}/message [post]
func SendMessage(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	chatID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil || strings.TrimSpace(input.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message text is required"})
		return
	}

	unlock := database.Locks.Lock("chat", chatID)
	defer unlock()

	var chat models.Chat
	if err := database.DB.First(&chat, chatID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
		return
	}

	if !chat.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
		return
	}

	if !chat.Active || chat.Terminated {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Chat is terminated. Cannot send messages."})
		return
	}

	message := models.ChatMessage{
		ChatID:   chatID,
		SenderID: userID,
		Text:     strings.TrimSpace(input.Text),
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		// Bump last activity so the chat list sorts by recency.
		return tx.Model(&chat).Update("updated_at", time.Now()).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	websocket.BroadcastToChat(chatID, "message", message)

	database.DB.
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("chat_messages.created_at ASC")
		}).
		First(&chat, chatID)
	c.JSON(http.StatusOK, chat)
}

// CloseChat godoc
// @Summary Terminate a chat
// @Description Permanently closes a chat until a new accepted request
// @Description reactivates it
// @Tags chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Chat ID"
// @Success 200 {object} map[string]string "Chat terminated successfully"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Not a participant"
// @Failure 404 {object} map[string]string "Chat not found"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/chats/{id}/close [post]
func CloseChat(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	chatID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	unlock := database.Locks.Lock("chat", chatID)
	defer unlock()

	var chat models.Chat
	if err := database.DB.First(&chat, chatID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
		return
	}

	if !chat.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
		return
	}

	if err := database.DB.Model(&chat).Updates(map[string]interface{}{
		"active":           false,
		"terminated":       true,
		"terminated_by_id": userID,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to terminate chat"})
		return
	}

	for _, participantID := range []uint{chat.UserAID, chat.UserBID} {
		sweepNotificationsSeen(notificationSweep{
			UserID: participantID,
			Type:   models.NotifChatStarted,
			ChatID: uintPtr(chat.ID),
		})
	}

	c.JSON(http.StatusOK, gin.H{"message": "Chat terminated successfully"})
}
