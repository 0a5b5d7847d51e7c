package websocket

import (
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/bookdaan/bookdaan_backend/database"
	"github.com/bookdaan/bookdaan_backend/models"
	"gorm.io/gorm"
)

// ChatMessagePayload represents the structure of a chat message payload
type ChatMessagePayload struct {
	ChatID uint   `json:"chat_id"`
	Text   string `json:"text"`
}

// SaveChatMessage validates and persists a message sent over the socket. The
// same rules apply as on the HTTP path: sender must be a participant and the
// chat must still be active.
func SaveChatMessage(userID uint, payload ChatMessagePayload) (models.ChatMessage, error) {
	var message models.ChatMessage

	text := strings.TrimSpace(payload.Text)
	if text == "" {
		return message, errors.New("message text is required")
	}

	unlock := database.Locks.Lock("chat", payload.ChatID)
	defer unlock()

	var chat models.Chat
	if err := database.DB.First(&chat, payload.ChatID).Error; err != nil {
		return message, errors.New("chat not found")
	}

	if !chat.HasParticipant(userID) {
		return message, errors.New("not a participant of this chat")
	}

	if !chat.Active || chat.Terminated {
		return message, errors.New("chat is terminated")
	}

	message = models.ChatMessage{
		ChatID:   payload.ChatID,
		SenderID: userID,
		Text:     text,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		return tx.Model(&chat).Update("updated_at", time.Now()).Error
	})
	return message, err
}

// HandleIncomingMessage processes an incoming WebSocket message
func HandleIncomingMessage(client *Client, messageBytes []byte) {
	var msg Message
	if err := json.Unmarshal(messageBytes, &msg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		return
	}

	switch msg.Type {
	case "join_chat":
		if chatIDStr, ok := msg.Payload.(string); ok {
			chatID := parseChatID(chatIDStr)

			// Only participants may subscribe to a chat channel
			var chat models.Chat
			if err := database.DB.First(&chat, chatID).Error; err != nil {
				sendErrorToClient(client, "Chat not found")
				return
			}
			if !chat.HasParticipant(client.userID) {
				log.Printf("User %d attempted to join chat %d without being a participant",
					client.userID, chatID)
				sendErrorToClient(client, "You are not a participant of this chat")
				return
			}

			client.joinChat(chatID)
		}
	case "leave_chat":
		if chatIDStr, ok := msg.Payload.(string); ok {
			client.leaveChat(parseChatID(chatIDStr))
		}
	case "message":
		// Extract message payload
		payloadBytes, err := json.Marshal(msg.Payload)
		if err != nil {
			log.Printf("Error marshaling payload: %v", err)
			return
		}

		var payload ChatMessagePayload
		if err := json.Unmarshal(payloadBytes, &payload); err != nil {
			log.Printf("Error unmarshaling message payload: %v", err)
			return
		}

		// Check if the client is subscribed to the chat
		if !client.inChat(payload.ChatID) {
			log.Printf("User %d attempted to send message to chat %d without joining",
				client.userID, payload.ChatID)
			return
		}

		// Save message to database
		savedMessage, err := SaveChatMessage(client.userID, payload)
		if err != nil {
			log.Printf("Error saving chat message: %v", err)
			sendErrorToClient(client, "Failed to send message")
			return
		}

		// Broadcast the saved message to the chat
		responseMsg := Message{
			Type:    "message",
			Payload: savedMessage,
		}

		responseBytes, err := json.Marshal(responseMsg)
		if err != nil {
			log.Printf("Error marshaling response message: %v", err)
			return
		}

		client.hub.broadcastToChat(payload.ChatID, responseBytes)
	}
}

// sendErrorToClient sends an error message to a single client
func sendErrorToClient(client *Client, errorMessage string) {
	msg := Message{
		Type:    "error",
		Payload: map[string]string{"message": errorMessage},
	}

	msgBytes, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling error message: %v", err)
		return
	}

	select {
	case client.send <- msgBytes:
	default:
		log.Printf("Failed to send error to client %d", client.userID)
	}
}
