package websocket

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub maintains the set of active clients and fans out chat messages and
// notifications to them
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Chat subscriptions (chatID -> clients)
	chats map[uint]map[*Client]bool

	// Connected clients per user (userID -> clients)
	users map[uint]map[*Client]bool

	// Mutex for the subscription maps
	mu sync.RWMutex

	// Inbound messages from the clients
	broadcast chan []byte

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client
}

// NewHub creates a new hub instance
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		chats:      make(map[uint]map[*Client]bool),
		users:      make(map[uint]map[*Client]bool),
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			if _, ok := h.users[client.userID]; !ok {
				h.users[client.userID] = make(map[*Client]bool)
			}
			h.users[client.userID][client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)

				if clients, ok := h.users[client.userID]; ok {
					delete(clients, client)
					if len(clients) == 0 {
						delete(h.users, client.userID)
					}
				}

				// Remove client from all chats
				for chatID, clients := range h.chats {
					if _, ok := clients[client]; ok {
						delete(h.chats[chatID], client)
						// Clean up empty chat channels
						if len(h.chats[chatID]) == 0 {
							delete(h.chats, chatID)
						}
					}
				}
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			// Parse the message to determine which chat to broadcast to
			var msg Message
			if err := json.Unmarshal(message, &msg); err != nil {
				log.Printf("error unmarshaling broadcast message: %v", err)
				continue
			}

			if msg.Type == "message" {
				var payload struct {
					ChatID uint `json:"chat_id"`
				}

				payloadBytes, err := json.Marshal(msg.Payload)
				if err != nil {
					log.Printf("error marshaling payload: %v", err)
					continue
				}

				if err := json.Unmarshal(payloadBytes, &payload); err != nil {
					log.Printf("error unmarshaling payload: %v", err)
					continue
				}

				h.broadcastToChat(payload.ChatID, message)
			}
		}
	}
}

// joinChat subscribes a client to a chat channel
func (h *Hub) joinChat(client *Client, chatID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.chats[chatID]; !ok {
		h.chats[chatID] = make(map[*Client]bool)
	}
	h.chats[chatID][client] = true
}

// leaveChat unsubscribes a client from a chat channel
func (h *Hub) leaveChat(client *Client, chatID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.chats[chatID]; ok {
		delete(h.chats[chatID], client)
		if len(h.chats[chatID]) == 0 {
			delete(h.chats, chatID)
		}
	}
}

// broadcastToChat sends a message to all clients subscribed to a chat
func (h *Hub) broadcastToChat(chatID uint, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.chats[chatID]; ok {
		for client := range clients {
			select {
			case client.send <- message:
			default:
				close(client.send)
				delete(clients, client)
				delete(h.clients, client)
			}
		}
	}
}

// broadcastToUser sends a message to every connection of one user
func (h *Hub) broadcastToUser(userID uint, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.users[userID]; ok {
		for client := range clients {
			select {
			case client.send <- message:
			default:
				close(client.send)
				delete(clients, client)
				delete(h.clients, client)
			}
		}
	}
}

// BroadcastToChat sends a typed payload to all clients subscribed to a chat.
// Delivery is at-most-once: clients that cannot keep up are dropped.
func BroadcastToChat(chatID uint, msgType string, payload interface{}) {
	msg := Message{
		Type:    msgType,
		Payload: payload,
	}

	msgBytes, err := json.Marshal(msg)
	if err != nil {
		log.Printf("error marshaling message: %v", err)
		return
	}

	hub.broadcastToChat(chatID, msgBytes)
}

// BroadcastToUser sends a typed payload to every live connection of a user.
// Used to push notifications to users who are currently online.
func BroadcastToUser(userID uint, msgType string, payload interface{}) {
	msg := Message{
		Type:    msgType,
		Payload: payload,
	}

	msgBytes, err := json.Marshal(msg)
	if err != nil {
		log.Printf("error marshaling message: %v", err)
		return
	}

	hub.broadcastToUser(userID, msgBytes)
}

// Global hub instance
var hub *Hub

// InitHub initializes the global hub
func InitHub() {
	hub = NewHub()
	go hub.Run()
}
