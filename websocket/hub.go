package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client is one live socket. Each user holds at most one; a new connection
// replaces the previous one.
type Client struct {
	Hub  *Hub
	ID   uint
	Role string
	Conn *websocket.Conn
	Send chan []byte
}

// Message is the envelope for everything pushed over a socket.
type Message struct {
	Type      string      `json:"type"`
	Title     string      `json:"title,omitempty"`
	Body      string      `json:"body,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// MessageHandler handles an inbound message type.
type MessageHandler func(*Client, *Message) error

// Hub tracks the connected users.
type Hub struct {
	Clients map[uint]*Client

	Register   chan *Client
	Unregister chan *Client

	MessageHandlers map[string]MessageHandler

	// OnHeartbeat is called for "heartbeat" messages, if set.
	OnHeartbeat func(userID uint)

	stopChan chan struct{}
	stopOnce sync.Once
	mu       sync.RWMutex
}

func NewHub() *Hub {
	hub := &Hub{
		Clients:         make(map[uint]*Client),
		Register:        make(chan *Client),
		Unregister:      make(chan *Client),
		MessageHandlers: make(map[string]MessageHandler),
		stopChan:        make(chan struct{}),
	}
	hub.MessageHandlers["ping"] = hub.handlePing
	hub.MessageHandlers["heartbeat"] = hub.handleHeartbeat
	return hub
}

// Run serves register and unregister requests until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if old, ok := h.Clients[client.ID]; ok && old != client {
				close(old.Send)
			}
			h.Clients[client.ID] = client
			h.mu.Unlock()
			log.Printf("🔌 Client registered: user=%d role=%s", client.ID, client.Role)

		case client := <-h.Unregister:
			h.mu.Lock()
			if current, ok := h.Clients[client.ID]; ok && current == client {
				delete(h.Clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()
			log.Printf("🔌 Client unregistered: user=%d", client.ID)

		case <-h.stopChan:
			h.mu.Lock()
			for id, client := range h.Clients {
				close(client.Send)
				delete(h.Clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop ends Run. It is safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stopChan) })
}

// SendToUser queues message for the user's socket and reports whether it
// was handed over. A full buffer counts as not delivered.
func (h *Hub) SendToUser(userID uint, message *Message) bool {
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now()
	}
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("❌ Error marshaling message: %v", err)
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.Clients[userID]
	if !ok {
		return false
	}
	select {
	case client.Send <- data:
		return true
	default:
		log.Printf("⚠️ User %d's send buffer is full", userID)
		return false
	}
}

func (h *Hub) IsUserConnected(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.Clients[userID]
	return ok
}

func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.Clients)
}

func (h *Hub) handlePing(client *Client, _ *Message) error {
	if !h.SendToUser(client.ID, &Message{Type: "pong"}) {
		return ErrClientBufferFull
	}
	return nil
}

func (h *Hub) handleHeartbeat(client *Client, _ *Message) error {
	if h.OnHeartbeat != nil {
		h.OnHeartbeat(client.ID)
	}
	return nil
}
