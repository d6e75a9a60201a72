package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

// MsgError is sent when a payload cannot be encoded
const MsgError MessageType = "error"

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans progress events out to the connections of one client id.
// A client may hold several connections (tabs); each gets every event.
type Hub struct {
	clients map[string]map[*Connection]struct{}

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	done       chan struct{}
	closeOnce  sync.Once

	logger *slog.Logger
}

// Connection represents a WebSocket connection
type Connection struct {
	ClientID string
	Send     chan []byte
	Hub      *Hub
}

// BroadcastMessage is a message for every connection of ClientID
type BroadcastMessage struct {
	ClientID string
	Message  *Message
}

// NewHub creates a new WebSocket hub and starts its loop
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		clients:    make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for id, conns := range h.clients {
				for conn := range conns {
					close(conn.Send)
				}
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.clients[conn.ClientID] == nil {
				h.clients[conn.ClientID] = make(map[*Connection]struct{})
			}
			h.clients[conn.ClientID][conn] = struct{}{}
			n := len(h.clients[conn.ClientID])
			h.mu.Unlock()
			h.logger.Info("ws.connected", "client_id", conn.ClientID, "connections", n)

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.clients[conn.ClientID]; ok {
				if _, ok := conns[conn]; ok {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.clients, conn.ClientID)
					}
					h.logger.Info("ws.disconnected", "client_id", conn.ClientID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				h.logger.Warn("ws.encode_failed", "client_id", msg.ClientID, "err", err)
				continue
			}
			h.mu.RLock()
			for conn := range h.clients[msg.ClientID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
					h.logger.Debug("ws.dropped", "client_id", msg.ClientID, "type", msg.Message.Type)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Connections returns the number of open connections for clientID
func (h *Hub) Connections(clientID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[clientID])
}

// SendToClient queues an event for clientID (implements service.Broadcaster).
// It never blocks; events are dropped when the queue is full or the hub is closed.
func (h *Hub) SendToClient(clientID string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("ws.encode_failed", "client_id", clientID, "type", msgType, "err", err)
		msgType = string(MsgError)
		data = json.RawMessage(`{"error":"unencodable payload"}`)
	}
	msg := &BroadcastMessage{
		ClientID: clientID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
	select {
	case <-h.done:
	case h.broadcast <- msg:
	default:
		h.logger.Warn("ws.queue_full", "client_id", clientID, "type", msgType)
	}
}

// Close stops the hub loop and closes every connection's send channel
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}
