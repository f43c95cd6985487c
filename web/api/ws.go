package api

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/cutdesk/cutdesk/internal/notify"
)

// Event is a message pushed to websocket clients
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// TaskEvent is the payload of a task lifecycle event
type TaskEvent struct {
	Kind      string `json:"kind"`
	TaskID    string `json:"task_id"`
	TaskTitle string `json:"task_title"`
	Recipient string `json:"recipient,omitempty"`
	Message   string `json:"message"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API serves same-machine tooling; cross-origin pages are fine.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans events out to connected websocket clients. It also implements
// notify.Notifier, so it can sit in the dispatcher's fan-out next to Slack
// and the persisted bell.
type Hub struct {
	clients    map[chan Event]bool
	broadcast  chan Event
	register   chan chan Event
	unregister chan chan Event
	mu         sync.RWMutex
}

// NewHub creates a websocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[chan Event]bool),
		broadcast:  make(chan Event, 16),
		register:   make(chan chan Event),
		unregister: make(chan chan Event),
	}
}

// Run starts the hub loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client <- event:
				default:
					// Slow consumer; drop it rather than stall the hub.
					close(client)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues an event for all clients
func (h *Hub) Broadcast(event Event) {
	h.broadcast <- event
}

// Send implements notify.Notifier
func (h *Hub) Send(n notify.Notification) error {
	h.Broadcast(Event{
		Type: "task_event",
		Data: TaskEvent{
			Kind:      string(n.Kind),
			TaskID:    n.TaskID,
			TaskTitle: n.TaskTitle,
			Recipient: n.RecipientID,
			Message:   notify.Subject(n),
		},
	})
	return nil
}

func (s *Server) wsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("api: websocket upgrade failed: %v", err)
			return
		}

		client := make(chan Event, 16)
		s.hub.register <- client

		// Reader: we never expect inbound messages, but reading is how the
		// close frame is noticed.
		go func() {
			defer func() { s.hub.unregister <- client }()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		go func() {
			defer conn.Close()
			for event := range client {
				if err := conn.WriteJSON(event); err != nil {
					return
				}
			}
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		}()
	}
}
