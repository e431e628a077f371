package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
)

// Hub manages all active WebSocket clients and routes messages. All access
// to the client set happens on the Run goroutine.
type Hub struct {
	// clients maps userID → that user's open connections.
	clients map[uuid.UUID]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMsg
	done       chan struct{}

	log *slog.Logger
}

// broadcastMsg targets either a single user or the subscribers of a project.
type broadcastMsg struct {
	userID    *uuid.UUID
	projectID *uuid.UUID
	data      []byte
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMsg, 256),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run starts the Hub's main event loop and blocks until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, conns := range h.clients {
				for client := range conns {
					h.drop(client)
				}
			}
			return

		case client := <-h.register:
			conns, ok := h.clients[client.userID]
			if !ok {
				conns = make(map[*Client]struct{})
				h.clients[client.userID] = conns
			}
			conns[client] = struct{}{}
			h.log.Debug("ws client connected", "user_id", client.userID, "connections", len(conns))

		case client := <-h.unregister:
			if _, ok := h.clients[client.userID][client]; ok {
				h.drop(client)
				h.log.Debug("ws client disconnected", "user_id", client.userID)
			}

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg *broadcastMsg) {
	if msg.userID != nil {
		for client := range h.clients[*msg.userID] {
			h.send(client, msg.data)
		}
		return
	}
	for _, conns := range h.clients {
		for client := range conns {
			if client.IsSubscribed(*msg.projectID) {
				h.send(client, msg.data)
			}
		}
	}
}

// send drops a client whose buffer is full.
func (h *Hub) send(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		h.log.Warn("ws client too slow, disconnecting", "user_id", client.userID)
		h.drop(client)
	}
}

func (h *Hub) drop(client *Client) {
	conns := h.clients[client.userID]
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(h.clients, client.userID)
	}
	close(client.send)
}

// Register adds a client. It returns false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// BroadcastToProject sends an event to every subscriber of a project.
func (h *Hub) BroadcastToProject(projectID uuid.UUID, event *Event) {
	h.enqueue(&broadcastMsg{projectID: &projectID}, event)
}

// BroadcastToUser sends an event to every connection of a user.
func (h *Hub) BroadcastToUser(userID uuid.UUID, event *Event) {
	h.enqueue(&broadcastMsg{userID: &userID}, event)
}

func (h *Hub) enqueue(msg *broadcastMsg, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("ws event marshal failed", "type", event.Type, "error", err)
		return
	}
	msg.data = data
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}
