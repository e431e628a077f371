package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeWait      = 10 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 4096
	sendBufSize    = 256
)

// Client represents a single WebSocket connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uuid.UUID
	log    *slog.Logger

	// projects tracks which projects this client listens to.
	projects map[uuid.UUID]struct{}
	mu       sync.RWMutex

	// send is owned by the hub, which closes it on disconnect.
	send chan []byte
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID, log *slog.Logger) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		userID:   userID,
		log:      log,
		projects: make(map[uuid.UUID]struct{}),
		send:     make(chan []byte, sendBufSize),
	}
}

func (c *Client) IsSubscribed(projectID uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.projects[projectID]
	return ok
}

func (c *Client) Subscribe(projectID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projects[projectID] = struct{}{}
}

func (c *Client) Unsubscribe(projectID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.projects, projectID)
}

// ReadPump reads client events until the connection fails or ctx ends.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	for {
		var event Event
		if err := wsjson.Read(ctx, c.conn, &event); err != nil {
			if websocket.CloseStatus(err) != -1 || ctx.Err() != nil {
				c.log.Debug("ws client closed", "user_id", c.userID)
			} else {
				c.log.Warn("ws read failed", "user_id", c.userID, "error", err)
			}
			return
		}
		c.handleEvent(ctx, &event)
	}
}

// WritePump writes queued events and keeps the connection alive with pings.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusGoingAway, "")
				return
			}
			if err := c.write(ctx, message); err != nil {
				c.log.Warn("ws write failed", "user_id", c.userID, "error", err)
				c.conn.Close(websocket.StatusInternalError, "")
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				c.log.Debug("ws ping failed", "user_id", c.userID, "error", err)
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, message []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return c.conn.Write(ctx, websocket.MessageText, message)
}

func (c *Client) handleEvent(ctx context.Context, event *Event) {
	switch event.Type {
	case EventTypeProjectSubscribe, EventTypeProjectUnsubscribe:
		var p ProjectPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil || p.ProjectID == uuid.Nil {
			c.reply(ctx, EventTypeError, ErrorPayload{Code: "INVALID_PAYLOAD", Message: "project_id required"})
			return
		}
		if event.Type == EventTypeProjectSubscribe {
			c.Subscribe(p.ProjectID)
		} else {
			c.Unsubscribe(p.ProjectID)
		}

	case EventTypePing:
		c.reply(ctx, EventTypePong, nil)

	default:
		c.reply(ctx, EventTypeError, ErrorPayload{Code: "UNKNOWN_EVENT", Message: "unknown event type: " + event.Type})
	}
}

// reply writes straight to the connection, which allows concurrent writers,
// so it never races with the hub closing send.
func (c *Client) reply(ctx context.Context, eventType string, payload any) {
	evt := &Event{Type: eventType, Timestamp: time.Now().Unix()}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return
		}
		evt.Payload = data
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	if err := c.write(ctx, data); err != nil {
		c.log.Debug("ws reply failed", "user_id", c.userID, "error", err)
	}
}
