package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/unicollab/unicollab/internal/domain"
)

// Event types - Client → Server
const (
	EventTypeProjectSubscribe   = "project.subscribe"
	EventTypeProjectUnsubscribe = "project.unsubscribe"
	EventTypePing               = "ping"
)

// Event types - Server → Client
const (
	EventTypeNotificationNew  = "notification.new"
	EventTypeNotificationRead = "notification.read"
	EventTypeMemberJoined     = "project.member_joined"
	EventTypeMemberLeft       = "project.member_left"
	EventTypeRequestUpdated   = "request.updated"
	EventTypePong             = "pong"
	EventTypeError            = "error"
)

// Event is the base envelope for all WebSocket messages.
type Event struct {
	Type      string          `json:"type"`
	ProjectID *uuid.UUID      `json:"project_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// --- Client → Server payloads ---

type ProjectPayload struct {
	ProjectID uuid.UUID `json:"project_id"`
}

// --- Server → Client payloads ---

type NotificationPayload struct {
	domain.Notification
}

// NotificationReadPayload carries a single id, or All when every
// notification of the recipient was marked read.
type NotificationReadPayload struct {
	ID  *uuid.UUID `json:"id,omitempty"`
	All bool       `json:"all"`
}

type MemberPayload struct {
	ProjectID uuid.UUID          `json:"project_id"`
	Member    domain.UserSummary `json:"member"`
}

type RequestPayload struct {
	domain.CollaborationRequest
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, projectID *uuid.UUID, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		ProjectID: projectID,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}
