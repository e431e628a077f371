package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationCollaborationRequest NotificationType = "collaboration_request"
	NotificationProjectUpdate        NotificationType = "project_update"
	NotificationMemberJoined         NotificationType = "member_joined"
	NotificationMemberLeft           NotificationType = "member_left"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationCollaborationRequest, NotificationProjectUpdate, NotificationMemberJoined, NotificationMemberLeft:
		return true
	}
	return false
}

type Notification struct {
	ID               uuid.UUID        `json:"id"`
	RecipientID      uuid.UUID        `json:"recipientId"`
	SenderID         *uuid.UUID       `json:"senderId,omitempty"`
	Type             NotificationType `json:"type"`
	Title            string           `json:"title"`
	Message          string           `json:"message"`
	RelatedProjectID *uuid.UUID       `json:"relatedProjectId,omitempty"`
	RelatedRequestID *uuid.UUID       `json:"relatedRequestId,omitempty"`
	Read             bool             `json:"read"`
	ActionURL        *string          `json:"actionUrl,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	// Joined fields
	Sender         *UserSummary    `json:"sender,omitempty"`
	RelatedProject *ProjectSummary `json:"relatedProject,omitempty"`
}

type NotificationFilter struct {
	RecipientID uuid.UUID
	Read        *bool
	Page        Page
}
