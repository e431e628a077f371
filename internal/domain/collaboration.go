package domain

import (
	"time"

	"github.com/google/uuid"
)

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusAccepted RequestStatus = "accepted"
	RequestStatusRejected RequestStatus = "rejected"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusAccepted, RequestStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusAccepted || s == RequestStatusRejected
}

type CollaborationRequest struct {
	ID          uuid.UUID     `json:"id"`
	ProjectID   uuid.UUID     `json:"projectId"`
	RequesterID uuid.UUID     `json:"requesterId"`
	Status      RequestStatus `json:"status"`
	Message     string        `json:"message"`
	RespondedAt *time.Time    `json:"respondedAt,omitempty"`
	RespondedBy *uuid.UUID    `json:"respondedBy,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	// Joined fields
	Requester *UserSummary    `json:"requester,omitempty"`
	Project   *ProjectSummary `json:"project,omitempty"`
}

// RequestResponse is the owner's decision on a pending request.
type RequestResponse struct {
	RequestID   uuid.UUID
	ProjectID   uuid.UUID
	RequesterID uuid.UUID
	ResponderID uuid.UUID
	Status      RequestStatus
	RespondedAt time.Time
}

type RequestFilter struct {
	OwnerID     *uuid.UUID
	RequesterID *uuid.UUID
	Status      RequestStatus
	Page        Page
}
