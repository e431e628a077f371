package service

import (
	"github.com/google/uuid"
	"github.com/unicollab/unicollab/internal/domain"
)

// Notifier pushes real-time events to connected clients. Calls are
// best-effort and happen after the change is committed.
type Notifier interface {
	NotifyNotification(n *domain.Notification)
	// NotifyNotificationsRead reports read notifications; a nil id means all of them.
	NotifyNotificationsRead(recipientID uuid.UUID, id *uuid.UUID)
	NotifyMemberJoined(projectID uuid.UUID, member domain.UserSummary)
	NotifyMemberLeft(projectID uuid.UUID, member domain.UserSummary)
	NotifyRequestUpdated(req *domain.CollaborationRequest)
}

type nopNotifier struct{}

func (nopNotifier) NotifyNotification(*domain.Notification)           {}
func (nopNotifier) NotifyNotificationsRead(uuid.UUID, *uuid.UUID)     {}
func (nopNotifier) NotifyMemberJoined(uuid.UUID, domain.UserSummary)  {}
func (nopNotifier) NotifyMemberLeft(uuid.UUID, domain.UserSummary)    {}
func (nopNotifier) NotifyRequestUpdated(*domain.CollaborationRequest) {}
