package ws

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/unicollab/unicollab/internal/domain"
)

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub *Hub
	log *slog.Logger
}

func NewHubNotifier(hub *Hub, log *slog.Logger) *HubNotifier {
	return &HubNotifier{hub: hub, log: log}
}

func (n *HubNotifier) NotifyNotification(notice *domain.Notification) {
	evt, err := NewEvent(EventTypeNotificationNew, notice.RelatedProjectID, NotificationPayload{Notification: *notice})
	if err != nil {
		n.log.Error("ws notifier: marshal failed", "event", EventTypeNotificationNew, "error", err)
		return
	}
	n.hub.BroadcastToUser(notice.RecipientID, evt)
}

func (n *HubNotifier) NotifyNotificationsRead(recipientID uuid.UUID, id *uuid.UUID) {
	evt, err := NewEvent(EventTypeNotificationRead, nil, NotificationReadPayload{ID: id, All: id == nil})
	if err != nil {
		n.log.Error("ws notifier: marshal failed", "event", EventTypeNotificationRead, "error", err)
		return
	}
	n.hub.BroadcastToUser(recipientID, evt)
}

func (n *HubNotifier) NotifyMemberJoined(projectID uuid.UUID, member domain.UserSummary) {
	n.memberEvent(EventTypeMemberJoined, projectID, member)
}

func (n *HubNotifier) NotifyMemberLeft(projectID uuid.UUID, member domain.UserSummary) {
	n.memberEvent(EventTypeMemberLeft, projectID, member)
}

func (n *HubNotifier) memberEvent(eventType string, projectID uuid.UUID, member domain.UserSummary) {
	evt, err := NewEvent(eventType, &projectID, MemberPayload{ProjectID: projectID, Member: member})
	if err != nil {
		n.log.Error("ws notifier: marshal failed", "event", eventType, "error", err)
		return
	}
	n.hub.BroadcastToProject(projectID, evt)
}

func (n *HubNotifier) NotifyRequestUpdated(req *domain.CollaborationRequest) {
	evt, err := NewEvent(EventTypeRequestUpdated, &req.ProjectID, RequestPayload{CollaborationRequest: *req})
	if err != nil {
		n.log.Error("ws notifier: marshal failed", "event", EventTypeRequestUpdated, "error", err)
		return
	}
	n.hub.BroadcastToUser(req.RequesterID, evt)
}
