package handlers

import (
	"log/slog"
	"net/http"

	"github.com/unicollab/unicollab/internal/service"
	"github.com/unicollab/unicollab/internal/transport/http/middleware"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
	log                 *slog.Logger
}

func NewNotificationHandler(notificationService *service.NotificationService, log *slog.Logger) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, log: log}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	resp, err := h.notificationService.List(r.Context(), userID, parseBool(r, "read"), parsePage(r))
	if err != nil {
		writeServiceError(w, r, h.log, "list notifications", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.notificationService.UnreadCount(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.log, "count unread", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"unreadCount": count})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	notificationID, ok := pathID(w, r, "id", "notification")
	if !ok {
		return
	}

	n, err := h.notificationService.MarkRead(r.Context(), notificationID, middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.log, "mark notification read", err)
		return
	}

	writeJSON(w, http.StatusOK, n)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	if _, err := h.notificationService.MarkAllRead(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		writeServiceError(w, r, h.log, "mark all notifications read", err)
		return
	}

	writeMessage(w, http.StatusOK, "All notifications marked as read")
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	notificationID, ok := pathID(w, r, "id", "notification")
	if !ok {
		return
	}

	if err := h.notificationService.Delete(r.Context(), notificationID, middleware.GetUserID(r.Context())); err != nil {
		writeServiceError(w, r, h.log, "delete notification", err)
		return
	}

	writeMessage(w, http.StatusOK, "Notification deleted")
}
