package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/unicollab/unicollab/internal/cache"
	"github.com/unicollab/unicollab/internal/domain"
	"github.com/unicollab/unicollab/internal/repository"
)

type NotificationService struct {
	notificationRepo repository.NotificationRepository
	unread           cache.UnreadCache
	notifier         Notifier
	log              *slog.Logger
}

func NewNotificationService(notificationRepo repository.NotificationRepository, unread cache.UnreadCache, log *slog.Logger) *NotificationService {
	if unread == nil {
		unread = cache.Noop{}
	}
	return &NotificationService{
		notificationRepo: notificationRepo,
		unread:           unread,
		notifier:         nopNotifier{},
		log:              log,
	}
}

func (s *NotificationService) SetNotifier(n Notifier) {
	s.notifier = n
}

type NotificationInput struct {
	RecipientID uuid.UUID
	Sender      *domain.UserSummary
	Type        domain.NotificationType
	Title       string
	Message     string
	Project     *domain.ProjectSummary
	RequestID   *uuid.UUID
	ActionURL   string
}

// Build assembles a notification without storing it, for callers that
// persist it inside their own transaction.
func (s *NotificationService) Build(input NotificationInput) *domain.Notification {
	n := &domain.Notification{
		ID:               uuid.New(),
		RecipientID:      input.RecipientID,
		Type:             input.Type,
		Title:            input.Title,
		Message:          input.Message,
		RelatedRequestID: input.RequestID,
		CreatedAt:        time.Now(),
		Sender:           input.Sender,
		RelatedProject:   input.Project,
	}
	if input.Sender != nil {
		n.SenderID = &input.Sender.ID
	}
	if input.Project != nil {
		n.RelatedProjectID = &input.Project.ID
	}
	if input.ActionURL != "" {
		n.ActionURL = &input.ActionURL
	}
	return n
}

// Create stores a notification and pushes it to the recipient.
func (s *NotificationService) Create(ctx context.Context, input NotificationInput) (*domain.Notification, error) {
	if !input.Type.Valid() {
		return nil, ValidationError(fmt.Sprintf("unknown notification type %q", input.Type))
	}

	n := s.Build(input)
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("creating notification: %w", err)
	}
	s.Dispatch(ctx, n)
	return n, nil
}

// Dispatch runs the post-commit side effects of a stored notification.
func (s *NotificationService) Dispatch(ctx context.Context, n *domain.Notification) {
	s.invalidate(ctx, n.RecipientID)
	s.notifier.NotifyNotification(n)
}

func (s *NotificationService) List(ctx context.Context, recipientID uuid.UUID, read *bool, page domain.Page) (domain.ListResponse[domain.Notification], error) {
	filter := domain.NotificationFilter{RecipientID: recipientID, Read: read, Page: page.Normalize()}
	list, total, err := s.notificationRepo.List(ctx, filter)
	if err != nil {
		return domain.ListResponse[domain.Notification]{}, fmt.Errorf("listing notifications: %w", err)
	}
	return domain.NewListResponse(list, total, filter.Page), nil
}

// UnreadCount is served from the cache when possible. A miss reads the
// database and caches the result only if no write invalidated the entry
// in the meantime.
func (s *NotificationService) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error) {
	count, version, ok, err := s.unread.Get(ctx, recipientID)
	if err != nil {
		s.log.Warn("unread cache get failed", "user_id", recipientID, "error", err)
		count, err = s.notificationRepo.CountUnread(ctx, recipientID)
		if err != nil {
			return 0, fmt.Errorf("counting unread notifications: %w", err)
		}
		return count, nil
	}
	if ok {
		return count, nil
	}

	count, err = s.notificationRepo.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	if err := s.unread.Set(ctx, recipientID, count, version); err != nil {
		s.log.Warn("unread cache set failed", "user_id", recipientID, "error", err)
	}
	return count, nil
}

// MarkRead is idempotent. Notifications of other recipients are reported as missing.
func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID uuid.UUID) (*domain.Notification, error) {
	n, err := s.notificationRepo.MarkRead(ctx, id, recipientID)
	if err != nil {
		return nil, fmt.Errorf("marking notification read: %w", err)
	}
	if n == nil {
		return nil, ErrNotificationNotFound
	}

	s.invalidate(ctx, recipientID)
	s.notifier.NotifyNotificationsRead(recipientID, &n.ID)
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int, error) {
	updated, err := s.notificationRepo.MarkAllRead(ctx, recipientID)
	if err != nil {
		return 0, fmt.Errorf("marking notifications read: %w", err)
	}

	s.invalidate(ctx, recipientID)
	if updated > 0 {
		s.notifier.NotifyNotificationsRead(recipientID, nil)
	}
	return updated, nil
}

func (s *NotificationService) Delete(ctx context.Context, id, recipientID uuid.UUID) error {
	deleted, err := s.notificationRepo.Delete(ctx, id, recipientID)
	if err != nil {
		return fmt.Errorf("deleting notification: %w", err)
	}
	if !deleted {
		return ErrNotificationNotFound
	}

	s.invalidate(ctx, recipientID)
	return nil
}

func (s *NotificationService) invalidate(ctx context.Context, recipientID uuid.UUID) {
	if err := s.unread.Invalidate(ctx, recipientID); err != nil {
		s.log.Warn("unread cache invalidate failed", "user_id", recipientID, "error", err)
	}
}
