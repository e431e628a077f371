package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/unicollab/unicollab/internal/domain"
)

const notificationSelect = `
	SELECT n.id, n.recipient_id, n.sender_id, n.type, n.title, n.message,
	       n.related_project_id, n.related_request_id, n.read, n.action_url, n.created_at,
	       s.name, s.avatar, p.title
	FROM notifications n
	LEFT JOIN users s ON s.id = n.sender_id
	LEFT JOIN projects p ON p.id = n.related_project_id`

type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	return insertNotification(ctx, r.pool, n)
}

func (r *NotificationRepo) List(ctx context.Context, f domain.NotificationFilter) ([]domain.Notification, int, error) {
	var w whereBuilder
	w.add("n.recipient_id = $%d", f.RecipientID)
	if f.Read != nil {
		w.add("n.read = $%d", *f.Read)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM notifications n`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting notifications: %w", err)
	}

	page := f.Page.Normalize()
	query := fmt.Sprintf("%s%s ORDER BY n.created_at DESC, n.id LIMIT %s OFFSET %s",
		notificationSelect, w.sql(), w.next(page.Limit), w.next(page.Offset()))

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *n)
	}
	return list, total, rows.Err()
}

func (r *NotificationRepo) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM notifications WHERE recipient_id = $1 AND NOT read`, recipientID,
	).Scan(&count)
	return count, err
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id, recipientID uuid.UUID) (*domain.Notification, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND recipient_id = $2`, id, recipientID,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}

	n, err := scanNotification(r.pool.QueryRow(ctx, notificationSelect+` WHERE n.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return n, err
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE recipient_id = $1 AND NOT read`, recipientID,
	)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *NotificationRepo) Delete(ctx context.Context, id, recipientID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1 AND recipient_id = $2`, id, recipientID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func insertNotification(ctx context.Context, q querier, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (id, recipient_id, sender_id, type, title, message,
		                           related_project_id, related_request_id, read, action_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := q.Exec(ctx, query,
		n.ID, n.RecipientID, n.SenderID, string(n.Type), n.Title, n.Message,
		n.RelatedProjectID, n.RelatedRequestID, n.Read, n.ActionURL, n.CreatedAt,
	)
	return err
}

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var n domain.Notification
	var senderName, projectTitle *string
	var senderAvatar *string
	err := row.Scan(
		&n.ID, &n.RecipientID, &n.SenderID, &n.Type, &n.Title, &n.Message,
		&n.RelatedProjectID, &n.RelatedRequestID, &n.Read, &n.ActionURL, &n.CreatedAt,
		&senderName, &senderAvatar, &projectTitle,
	)
	if err != nil {
		return nil, err
	}
	if n.SenderID != nil && senderName != nil {
		n.Sender = &domain.UserSummary{ID: *n.SenderID, Name: *senderName, Avatar: senderAvatar}
	}
	if n.RelatedProjectID != nil && projectTitle != nil {
		n.RelatedProject = &domain.ProjectSummary{ID: *n.RelatedProjectID, Title: *projectTitle}
	}
	return &n, nil
}
