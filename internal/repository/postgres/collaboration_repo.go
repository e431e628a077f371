package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/unicollab/unicollab/internal/domain"
	"github.com/unicollab/unicollab/internal/repository"
)

const requestSelect = `
	SELECT r.id, r.project_id, r.requester_id, r.status, r.message, r.responded_at, r.responded_by,
	       r.created_at, r.updated_at,
	       u.name, u.email, u.avatar,
	       p.title
	FROM collaboration_requests r
	JOIN users u ON u.id = r.requester_id
	JOIN projects p ON p.id = r.project_id`

type CollaborationRepo struct {
	pool *pgxpool.Pool
}

func NewCollaborationRepo(pool *pgxpool.Pool) *CollaborationRepo {
	return &CollaborationRepo{pool: pool}
}

func (r *CollaborationRepo) Create(ctx context.Context, req *domain.CollaborationRequest, notice *domain.Notification) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var isMember bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM project_members WHERE project_id = $1 AND user_id = $2)`,
			req.ProjectID, req.RequesterID,
		).Scan(&isMember)
		if err != nil {
			return err
		}
		if isMember {
			return repository.ErrAlreadyMember
		}

		query := `
			INSERT INTO collaboration_requests (id, project_id, requester_id, status, message, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`
		_, err = tx.Exec(ctx, query,
			req.ID, req.ProjectID, req.RequesterID, string(req.Status), req.Message, req.CreatedAt, req.UpdatedAt,
		)
		if isUniqueViolation(err, "collaboration_requests_one_pending") {
			return repository.ErrDuplicatePending
		}
		if err != nil {
			return err
		}

		if notice != nil {
			return insertNotification(ctx, tx, notice)
		}
		return nil
	})
}

func (r *CollaborationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.CollaborationRequest, error) {
	req, err := scanRequest(r.pool.QueryRow(ctx, requestSelect+` WHERE r.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return req, err
}

func (r *CollaborationRepo) GetPending(ctx context.Context, projectID, requesterID uuid.UUID) (*domain.CollaborationRequest, error) {
	req, err := scanRequest(r.pool.QueryRow(ctx,
		requestSelect+` WHERE r.project_id = $1 AND r.requester_id = $2 AND r.status = 'pending'`,
		projectID, requesterID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return req, err
}

func (r *CollaborationRepo) List(ctx context.Context, f domain.RequestFilter) ([]domain.CollaborationRequest, int, error) {
	var w whereBuilder
	if f.OwnerID != nil {
		w.add("p.owner_id = $%d", *f.OwnerID)
	}
	if f.RequesterID != nil {
		w.add("r.requester_id = $%d", *f.RequesterID)
	}
	if f.Status != "" {
		w.add("r.status = $%d", string(f.Status))
	}

	var total int
	countQuery := `SELECT count(*) FROM collaboration_requests r JOIN projects p ON p.id = r.project_id` + w.sql()
	if err := r.pool.QueryRow(ctx, countQuery, w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting requests: %w", err)
	}

	page := f.Page.Normalize()
	query := fmt.Sprintf("%s%s ORDER BY r.created_at DESC, r.id LIMIT %s OFFSET %s",
		requestSelect, w.sql(), w.next(page.Limit), w.next(page.Offset()))

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reqs []domain.CollaborationRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		reqs = append(reqs, *req)
	}
	return reqs, total, rows.Err()
}

func (r *CollaborationRepo) Respond(ctx context.Context, resp domain.RequestResponse, notice *domain.Notification) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE collaboration_requests
			SET status = $1, responded_at = $2, responded_by = $3, updated_at = $2
			WHERE id = $4 AND status = 'pending'`,
			string(resp.Status), resp.RespondedAt, resp.ResponderID, resp.RequestID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrRequestNotPending
		}

		if resp.Status == domain.RequestStatusAccepted {
			if _, err := lockProject(ctx, tx, resp.ProjectID); err != nil {
				return err
			}
			if err := insertMember(ctx, tx, resp.ProjectID, resp.RequesterID, resp.RespondedAt); err != nil {
				return err
			}
		}

		if notice != nil {
			return insertNotification(ctx, tx, notice)
		}
		return nil
	})
}

func (r *CollaborationRepo) DeletePending(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM collaboration_requests WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrRequestNotPending
	}
	return nil
}

func scanRequest(row pgx.Row) (*domain.CollaborationRequest, error) {
	var req domain.CollaborationRequest
	var requester domain.UserSummary
	var project domain.ProjectSummary
	err := row.Scan(
		&req.ID, &req.ProjectID, &req.RequesterID, &req.Status, &req.Message, &req.RespondedAt, &req.RespondedBy,
		&req.CreatedAt, &req.UpdatedAt,
		&requester.Name, &requester.Email, &requester.Avatar,
		&project.Title,
	)
	if err != nil {
		return nil, err
	}
	requester.ID = req.RequesterID
	project.ID = req.ProjectID
	req.Requester = &requester
	req.Project = &project
	return &req, nil
}
