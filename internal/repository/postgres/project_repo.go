package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/unicollab/unicollab/internal/domain"
	"github.com/unicollab/unicollab/internal/repository"
)

const projectSelect = `
	SELECT p.id, p.title, p.description, p.owner_id, p.status, p.max_members, p.category,
	       p.required_skills, p.deadline, p.created_at, p.updated_at,
	       u.name, u.email, u.university, u.major, u.avatar
	FROM projects p
	JOIN users u ON u.id = p.owner_id`

var projectSortColumns = map[string]string{
	domain.SortByCreatedAt: "p.created_at",
	domain.SortByTitle:     "p.title",
	domain.SortByDeadline:  "p.deadline",
}

type ProjectRepo struct {
	pool *pgxpool.Pool
}

func NewProjectRepo(pool *pgxpool.Pool) *ProjectRepo {
	return &ProjectRepo{pool: pool}
}

func (r *ProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			INSERT INTO projects (id, title, description, owner_id, status, max_members, category,
			                      required_skills, deadline, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
		_, err := tx.Exec(ctx, query,
			p.ID, p.Title, p.Description, p.OwnerID, string(p.Status), p.MaxMembers, p.Category,
			nonNilStrings(p.RequiredSkills), p.Deadline, p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO project_members (project_id, user_id, joined_at) VALUES ($1, $2, $3)`,
			p.ID, p.OwnerID, p.CreatedAt,
		)
		return err
	})
}

func (r *ProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	p, err := scanProject(r.pool.QueryRow(ctx, projectSelect+` WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	members, err := loadProjectMembers(ctx, r.pool, []uuid.UUID{p.ID})
	if err != nil {
		return nil, err
	}
	p.Members = members[p.ID]
	return p, nil
}

func (r *ProjectRepo) List(ctx context.Context, f domain.ProjectFilter) ([]domain.Project, int, error) {
	var w whereBuilder
	if f.Status != "" {
		w.add("p.status = $%d", string(f.Status))
	}
	if f.Category != "" {
		w.add("p.category = $%d", f.Category)
	}
	if f.Search != "" {
		w.add("(p.title ILIKE $%[1]d OR p.description ILIKE $%[1]d)", containsPattern(f.Search))
	}
	if len(f.Skills) > 0 {
		w.add("p.required_skills @> $%d", f.Skills)
	}
	if f.MemberID != nil {
		w.add("EXISTS (SELECT 1 FROM project_members pm WHERE pm.project_id = p.id AND pm.user_id = $%d)", *f.MemberID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM projects p`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting projects: %w", err)
	}

	column, ok := projectSortColumns[f.SortBy]
	if !ok {
		column = "p.created_at"
	}
	page := f.Page.Normalize()
	query := fmt.Sprintf("%s%s ORDER BY %s %s NULLS LAST, p.id LIMIT %s OFFSET %s",
		projectSelect, w.sql(), column, sortDirection(f.Order), w.next(page.Limit), w.next(page.Offset()))

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	ids := make([]uuid.UUID, len(projects))
	for i := range projects {
		ids[i] = projects[i].ID
	}
	members, err := loadProjectMembers(ctx, r.pool, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range projects {
		projects[i].Members = members[projects[i].ID]
	}

	return projects, total, nil
}

func (r *ProjectRepo) Update(ctx context.Context, p *domain.Project) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := lockProject(ctx, tx, p.ID); err != nil {
			return err
		}

		if p.MaxMembers != nil {
			var count int
			if err := tx.QueryRow(ctx, `SELECT count(*) FROM project_members WHERE project_id = $1`, p.ID).Scan(&count); err != nil {
				return err
			}
			if *p.MaxMembers < count {
				return repository.ErrCapacityTooLow
			}
		}

		query := `
			UPDATE projects
			SET title = $1, description = $2, status = $3, max_members = $4, category = $5,
			    required_skills = $6, deadline = $7, updated_at = $8
			WHERE id = $9`
		_, err := tx.Exec(ctx, query,
			p.Title, p.Description, string(p.Status), p.MaxMembers, p.Category,
			nonNilStrings(p.RequiredSkills), p.Deadline, p.UpdatedAt, p.ID,
		)
		return err
	})
}

func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	return err
}

func (r *ProjectRepo) AddMember(ctx context.Context, projectID, userID uuid.UUID) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		locked, err := lockProject(ctx, tx, projectID)
		if err != nil {
			return err
		}

		var count int
		var isMember bool
		err = tx.QueryRow(ctx, `
			SELECT count(*), COALESCE(bool_or(user_id = $2), FALSE)
			FROM project_members
			WHERE project_id = $1`, projectID, userID,
		).Scan(&count, &isMember)
		if err != nil {
			return err
		}
		if isMember {
			return repository.ErrAlreadyMember
		}
		if locked.maxMembers != nil && count >= *locked.maxMembers {
			return repository.ErrCapacityReached
		}

		return insertMember(ctx, tx, projectID, userID, time.Now())
	})
}

func (r *ProjectRepo) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		locked, err := lockProject(ctx, tx, projectID)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx,
			`DELETE FROM project_members WHERE project_id = $1 AND user_id = $2 AND user_id <> $3`,
			projectID, userID, locked.ownerID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			if locked.ownerID == userID {
				return repository.ErrOwnerCannotLeave
			}
			return repository.ErrNotMember
		}

		_, err = tx.Exec(ctx, `UPDATE projects SET updated_at = $1 WHERE id = $2`, time.Now(), projectID)
		return err
	})
}

func (r *ProjectRepo) Stats(ctx context.Context, userID uuid.UUID) (*domain.DashboardStats, error) {
	query := `
		SELECT count(*),
		       count(*) FILTER (WHERE p.status = 'active'),
		       count(*) FILTER (WHERE p.owner_id <> $1)
		FROM projects p
		WHERE p.owner_id = $1
		   OR EXISTS (SELECT 1 FROM project_members pm WHERE pm.project_id = p.id AND pm.user_id = $1)`

	var s domain.DashboardStats
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&s.TotalProjects, &s.ActiveProjects, &s.Collaborations); err != nil {
		return nil, err
	}
	return &s, nil
}

type lockedProject struct {
	ownerID    uuid.UUID
	maxMembers *int
}

// lockProject takes a row lock that serialises membership changes per project.
func lockProject(ctx context.Context, tx pgx.Tx, projectID uuid.UUID) (*lockedProject, error) {
	var lp lockedProject
	err := tx.QueryRow(ctx,
		`SELECT owner_id, max_members FROM projects WHERE id = $1 FOR UPDATE`, projectID,
	).Scan(&lp.ownerID, &lp.maxMembers)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lp, nil
}

func insertMember(ctx context.Context, q querier, projectID, userID uuid.UUID, at time.Time) error {
	_, err := q.Exec(ctx, `
		INSERT INTO project_members (project_id, user_id, joined_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (project_id, user_id) DO NOTHING`, projectID, userID, at)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `UPDATE projects SET updated_at = $1 WHERE id = $2`, at, projectID)
	return err
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var p domain.Project
	var owner domain.UserSummary
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.OwnerID, &p.Status, &p.MaxMembers, &p.Category,
		&p.RequiredSkills, &p.Deadline, &p.CreatedAt, &p.UpdatedAt,
		&owner.Name, &owner.Email, &owner.University, &owner.Major, &owner.Avatar,
	)
	if err != nil {
		return nil, err
	}
	owner.ID = p.OwnerID
	p.Owner = &owner
	return &p, nil
}

func loadProjectMembers(ctx context.Context, q querier, projectIDs []uuid.UUID) (map[uuid.UUID][]domain.UserSummary, error) {
	out := make(map[uuid.UUID][]domain.UserSummary, len(projectIDs))
	if len(projectIDs) == 0 {
		return out, nil
	}

	rows, err := q.Query(ctx, `
		SELECT pm.project_id, u.id, u.name, u.email, u.university, u.major, u.avatar
		FROM project_members pm
		JOIN users u ON u.id = pm.user_id
		WHERE pm.project_id = ANY($1)
		ORDER BY pm.joined_at, u.id`, projectIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var projectID uuid.UUID
		var m domain.UserSummary
		if err := rows.Scan(&projectID, &m.ID, &m.Name, &m.Email, &m.University, &m.Major, &m.Avatar); err != nil {
			return nil, err
		}
		out[projectID] = append(out[projectID], m)
	}
	return out, rows.Err()
}
