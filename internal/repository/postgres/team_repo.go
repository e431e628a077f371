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
)

const teamSelect = `
	SELECT t.id, t.name, t.description, t.leader_id, t.university, t.major, t.avatar, t.project_ids,
	       t.created_at, t.updated_at,
	       u.name, u.email, u.avatar
	FROM teams t
	JOIN users u ON u.id = t.leader_id`

var teamSortColumns = map[string]string{
	domain.SortByCreatedAt: "t.created_at",
	domain.SortByName:      "t.name",
}

type TeamRepo struct {
	pool *pgxpool.Pool
}

func NewTeamRepo(pool *pgxpool.Pool) *TeamRepo {
	return &TeamRepo{pool: pool}
}

func (r *TeamRepo) Create(ctx context.Context, t *domain.Team) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			INSERT INTO teams (id, name, description, leader_id, university, major, avatar, project_ids, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
		_, err := tx.Exec(ctx, query,
			t.ID, t.Name, t.Description, t.LeaderID, t.University, t.Major, t.Avatar,
			nonNilUUIDs(t.ProjectIDs), t.CreatedAt, t.UpdatedAt,
		)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO team_members (team_id, user_id, joined_at) VALUES ($1, $2, $3)`,
			t.ID, t.LeaderID, t.CreatedAt,
		)
		return err
	})
}

func (r *TeamRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Team, error) {
	t, err := scanTeam(r.pool.QueryRow(ctx, teamSelect+` WHERE t.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	members, err := loadTeamMembers(ctx, r.pool, []uuid.UUID{t.ID})
	if err != nil {
		return nil, err
	}
	t.Members = members[t.ID]
	return t, nil
}

func (r *TeamRepo) List(ctx context.Context, f domain.TeamFilter) ([]domain.Team, int, error) {
	var w whereBuilder
	if f.Search != "" {
		w.add("(t.name ILIKE $%[1]d OR t.description ILIKE $%[1]d)", containsPattern(f.Search))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM teams t`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting teams: %w", err)
	}

	column, ok := teamSortColumns[f.SortBy]
	if !ok {
		column = "t.created_at"
	}
	page := f.Page.Normalize()
	query := fmt.Sprintf("%s%s ORDER BY %s %s, t.id LIMIT %s OFFSET %s",
		teamSelect, w.sql(), column, sortDirection(f.Order), w.next(page.Limit), w.next(page.Offset()))

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var teams []domain.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, 0, err
		}
		teams = append(teams, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	ids := make([]uuid.UUID, len(teams))
	for i := range teams {
		ids[i] = teams[i].ID
	}
	members, err := loadTeamMembers(ctx, r.pool, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range teams {
		teams[i].Members = members[teams[i].ID]
	}
	return teams, total, nil
}

func (r *TeamRepo) Update(ctx context.Context, t *domain.Team) error {
	query := `
		UPDATE teams
		SET name = $1, description = $2, university = $3, major = $4, avatar = $5, project_ids = $6, updated_at = $7
		WHERE id = $8`
	_, err := r.pool.Exec(ctx, query,
		t.Name, t.Description, t.University, t.Major, t.Avatar, nonNilUUIDs(t.ProjectIDs), t.UpdatedAt, t.ID,
	)
	return err
}

func (r *TeamRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	return err
}

func (r *TeamRepo) AddMember(ctx context.Context, teamID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO team_members (team_id, user_id, joined_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (team_id, user_id) DO NOTHING`, teamID, userID, time.Now())
	return err
}

func (r *TeamRepo) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM team_members
		WHERE team_id = $1 AND user_id = $2
		  AND user_id <> (SELECT leader_id FROM teams WHERE id = $1)`,
		teamID, userID,
	)
	return err
}

func scanTeam(row pgx.Row) (*domain.Team, error) {
	var t domain.Team
	var leader domain.UserSummary
	err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.LeaderID, &t.University, &t.Major, &t.Avatar, &t.ProjectIDs,
		&t.CreatedAt, &t.UpdatedAt,
		&leader.Name, &leader.Email, &leader.Avatar,
	)
	if err != nil {
		return nil, err
	}
	leader.ID = t.LeaderID
	t.Leader = &leader
	return &t, nil
}

func loadTeamMembers(ctx context.Context, q querier, teamIDs []uuid.UUID) (map[uuid.UUID][]domain.UserSummary, error) {
	out := make(map[uuid.UUID][]domain.UserSummary, len(teamIDs))
	if len(teamIDs) == 0 {
		return out, nil
	}

	rows, err := q.Query(ctx, `
		SELECT tm.team_id, u.id, u.name, u.email, u.university, u.major, u.avatar
		FROM team_members tm
		JOIN users u ON u.id = tm.user_id
		WHERE tm.team_id = ANY($1)
		ORDER BY tm.joined_at, u.id`, teamIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var teamID uuid.UUID
		var m domain.UserSummary
		if err := rows.Scan(&teamID, &m.ID, &m.Name, &m.Email, &m.University, &m.Major, &m.Avatar); err != nil {
			return nil, err
		}
		out[teamID] = append(out[teamID], m)
	}
	return out, rows.Err()
}

func nonNilUUIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
