package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/unicollab/unicollab/internal/domain"
	"github.com/unicollab/unicollab/internal/repository"
)

type TeamService struct {
	teamRepo repository.TeamRepository
	userRepo repository.UserRepository
}

func NewTeamService(teamRepo repository.TeamRepository, userRepo repository.UserRepository) *TeamService {
	return &TeamService{
		teamRepo: teamRepo,
		userRepo: userRepo,
	}
}

type CreateTeamInput struct {
	Name        string      `json:"name" validate:"required,notblank,max=100"`
	Description string      `json:"description" validate:"max=2000"`
	University  string      `json:"university" validate:"max=200"`
	Major       string      `json:"major" validate:"max=200"`
	Avatar      *string     `json:"avatar,omitempty" validate:"omitempty,url,max=500"`
	ProjectIDs  []uuid.UUID `json:"projects,omitempty" validate:"omitempty,max=100"`
}

type UpdateTeamInput struct {
	Name        *string     `json:"name,omitempty" validate:"omitempty,notblank,max=100"`
	Description *string     `json:"description,omitempty" validate:"omitempty,max=2000"`
	University  *string     `json:"university,omitempty" validate:"omitempty,max=200"`
	Major       *string     `json:"major,omitempty" validate:"omitempty,max=200"`
	Avatar      *string     `json:"avatar,omitempty" validate:"omitempty,url,max=500"`
	ProjectIDs  []uuid.UUID `json:"projects,omitempty" validate:"omitempty,max=100"`
}

type AddTeamMemberInput struct {
	UserID uuid.UUID `json:"userId" validate:"required"`
}

func (s *TeamService) Create(ctx context.Context, leaderID uuid.UUID, input CreateTeamInput) (*domain.Team, error) {
	projectIDs := input.ProjectIDs
	if projectIDs == nil {
		projectIDs = []uuid.UUID{}
	}

	now := time.Now()
	team := &domain.Team{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		LeaderID:    leaderID,
		University:  strings.TrimSpace(input.University),
		Major:       strings.TrimSpace(input.Major),
		Avatar:      input.Avatar,
		ProjectIDs:  projectIDs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, fmt.Errorf("creating team: %w", err)
	}
	return s.Get(ctx, team.ID)
}

func (s *TeamService) Get(ctx context.Context, teamID uuid.UUID) (*domain.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}
	return team, nil
}

func (s *TeamService) List(ctx context.Context, filter domain.TeamFilter) (domain.ListResponse[domain.Team], error) {
	switch filter.SortBy {
	case "", domain.SortByCreatedAt, domain.SortByName:
	default:
		return domain.ListResponse[domain.Team]{}, ValidationError("sortBy must be one of: createdAt, name")
	}
	if filter.Order != "" && filter.Order != "asc" && filter.Order != "desc" {
		return domain.ListResponse[domain.Team]{}, ValidationError("order must be asc or desc")
	}

	filter.Page = filter.Page.Normalize()
	teams, total, err := s.teamRepo.List(ctx, filter)
	if err != nil {
		return domain.ListResponse[domain.Team]{}, fmt.Errorf("listing teams: %w", err)
	}
	return domain.NewListResponse(teams, total, filter.Page), nil
}

func (s *TeamService) Update(ctx context.Context, teamID, userID uuid.UUID, input UpdateTeamInput) (*domain.Team, error) {
	team, err := s.leaderTeam(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		team.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		team.Description = strings.TrimSpace(*input.Description)
	}
	if input.University != nil {
		team.University = strings.TrimSpace(*input.University)
	}
	if input.Major != nil {
		team.Major = strings.TrimSpace(*input.Major)
	}
	if input.Avatar != nil {
		team.Avatar = input.Avatar
	}
	if input.ProjectIDs != nil {
		team.ProjectIDs = input.ProjectIDs
	}
	team.UpdatedAt = time.Now()

	if err := s.teamRepo.Update(ctx, team); err != nil {
		return nil, fmt.Errorf("updating team: %w", err)
	}
	return s.Get(ctx, teamID)
}

func (s *TeamService) Delete(ctx context.Context, teamID, userID uuid.UUID) error {
	if _, err := s.leaderTeam(ctx, teamID, userID); err != nil {
		return err
	}
	if err := s.teamRepo.Delete(ctx, teamID); err != nil {
		return fmt.Errorf("deleting team: %w", err)
	}
	return nil
}

// AddMember is idempotent.
func (s *TeamService) AddMember(ctx context.Context, teamID, userID, memberID uuid.UUID) (*domain.Team, error) {
	if _, err := s.leaderTeam(ctx, teamID, userID); err != nil {
		return nil, err
	}

	member, err := s.userRepo.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrUserNotFound
	}

	if err := s.teamRepo.AddMember(ctx, teamID, memberID); err != nil {
		return nil, fmt.Errorf("adding team member: %w", err)
	}
	return s.Get(ctx, teamID)
}

func (s *TeamService) RemoveMember(ctx context.Context, teamID, userID, memberID uuid.UUID) (*domain.Team, error) {
	team, err := s.leaderTeam(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	if memberID == team.LeaderID {
		return nil, ErrLeaderCannotLeave
	}

	if err := s.teamRepo.RemoveMember(ctx, teamID, memberID); err != nil {
		return nil, fmt.Errorf("removing team member: %w", err)
	}
	return s.Get(ctx, teamID)
}

func (s *TeamService) leaderTeam(ctx context.Context, teamID, userID uuid.UUID) (*domain.Team, error) {
	team, err := s.Get(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.LeaderID != userID {
		return nil, ErrNotTeamLeader
	}
	return team, nil
}
