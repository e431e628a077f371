package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/unicollab/unicollab/internal/domain"
	"github.com/unicollab/unicollab/internal/repository"
)

type ProjectService struct {
	projectRepo   repository.ProjectRepository
	userRepo      repository.UserRepository
	notifications *NotificationService
	notifier      Notifier
	log           *slog.Logger
}

func NewProjectService(
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	notifications *NotificationService,
	log *slog.Logger,
) *ProjectService {
	return &ProjectService{
		projectRepo:   projectRepo,
		userRepo:      userRepo,
		notifications: notifications,
		notifier:      nopNotifier{},
		log:           log,
	}
}

func (s *ProjectService) SetNotifier(n Notifier) {
	s.notifier = n
}

type CreateProjectInput struct {
	Title          string               `json:"title" validate:"required,notblank,max=200"`
	Description    string               `json:"description" validate:"required,notblank,max=5000"`
	Status         domain.ProjectStatus `json:"status,omitempty" validate:"omitempty,oneof=planning active completed"`
	MaxMembers     *int                 `json:"maxMembers,omitempty" validate:"omitempty,min=1,max=1000"`
	Category       string               `json:"category" validate:"max=100"`
	RequiredSkills []string             `json:"requiredSkills" validate:"omitempty,max=50,dive,required,max=50"`
	Deadline       *time.Time           `json:"deadline,omitempty"`
}

// UpdateProjectInput is a partial update; nil fields are left unchanged.
// MaxMembers 0 removes the capacity limit.
type UpdateProjectInput struct {
	Title          *string               `json:"title,omitempty" validate:"omitempty,notblank,max=200"`
	Description    *string               `json:"description,omitempty" validate:"omitempty,notblank,max=5000"`
	Status         *domain.ProjectStatus `json:"status,omitempty" validate:"omitempty,oneof=planning active completed"`
	MaxMembers     *int                  `json:"maxMembers,omitempty" validate:"omitempty,min=0,max=1000"`
	Category       *string               `json:"category,omitempty" validate:"omitempty,max=100"`
	RequiredSkills []string              `json:"requiredSkills,omitempty" validate:"omitempty,max=50,dive,required,max=50"`
	Deadline       *time.Time            `json:"deadline,omitempty"`
}

func (s *ProjectService) Create(ctx context.Context, ownerID uuid.UUID, input CreateProjectInput) (*domain.Project, error) {
	status := input.Status
	if status == "" {
		status = domain.ProjectStatusPlanning
	}
	skills := input.RequiredSkills
	if skills == nil {
		skills = []string{}
	}

	now := time.Now()
	project := &domain.Project{
		ID:             uuid.New(),
		Title:          strings.TrimSpace(input.Title),
		Description:    strings.TrimSpace(input.Description),
		OwnerID:        ownerID,
		Status:         status,
		MaxMembers:     input.MaxMembers,
		Category:       strings.TrimSpace(input.Category),
		RequiredSkills: skills,
		Deadline:       input.Deadline,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	return s.Get(ctx, project.ID)
}

func (s *ProjectService) Get(ctx context.Context, projectID uuid.UUID) (*domain.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}
	return project, nil
}

func (s *ProjectService) List(ctx context.Context, filter domain.ProjectFilter) (domain.ListResponse[domain.Project], error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return domain.ListResponse[domain.Project]{}, ValidationError("status must be one of: planning, active, completed")
	}
	switch filter.SortBy {
	case "", domain.SortByCreatedAt, domain.SortByTitle, domain.SortByDeadline:
	default:
		return domain.ListResponse[domain.Project]{}, ValidationError("sortBy must be one of: createdAt, title, deadline")
	}
	if filter.Order != "" && filter.Order != "asc" && filter.Order != "desc" {
		return domain.ListResponse[domain.Project]{}, ValidationError("order must be asc or desc")
	}

	filter.Page = filter.Page.Normalize()
	projects, total, err := s.projectRepo.List(ctx, filter)
	if err != nil {
		return domain.ListResponse[domain.Project]{}, fmt.Errorf("listing projects: %w", err)
	}
	return domain.NewListResponse(projects, total, filter.Page), nil
}

// ListMine returns the projects the user belongs to, owned ones included.
func (s *ProjectService) ListMine(ctx context.Context, userID uuid.UUID, page domain.Page) (domain.ListResponse[domain.Project], error) {
	return s.List(ctx, domain.ProjectFilter{MemberID: &userID, Page: page})
}

func (s *ProjectService) Update(ctx context.Context, projectID, userID uuid.UUID, input UpdateProjectInput) (*domain.Project, error) {
	project, err := s.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != userID {
		return nil, ErrNotProjectOwner
	}

	if input.Title != nil {
		project.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		project.Description = strings.TrimSpace(*input.Description)
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ValidationError("status must be one of: planning, active, completed")
		}
		project.Status = *input.Status
	}
	if input.MaxMembers != nil {
		if *input.MaxMembers == 0 {
			project.MaxMembers = nil
		} else {
			if *input.MaxMembers < len(project.Members) {
				return nil, ErrCapacityTooLow
			}
			project.MaxMembers = input.MaxMembers
		}
	}
	if input.Category != nil {
		project.Category = strings.TrimSpace(*input.Category)
	}
	if input.RequiredSkills != nil {
		project.RequiredSkills = input.RequiredSkills
	}
	if input.Deadline != nil {
		project.Deadline = input.Deadline
	}
	project.UpdatedAt = time.Now()

	if err := s.projectRepo.Update(ctx, project); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrProjectNotFound
		case errors.Is(err, repository.ErrCapacityTooLow):
			return nil, ErrCapacityTooLow
		}
		return nil, fmt.Errorf("updating project: %w", err)
	}

	updated, err := s.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	owner := s.userSummary(ctx, userID)
	for _, member := range updated.Members {
		if member.ID == updated.OwnerID {
			continue
		}
		s.notify(ctx, NotificationInput{
			RecipientID: member.ID,
			Sender:      &owner,
			Type:        domain.NotificationProjectUpdate,
			Title:       "Project Updated",
			Message:     fmt.Sprintf("%s has been updated", updated.Title),
			Project:     &domain.ProjectSummary{ID: updated.ID, Title: updated.Title},
			ActionURL:   projectURL(updated.ID),
		})
	}

	return updated, nil
}

func (s *ProjectService) Delete(ctx context.Context, projectID, userID uuid.UUID) error {
	project, err := s.Get(ctx, projectID)
	if err != nil {
		return err
	}
	if project.OwnerID != userID {
		return ErrNotProjectOwner
	}

	if err := s.projectRepo.Delete(ctx, projectID); err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	return nil
}

// Join adds the user to the project. Membership and capacity are re-checked
// atomically by the repository.
func (s *ProjectService) Join(ctx context.Context, projectID, userID uuid.UUID) (*domain.Project, error) {
	project, err := s.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.HasMember(userID) {
		return nil, ErrAlreadyMember
	}
	if project.IsFull() {
		return nil, ErrProjectFull
	}

	if err := s.projectRepo.AddMember(ctx, projectID, userID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrProjectNotFound
		case errors.Is(err, repository.ErrAlreadyMember):
			return nil, ErrAlreadyMember
		case errors.Is(err, repository.ErrCapacityReached):
			return nil, ErrProjectFull
		}
		return nil, fmt.Errorf("joining project: %w", err)
	}

	member := s.userSummary(ctx, userID)
	s.notifier.NotifyMemberJoined(projectID, member)
	s.notify(ctx, NotificationInput{
		RecipientID: project.OwnerID,
		Sender:      &member,
		Type:        domain.NotificationMemberJoined,
		Title:       "New Member",
		Message:     fmt.Sprintf("%s joined %s", member.Name, project.Title),
		Project:     &domain.ProjectSummary{ID: project.ID, Title: project.Title},
		ActionURL:   projectURL(project.ID),
	})

	return s.Get(ctx, projectID)
}

func (s *ProjectService) Leave(ctx context.Context, projectID, userID uuid.UUID) (*domain.Project, error) {
	project, err := s.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID == userID {
		return nil, ErrOwnerCannotLeave
	}
	if !project.HasMember(userID) {
		return nil, ErrNotMember
	}

	if err := s.projectRepo.RemoveMember(ctx, projectID, userID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrProjectNotFound
		case errors.Is(err, repository.ErrNotMember):
			return nil, ErrNotMember
		case errors.Is(err, repository.ErrOwnerCannotLeave):
			return nil, ErrOwnerCannotLeave
		}
		return nil, fmt.Errorf("leaving project: %w", err)
	}

	member := s.userSummary(ctx, userID)
	s.notifier.NotifyMemberLeft(projectID, member)
	s.notify(ctx, NotificationInput{
		RecipientID: project.OwnerID,
		Sender:      &member,
		Type:        domain.NotificationMemberLeft,
		Title:       "Member Left",
		Message:     fmt.Sprintf("%s left %s", member.Name, project.Title),
		Project:     &domain.ProjectSummary{ID: project.ID, Title: project.Title},
		ActionURL:   projectURL(project.ID),
	})

	return s.Get(ctx, projectID)
}

func (s *ProjectService) Stats(ctx context.Context, userID uuid.UUID) (*domain.DashboardStats, error) {
	stats, err := s.projectRepo.Stats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading dashboard stats: %w", err)
	}
	return stats, nil
}

// notify records a side-effect notification. The triggering change is
// already committed, so a failure is logged rather than returned.
func (s *ProjectService) notify(ctx context.Context, input NotificationInput) {
	if _, err := s.notifications.Create(ctx, input); err != nil {
		s.log.Error("creating notification", "type", input.Type, "recipient_id", input.RecipientID, "error", err)
	}
}

func (s *ProjectService) userSummary(ctx context.Context, userID uuid.UUID) domain.UserSummary {
	return lookupSummary(ctx, s.userRepo, s.log, userID)
}

func lookupSummary(ctx context.Context, users repository.UserRepository, log *slog.Logger, userID uuid.UUID) domain.UserSummary {
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		log.Warn("loading user summary", "user_id", userID, "error", err)
	}
	if user == nil {
		return domain.UserSummary{ID: userID, Name: "Someone"}
	}
	return user.Summary()
}

func projectURL(id uuid.UUID) string {
	return "/projects/" + id.String()
}
