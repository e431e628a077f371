package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/unicollab/unicollab/internal/domain"
)

// Lookups return (nil, nil) when the row does not exist.

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type ProjectRepository interface {
	// Create stores the project and its owner as the first member.
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	List(ctx context.Context, filter domain.ProjectFilter) ([]domain.Project, int, error)
	Update(ctx context.Context, project *domain.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	// AddMember atomically checks membership and capacity before inserting.
	AddMember(ctx context.Context, projectID, userID uuid.UUID) error
	// RemoveMember atomically checks membership and ownership before deleting.
	RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error
	Stats(ctx context.Context, userID uuid.UUID) (*domain.DashboardStats, error)
}

type CollaborationRepository interface {
	// Create stores a pending request together with the owner's notification.
	Create(ctx context.Context, req *domain.CollaborationRequest, notice *domain.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CollaborationRequest, error)
	GetPending(ctx context.Context, projectID, requesterID uuid.UUID) (*domain.CollaborationRequest, error)
	List(ctx context.Context, filter domain.RequestFilter) ([]domain.CollaborationRequest, int, error)
	// Respond moves a pending request to a terminal state, adds the requester to
	// the project when accepted and stores the notice, all in one transaction.
	Respond(ctx context.Context, resp domain.RequestResponse, notice *domain.Notification) error
	// DeletePending removes a request that is still pending.
	DeletePending(ctx context.Context, id uuid.UUID) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	List(ctx context.Context, filter domain.NotificationFilter) ([]domain.Notification, int, error)
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id, recipientID uuid.UUID) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int, error)
	Delete(ctx context.Context, id, recipientID uuid.UUID) (bool, error)
}

type TeamRepository interface {
	// Create stores the team and its leader as the first member.
	Create(ctx context.Context, team *domain.Team) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Team, error)
	List(ctx context.Context, filter domain.TeamFilter) ([]domain.Team, int, error)
	Update(ctx context.Context, team *domain.Team) error
	Delete(ctx context.Context, id uuid.UUID) error
	// AddMember is a no-op when the user already belongs to the team.
	AddMember(ctx context.Context, teamID, userID uuid.UUID) error
	// RemoveMember never removes the leader and is a no-op for non-members.
	RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error
}
