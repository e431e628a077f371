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

// CollaborationService drives the request lifecycle: pending, then accepted
// or rejected by the project owner. Every transition is stored together with
// its notification in one repository call.
type CollaborationService struct {
	requestRepo   repository.CollaborationRepository
	projectRepo   repository.ProjectRepository
	userRepo      repository.UserRepository
	notifications *NotificationService
	notifier      Notifier
	log           *slog.Logger
}

func NewCollaborationService(
	requestRepo repository.CollaborationRepository,
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	notifications *NotificationService,
	log *slog.Logger,
) *CollaborationService {
	return &CollaborationService{
		requestRepo:   requestRepo,
		projectRepo:   projectRepo,
		userRepo:      userRepo,
		notifications: notifications,
		notifier:      nopNotifier{},
		log:           log,
	}
}

func (s *CollaborationService) SetNotifier(n Notifier) {
	s.notifier = n
}

type SubmitRequestInput struct {
	ProjectID uuid.UUID `json:"projectId" validate:"required"`
	Message   string    `json:"message" validate:"max=2000"`
}

func (s *CollaborationService) Submit(ctx context.Context, requesterID uuid.UUID, input SubmitRequestInput) (*domain.CollaborationRequest, error) {
	project, err := s.projectRepo.GetByID(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}
	if project.HasMember(requesterID) {
		return nil, ErrAlreadyMember
	}

	pending, err := s.requestRepo.GetPending(ctx, project.ID, requesterID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, ErrRequestPending
	}

	requester := lookupSummary(ctx, s.userRepo, s.log, requesterID)
	projectRef := &domain.ProjectSummary{ID: project.ID, Title: project.Title}

	now := time.Now()
	req := &domain.CollaborationRequest{
		ID:          uuid.New(),
		ProjectID:   project.ID,
		RequesterID: requesterID,
		Status:      domain.RequestStatusPending,
		Message:     strings.TrimSpace(input.Message),
		CreatedAt:   now,
		UpdatedAt:   now,
		Requester:   &requester,
		Project:     projectRef,
	}

	notice := s.notifications.Build(NotificationInput{
		RecipientID: project.OwnerID,
		Sender:      &requester,
		Type:        domain.NotificationCollaborationRequest,
		Title:       "New Collaboration Request",
		Message:     fmt.Sprintf("%s requested to join %s", requester.Name, project.Title),
		Project:     projectRef,
		RequestID:   &req.ID,
		ActionURL:   projectURL(project.ID),
	})

	if err := s.requestRepo.Create(ctx, req, notice); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyMember):
			return nil, ErrAlreadyMember
		case errors.Is(err, repository.ErrDuplicatePending):
			return nil, ErrRequestPending
		}
		return nil, fmt.Errorf("creating collaboration request: %w", err)
	}

	s.notifications.Dispatch(ctx, notice)
	return req, nil
}

// Accept marks the request accepted and adds the requester to the project.
// Capacity is not enforced: the owner's decision overrides maxMembers.
func (s *CollaborationService) Accept(ctx context.Context, requestID, responderID uuid.UUID) (*domain.CollaborationRequest, error) {
	return s.respond(ctx, requestID, responderID, domain.RequestStatusAccepted)
}

func (s *CollaborationService) Reject(ctx context.Context, requestID, responderID uuid.UUID) (*domain.CollaborationRequest, error) {
	return s.respond(ctx, requestID, responderID, domain.RequestStatusRejected)
}

func (s *CollaborationService) respond(ctx context.Context, requestID, responderID uuid.UUID, status domain.RequestStatus) (*domain.CollaborationRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}

	project, err := s.projectRepo.GetByID(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}
	if project.OwnerID != responderID {
		return nil, ErrNotProjectOwner
	}
	if req.Status != domain.RequestStatusPending {
		return nil, ErrRequestNotPending
	}

	responder := lookupSummary(ctx, s.userRepo, s.log, responderID)
	projectRef := &domain.ProjectSummary{ID: project.ID, Title: project.Title}

	title, message := "Request Accepted", fmt.Sprintf("Your request to join %s was accepted", project.Title)
	if status == domain.RequestStatusRejected {
		title, message = "Request Rejected", fmt.Sprintf("Your request to join %s was declined", project.Title)
	}
	notice := s.notifications.Build(NotificationInput{
		RecipientID: req.RequesterID,
		Sender:      &responder,
		Type:        domain.NotificationCollaborationRequest,
		Title:       title,
		Message:     message,
		Project:     projectRef,
		RequestID:   &req.ID,
		ActionURL:   projectURL(project.ID),
	})

	resp := domain.RequestResponse{
		RequestID:   req.ID,
		ProjectID:   req.ProjectID,
		RequesterID: req.RequesterID,
		ResponderID: responderID,
		Status:      status,
		RespondedAt: time.Now(),
	}
	if err := s.requestRepo.Respond(ctx, resp, notice); err != nil {
		switch {
		case errors.Is(err, repository.ErrRequestNotPending):
			return nil, ErrRequestNotPending
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("responding to collaboration request: %w", err)
	}

	req.Status = status
	req.RespondedAt = &resp.RespondedAt
	req.RespondedBy = &responderID
	req.UpdatedAt = resp.RespondedAt
	req.Project = projectRef

	s.notifications.Dispatch(ctx, notice)
	s.notifier.NotifyRequestUpdated(req)
	if status == domain.RequestStatusAccepted && req.Requester != nil {
		s.notifier.NotifyMemberJoined(project.ID, *req.Requester)
	}
	return req, nil
}

// List returns requests addressed to projects owned by ownerID, newest first.
func (s *CollaborationService) List(ctx context.Context, ownerID uuid.UUID, status domain.RequestStatus, page domain.Page) (domain.ListResponse[domain.CollaborationRequest], error) {
	return s.list(ctx, domain.RequestFilter{OwnerID: &ownerID, Status: status, Page: page})
}

// ListMine returns the requests submitted by requesterID.
func (s *CollaborationService) ListMine(ctx context.Context, requesterID uuid.UUID, status domain.RequestStatus, page domain.Page) (domain.ListResponse[domain.CollaborationRequest], error) {
	return s.list(ctx, domain.RequestFilter{RequesterID: &requesterID, Status: status, Page: page})
}

func (s *CollaborationService) list(ctx context.Context, filter domain.RequestFilter) (domain.ListResponse[domain.CollaborationRequest], error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return domain.ListResponse[domain.CollaborationRequest]{}, ValidationError("status must be one of: pending, accepted, rejected")
	}

	filter.Page = filter.Page.Normalize()
	reqs, total, err := s.requestRepo.List(ctx, filter)
	if err != nil {
		return domain.ListResponse[domain.CollaborationRequest]{}, fmt.Errorf("listing collaboration requests: %w", err)
	}
	return domain.NewListResponse(reqs, total, filter.Page), nil
}

// Withdraw deletes a pending request on behalf of its requester.
func (s *CollaborationService) Withdraw(ctx context.Context, requestID, userID uuid.UUID) error {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req == nil {
		return ErrRequestNotFound
	}
	if req.RequesterID != userID {
		return ErrNotRequester
	}
	if req.Status != domain.RequestStatusPending {
		return ErrRequestNotPending
	}

	if err := s.requestRepo.DeletePending(ctx, requestID); err != nil {
		if errors.Is(err, repository.ErrRequestNotPending) {
			return ErrRequestNotPending
		}
		return fmt.Errorf("withdrawing collaboration request: %w", err)
	}
	return nil
}
