// Package memory implements the repository interfaces in process memory.
// It is used by tests and mirrors the locking semantics of the Postgres
// implementation.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/unicollab/unicollab/internal/domain"
	"github.com/unicollab/unicollab/internal/repository"
)

// Store keeps every entity in memory behind a single lock, so each
// repository call is all-or-nothing like its Postgres counterpart.
type Store struct {
	mu            sync.Mutex
	users         map[uuid.UUID]domain.User
	projects      map[uuid.UUID]domain.Project
	members       map[uuid.UUID][]uuid.UUID
	requests      map[uuid.UUID]domain.CollaborationRequest
	notifications []domain.Notification
	teams         map[uuid.UUID]domain.Team
	teamMembers   map[uuid.UUID][]uuid.UUID

	failNotification error
}

func NewStore() *Store {
	return &Store{
		users:       make(map[uuid.UUID]domain.User),
		projects:    make(map[uuid.UUID]domain.Project),
		members:     make(map[uuid.UUID][]uuid.UUID),
		requests:    make(map[uuid.UUID]domain.CollaborationRequest),
		teams:       make(map[uuid.UUID]domain.Team),
		teamMembers: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (s *Store) Users() UserRepo                 { return UserRepo{s} }
func (s *Store) Projects() ProjectRepo           { return ProjectRepo{s} }
func (s *Store) Requests() CollaborationRepo     { return CollaborationRepo{s} }
func (s *Store) Notifications() NotificationRepo { return NotificationRepo{s} }
func (s *Store) Teams() TeamRepo                 { return TeamRepo{s} }

// FailNotifications makes every notification insert return err until it is
// called again with nil.
func (s *Store) FailNotifications(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNotification = err
}

func (s *Store) summary(id uuid.UUID) domain.UserSummary {
	u, ok := s.users[id]
	if !ok {
		return domain.UserSummary{ID: id}
	}
	return u.Summary()
}

func paginate[T any](items []T, page domain.Page) []T {
	page = page.Normalize()
	start := page.Offset()
	if start >= len(items) {
		return nil
	}
	end := min(start+page.Limit, len(items))
	return items[start:end]
}

// --- users ---

type UserRepo struct{ *Store }

func (r UserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrDuplicateEmail
		}
	}
	r.users[u.ID] = *u
	return nil
}

func (r UserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r UserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (r UserRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = *u
	return nil
}

// --- projects ---

type ProjectRepo struct{ *Store }

func (r ProjectRepo) Create(_ context.Context, p *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *p
	stored.RequiredSkills = slices.Clone(p.RequiredSkills)
	stored.Owner, stored.Members = nil, nil
	r.projects[p.ID] = stored
	r.members[p.ID] = []uuid.UUID{p.OwnerID}
	return nil
}

func (r ProjectRepo) load(id uuid.UUID) *domain.Project {
	p, ok := r.projects[id]
	if !ok {
		return nil
	}
	owner := r.summary(p.OwnerID)
	p.Owner = &owner
	p.RequiredSkills = slices.Clone(p.RequiredSkills)
	p.Members = nil
	for _, m := range r.members[id] {
		p.Members = append(p.Members, r.summary(m))
	}
	return &p
}

func (r ProjectRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(id), nil
}

func (r ProjectRepo) List(_ context.Context, f domain.ProjectFilter) ([]domain.Project, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Project
	for id, p := range r.projects {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Search != "" {
			q := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(p.Title), q) && !strings.Contains(strings.ToLower(p.Description), q) {
				continue
			}
		}
		if !containsAll(p.RequiredSkills, f.Skills) {
			continue
		}
		if f.MemberID != nil && !slices.Contains(r.members[id], *f.MemberID) {
			continue
		}
		out = append(out, *r.load(id))
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := &out[i], &out[j]
		if f.Order != "asc" {
			a, b = b, a
		}
		switch f.SortBy {
		case domain.SortByTitle:
			return a.Title < b.Title
		case domain.SortByDeadline:
			// Missing deadlines sort last in both directions.
			if out[i].Deadline == nil || out[j].Deadline == nil {
				return out[i].Deadline != nil && out[j].Deadline == nil
			}
			return a.Deadline.Before(*b.Deadline)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})
	return paginate(out, f.Page), len(out), nil
}

func containsAll(have, want []string) bool {
	for _, w := range want {
		if !slices.Contains(have, w) {
			return false
		}
	}
	return true
}

func (r ProjectRepo) Update(_ context.Context, p *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[p.ID]; !ok {
		return repository.ErrNotFound
	}
	if p.MaxMembers != nil && *p.MaxMembers < len(r.members[p.ID]) {
		return repository.ErrCapacityTooLow
	}
	stored := *p
	stored.RequiredSkills = slices.Clone(p.RequiredSkills)
	stored.Owner, stored.Members = nil, nil
	r.projects[p.ID] = stored
	return nil
}

func (r ProjectRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.projects, id)
	delete(r.members, id)
	for rid, req := range r.requests {
		if req.ProjectID == id {
			delete(r.requests, rid)
		}
	}
	for i := range r.notifications {
		if n := r.notifications[i].RelatedProjectID; n != nil && *n == id {
			r.notifications[i].RelatedProjectID = nil
		}
	}
	return nil
}

func (r ProjectRepo) AddMember(_ context.Context, projectID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[projectID]
	if !ok {
		return repository.ErrNotFound
	}
	members := r.members[projectID]
	if slices.Contains(members, userID) {
		return repository.ErrAlreadyMember
	}
	if p.MaxMembers != nil && len(members) >= *p.MaxMembers {
		return repository.ErrCapacityReached
	}
	r.members[projectID] = append(members, userID)
	return nil
}

func (r ProjectRepo) RemoveMember(_ context.Context, projectID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[projectID]
	if !ok {
		return repository.ErrNotFound
	}
	if p.OwnerID == userID {
		return repository.ErrOwnerCannotLeave
	}
	members := r.members[projectID]
	i := slices.Index(members, userID)
	if i < 0 {
		return repository.ErrNotMember
	}
	r.members[projectID] = slices.Delete(members, i, i+1)
	return nil
}

func (r ProjectRepo) Stats(_ context.Context, userID uuid.UUID) (*domain.DashboardStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var s domain.DashboardStats
	for id, p := range r.projects {
		if p.OwnerID != userID && !slices.Contains(r.members[id], userID) {
			continue
		}
		s.TotalProjects++
		if p.Status == domain.ProjectStatusActive {
			s.ActiveProjects++
		}
		if p.OwnerID != userID {
			s.Collaborations++
		}
	}
	return &s, nil
}

// --- collaboration requests ---

type CollaborationRepo struct{ *Store }

func (r CollaborationRepo) load(id uuid.UUID) *domain.CollaborationRequest {
	req, ok := r.requests[id]
	if !ok {
		return nil
	}
	requester := r.summary(req.RequesterID)
	req.Requester = &requester
	if p, ok := r.projects[req.ProjectID]; ok {
		req.Project = &domain.ProjectSummary{ID: p.ID, Title: p.Title}
	}
	return &req
}

func (r CollaborationRepo) Create(_ context.Context, req *domain.CollaborationRequest, notice *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slices.Contains(r.members[req.ProjectID], req.RequesterID) {
		return repository.ErrAlreadyMember
	}
	for _, existing := range r.requests {
		if existing.ProjectID == req.ProjectID && existing.RequesterID == req.RequesterID &&
			existing.Status == domain.RequestStatusPending {
			return repository.ErrDuplicatePending
		}
	}
	if notice != nil && r.failNotification != nil {
		return r.failNotification
	}

	stored := *req
	stored.Requester, stored.Project = nil, nil
	r.requests[req.ID] = stored
	if notice != nil {
		r.notifications = append(r.notifications, *notice)
	}
	return nil
}

func (r CollaborationRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.CollaborationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(id), nil
}

func (r CollaborationRepo) GetPending(_ context.Context, projectID, requesterID uuid.UUID) (*domain.CollaborationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, req := range r.requests {
		if req.ProjectID == projectID && req.RequesterID == requesterID && req.Status == domain.RequestStatusPending {
			return r.load(id), nil
		}
	}
	return nil, nil
}

func (r CollaborationRepo) List(_ context.Context, f domain.RequestFilter) ([]domain.CollaborationRequest, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.CollaborationRequest
	for id, req := range r.requests {
		if f.OwnerID != nil && r.projects[req.ProjectID].OwnerID != *f.OwnerID {
			continue
		}
		if f.RequesterID != nil && req.RequesterID != *f.RequesterID {
			continue
		}
		if f.Status != "" && req.Status != f.Status {
			continue
		}
		out = append(out, *r.load(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, f.Page), len(out), nil
}

func (r CollaborationRepo) Respond(_ context.Context, resp domain.RequestResponse, notice *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[resp.RequestID]
	if !ok || req.Status != domain.RequestStatusPending {
		return repository.ErrRequestNotPending
	}
	if _, ok := r.projects[resp.ProjectID]; !ok {
		return repository.ErrNotFound
	}
	if notice != nil && r.failNotification != nil {
		return r.failNotification
	}

	req.Status = resp.Status
	req.RespondedAt = &resp.RespondedAt
	req.RespondedBy = &resp.ResponderID
	req.UpdatedAt = resp.RespondedAt
	r.requests[req.ID] = req

	if resp.Status == domain.RequestStatusAccepted && !slices.Contains(r.members[resp.ProjectID], resp.RequesterID) {
		r.members[resp.ProjectID] = append(r.members[resp.ProjectID], resp.RequesterID)
	}
	if notice != nil {
		r.notifications = append(r.notifications, *notice)
	}
	return nil
}

func (r CollaborationRepo) DeletePending(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok || req.Status != domain.RequestStatusPending {
		return repository.ErrRequestNotPending
	}
	delete(r.requests, id)
	return nil
}

// --- notifications ---

type NotificationRepo struct{ *Store }

func (r NotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNotification != nil {
		return r.failNotification
	}
	r.notifications = append(r.notifications, *n)
	return nil
}

func (r NotificationRepo) List(_ context.Context, f domain.NotificationFilter) ([]domain.Notification, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notification
	for i := len(r.notifications) - 1; i >= 0; i-- {
		n := r.notifications[i]
		if n.RecipientID != f.RecipientID {
			continue
		}
		if f.Read != nil && n.Read != *f.Read {
			continue
		}
		out = append(out, n)
	}
	return paginate(out, f.Page), len(out), nil
}

func (r NotificationRepo) CountUnread(_ context.Context, recipientID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r NotificationRepo) MarkRead(_ context.Context, id, recipientID uuid.UUID) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.notifications {
		if r.notifications[i].ID == id && r.notifications[i].RecipientID == recipientID {
			r.notifications[i].Read = true
			n := r.notifications[i]
			return &n, nil
		}
	}
	return nil, nil
}

func (r NotificationRepo) MarkAllRead(_ context.Context, recipientID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	updated := 0
	for i := range r.notifications {
		if r.notifications[i].RecipientID == recipientID && !r.notifications[i].Read {
			r.notifications[i].Read = true
			updated++
		}
	}
	return updated, nil
}

func (r NotificationRepo) Delete(_ context.Context, id, recipientID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.notifications {
		if r.notifications[i].ID == id && r.notifications[i].RecipientID == recipientID {
			r.notifications = slices.Delete(r.notifications, i, i+1)
			return true, nil
		}
	}
	return false, nil
}

// --- teams ---

type TeamRepo struct{ *Store }

func (r TeamRepo) load(id uuid.UUID) *domain.Team {
	t, ok := r.teams[id]
	if !ok {
		return nil
	}
	leader := r.summary(t.LeaderID)
	t.Leader = &leader
	t.Members = nil
	for _, m := range r.teamMembers[id] {
		t.Members = append(t.Members, r.summary(m))
	}
	return &t
}

func (r TeamRepo) Create(_ context.Context, t *domain.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *t
	stored.Leader, stored.Members = nil, nil
	r.teams[t.ID] = stored
	r.teamMembers[t.ID] = []uuid.UUID{t.LeaderID}
	return nil
}

func (r TeamRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(id), nil
}

func (r TeamRepo) List(_ context.Context, f domain.TeamFilter) ([]domain.Team, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Team
	for id, t := range r.teams {
		if f.Search != "" && !strings.Contains(strings.ToLower(t.Name+" "+t.Description), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, *r.load(id))
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := &out[i], &out[j]
		if f.Order != "asc" {
			a, b = b, a
		}
		if f.SortBy == domain.SortByName {
			return a.Name < b.Name
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return paginate(out, f.Page), len(out), nil
}

func (r TeamRepo) Update(_ context.Context, t *domain.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *t
	stored.Leader, stored.Members = nil, nil
	r.teams[t.ID] = stored
	return nil
}

func (r TeamRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.teams, id)
	delete(r.teamMembers, id)
	return nil
}

func (r TeamRepo) AddMember(_ context.Context, teamID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.Contains(r.teamMembers[teamID], userID) {
		r.teamMembers[teamID] = append(r.teamMembers[teamID], userID)
	}
	return nil
}

func (r TeamRepo) RemoveMember(_ context.Context, teamID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.teams[teamID].LeaderID == userID {
		return nil
	}
	r.teamMembers[teamID] = slices.DeleteFunc(r.teamMembers[teamID], func(id uuid.UUID) bool { return id == userID })
	return nil
}

var (
	_ repository.UserRepository          = UserRepo{}
	_ repository.ProjectRepository       = ProjectRepo{}
	_ repository.CollaborationRepository = CollaborationRepo{}
	_ repository.NotificationRepository  = NotificationRepo{}
	_ repository.TeamRepository          = TeamRepo{}
)
