package domain

import (
	"time"

	"github.com/google/uuid"
)

type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusActive, ProjectStatusCompleted:
		return true
	}
	return false
}

type Project struct {
	ID             uuid.UUID     `json:"id"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	OwnerID        uuid.UUID     `json:"ownerId"`
	Status         ProjectStatus `json:"status"`
	MaxMembers     *int          `json:"maxMembers,omitempty"`
	Category       string        `json:"category"`
	RequiredSkills []string      `json:"requiredSkills"`
	Deadline       *time.Time    `json:"deadline,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
	// Joined fields
	Owner   *UserSummary  `json:"owner,omitempty"`
	Members []UserSummary `json:"members"`
}

// ProjectSummary is the projection embedded in requests and notifications.
type ProjectSummary struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

func (p *Project) HasMember(userID uuid.UUID) bool {
	for _, m := range p.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

// IsFull reports whether the project has reached its capacity.
// Projects without a capacity are never full.
func (p *Project) IsFull() bool {
	return p.MaxMembers != nil && len(p.Members) >= *p.MaxMembers
}

// MemberIDs returns the ids of every member, owner included.
func (p *Project) MemberIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.Members))
	for _, m := range p.Members {
		ids = append(ids, m.ID)
	}
	return ids
}

type ProjectFilter struct {
	Status   ProjectStatus
	Category string
	Search   string
	Skills   []string
	MemberID *uuid.UUID
	SortBy   string
	Order    string
	Page     Page
}

// Project list sort keys.
const (
	SortByCreatedAt = "createdAt"
	SortByTitle     = "title"
	SortByDeadline  = "deadline"
	SortByName      = "name"
)

type DashboardStats struct {
	TotalProjects  int `json:"totalProjects"`
	ActiveProjects int `json:"activeProjects"`
	Collaborations int `json:"collaborations"`
}
