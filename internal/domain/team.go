package domain

import (
	"time"

	"github.com/google/uuid"
)

type Team struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	LeaderID    uuid.UUID   `json:"leaderId"`
	University  string      `json:"university"`
	Major       string      `json:"major"`
	Avatar      *string     `json:"avatar,omitempty"`
	ProjectIDs  []uuid.UUID `json:"projects"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	// Joined fields
	Leader  *UserSummary  `json:"leader,omitempty"`
	Members []UserSummary `json:"members"`
}

func (t *Team) HasMember(userID uuid.UUID) bool {
	for _, m := range t.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

type TeamFilter struct {
	Search string
	SortBy string
	Order  string
	Page   Page
}
