package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	University   string    `json:"university"`
	Major        string    `json:"major"`
	Bio          string    `json:"bio"`
	Skills       []string  `json:"skills"`
	Avatar       *string   `json:"avatar,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserSummary is the public projection of a user embedded in other entities.
type UserSummary struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	University string    `json:"university,omitempty"`
	Major      string    `json:"major,omitempty"`
	Avatar     *string   `json:"avatar,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		University: u.University,
		Major:      u.Major,
		Avatar:     u.Avatar,
	}
}
