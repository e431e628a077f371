package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type signup struct {
	Name     string   `json:"name" validate:"required,notblank,max=100"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8"`
	Status   string   `json:"status,omitempty" validate:"omitempty,oneof=planning active completed"`
	Limit    *int     `json:"limit,omitempty" validate:"omitempty,min=1"`
	Skills   []string `json:"skills" validate:"omitempty,max=3,dive,required"`
}

func TestStructValid(t *testing.T) {
	errs := Struct(signup{Name: "Ada", Email: "ada@uni.edu", Password: "longenough"})
	assert.False(t, errs.HasErrors())
}

func TestStructUsesJSONNames(t *testing.T) {
	zero := 0
	errs := Struct(signup{
		Name:     "   ",
		Email:    "nope",
		Password: "short",
		Status:   "archived",
		Limit:    &zero,
		Skills:   []string{"Go", ""},
	})

	assert.Equal(t, "name is required", errs["name"])
	assert.Equal(t, "email must be a valid email", errs["email"])
	assert.Equal(t, "password must be at least 8 characters", errs["password"])
	assert.Equal(t, "status must be one of: planning, active, completed", errs["status"])
	assert.Equal(t, "limit must be at least 1", errs["limit"])
	assert.Equal(t, "skills[1] is required", errs["skills[1]"])
}

func TestStructMissingRequired(t *testing.T) {
	errs := Struct(signup{})
	assert.Len(t, errs, 3)
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
}

func TestStructSliceMax(t *testing.T) {
	errs := Struct(signup{Name: "Ada", Email: "ada@uni.edu", Password: "longenough", Skills: []string{"a", "b", "c", "d"}})
	assert.Equal(t, "skills must contain at most 3 items", errs["skills"])
}
