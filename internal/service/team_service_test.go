package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unicollab/unicollab/internal/domain"
)

func TestTeamLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	leader := env.addUser(t, "Alice")
	bob := env.addUser(t, "Bob")

	team, err := env.teams.Create(ctx, leader.ID, CreateTeamInput{Name: " Hackers ", Description: "Weekend builds"})
	require.NoError(t, err)
	assert.Equal(t, "Hackers", team.Name)
	assert.True(t, team.HasMember(leader.ID))
	assert.NotNil(t, team.ProjectIDs)

	_, err = env.teams.AddMember(ctx, team.ID, bob.ID, bob.ID)
	assert.ErrorIs(t, err, ErrNotTeamLeader)

	team, err = env.teams.AddMember(ctx, team.ID, leader.ID, bob.ID)
	require.NoError(t, err)
	team, err = env.teams.AddMember(ctx, team.ID, leader.ID, bob.ID)
	require.NoError(t, err)
	assert.Len(t, team.Members, 2)

	_, err = env.teams.AddMember(ctx, team.ID, leader.ID, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = env.teams.RemoveMember(ctx, team.ID, leader.ID, leader.ID)
	assert.ErrorIs(t, err, ErrLeaderCannotLeave)

	team, err = env.teams.RemoveMember(ctx, team.ID, leader.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, team.HasMember(bob.ID))

	name := "Builders"
	_, err = env.teams.Update(ctx, team.ID, bob.ID, UpdateTeamInput{Name: &name})
	assert.ErrorIs(t, err, ErrNotTeamLeader)
	updated, err := env.teams.Update(ctx, team.ID, leader.ID, UpdateTeamInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Builders", updated.Name)

	assert.ErrorIs(t, env.teams.Delete(ctx, team.ID, bob.ID), ErrNotTeamLeader)
	require.NoError(t, env.teams.Delete(ctx, team.ID, leader.ID))
	_, err = env.teams.Get(ctx, team.ID)
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestListTeams(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	leader := env.addUser(t, "Alice")

	for _, name := range []string{"Zeta", "Alpha", "Mu"} {
		_, err := env.teams.Create(ctx, leader.ID, CreateTeamInput{Name: name})
		require.NoError(t, err)
	}

	sorted, err := env.teams.List(ctx, domain.TeamFilter{SortBy: domain.SortByName, Order: "asc"})
	require.NoError(t, err)
	require.Len(t, sorted.Data, 3)
	assert.Equal(t, "Alpha", sorted.Data[0].Name)
	assert.Equal(t, "Zeta", sorted.Data[2].Name)

	search, err := env.teams.List(ctx, domain.TeamFilter{Search: "mu"})
	require.NoError(t, err)
	assert.Equal(t, 1, search.Metadata.TotalCount)

	_, err = env.teams.List(ctx, domain.TeamFilter{SortBy: "members"})
	assert.Equal(t, KindValidation, KindOf(err))
}
