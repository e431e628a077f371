package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unicollab/unicollab/internal/domain"
)

func TestCreateProjectOwnerIsMember(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser(t, "Alice")

	p := env.createProject(t, owner, nil)
	assert.Equal(t, owner.ID, p.OwnerID)
	assert.Equal(t, domain.ProjectStatusPlanning, p.Status)
	assert.Equal(t, []uuid.UUID{owner.ID}, p.MemberIDs())
	assert.Equal(t, owner.Name, p.Owner.Name)
}

func TestRequiredSkillsKeepOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.addUser(t, "Alice")

	created, err := env.projects.Create(ctx, owner.ID, CreateProjectInput{
		Title:          "Study planner",
		Description:    "Shared timetable",
		RequiredSkills: []string{"React", "Node.js"},
	})
	require.NoError(t, err)

	fetched, err := env.projects.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"React", "Node.js"}, fetched.RequiredSkills)
}

func TestJoinUntilFull(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.addUser(t, "Alice")
	p := env.createProject(t, owner, intPtr(3))

	for _, name := range []string{"Bob", "Carol"} {
		u := env.addUser(t, name)
		joined, err := env.projects.Join(ctx, p.ID, u.ID)
		require.NoError(t, err)
		assert.True(t, joined.HasMember(u.ID))
	}

	late := env.addUser(t, "Dave")
	_, err := env.projects.Join(ctx, p.ID, late.ID)
	assert.ErrorIs(t, err, ErrProjectFull)
	assert.Equal(t, KindConflict, KindOf(err))

	fetched, err := env.projects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, fetched.Members, 3)
}

func TestJoinNotifiesOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.addUser(t, "Alice")
	bob := env.addUser(t, "Bob")
	p := env.createProject(t, owner, nil)

	_, err := env.projects.Join(ctx, p.ID, bob.ID)
	require.NoError(t, err)

	unread := env.unread(t, owner.ID)
	require.Len(t, unread, 1)
	assert.Equal(t, domain.NotificationMemberJoined, unread[0].Type)
	assert.Equal(t, bob.ID, *unread[0].SenderID)
	assert.Equal(t, []uuid.UUID{bob.ID}, env.notifier.joined)
}

func TestJoinErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.addUser(t, "Alice")
	p := env.createProject(t, owner, nil)

	_, err := env.projects.Join(ctx, uuid.New(), owner.ID)
	assert.ErrorIs(t, err, ErrProjectNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = env.projects.Join(ctx, p.ID, owner.ID)
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestConcurrentJoinRespectsCapacity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.addUser(t, "Alice")
	p := env.createProject(t, owner, intPtr(5))

	users := make([]*domain.User, 20)
	for i := range users {
		users[i] = env.addUser(t, "user"+uuid.NewString()[:8])
	}

	var ok, full atomic.Int32
	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := env.projects.Join(ctx, p.ID, id)
			switch {
			case err == nil:
				ok.Add(1)
			case KindOf(err) == KindConflict:
				full.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(u.ID)
	}
	wg.Wait()

	assert.Equal(t, int32(4), ok.Load())
	assert.Equal(t, int32(16), full.Load())

	fetched, err := env.projects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, fetched.Members, 5)
}

func TestLeave(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.addUser(t, "Alice")
	bob := env.addUser(t, "Bob")
	carol := env.addUser(t, "Carol")
	p := env.createProject(t, owner, nil)

	_, err := env.projects.Leave(ctx, p.ID, owner.ID)
	assert.ErrorIs(t, err, ErrOwnerCannotLeave)

	_, err = env.projects.Leave(ctx, p.ID, carol.ID)
	assert.ErrorIs(t, err, ErrNotMember)

	_, err = env.projects.Join(ctx, p.ID, bob.ID)
	require.NoError(t, err)

	left, err := env.projects.Leave(ctx, p.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, left.HasMember(bob.ID))
	assert.True(t, left.HasMember(owner.ID))
	assert.Equal(t, []uuid.UUID{bob.ID}, env.notifier.left)

	unread := env.unread(t, owner.ID)
	require.Len(t, unread, 2)
	assert.Equal(t, domain.NotificationMemberLeft, unread[0].Type)
}

func TestUpdateProject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.addUser(t, "Alice")
	bob := env.addUser(t, "Bob")
	carol := env.addUser(t, "Carol")
	p := env.createProject(t, owner, nil)
	_, err := env.projects.Join(ctx, p.ID, bob.ID)
	require.NoError(t, err)
	_, err = env.projects.Join(ctx, p.ID, carol.ID)
	require.NoError(t, err)

	title := "Renamed"
	_, err = env.projects.Update(ctx, p.ID, bob.ID, UpdateProjectInput{Title: &title})
	assert.ErrorIs(t, err, ErrNotProjectOwner)
	assert.Equal(t, KindForbidden, KindOf(err))

	_, err = env.projects.Update(ctx, p.ID, owner.ID, UpdateProjectInput{MaxMembers: intPtr(2)})
	assert.ErrorIs(t, err, ErrCapacityTooLow)

	bogus := domain.ProjectStatus("archived")
	_, err = env.projects.Update(ctx, p.ID, owner.ID, UpdateProjectInput{Status: &bogus})
	assert.Equal(t, KindValidation, KindOf(err))

	active := domain.ProjectStatusActive
	updated, err := env.projects.Update(ctx, p.ID, owner.ID, UpdateProjectInput{
		Title:      &title,
		Status:     &active,
		MaxMembers: intPtr(3),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, domain.ProjectStatusActive, updated.Status)
	assert.Equal(t, 3, *updated.MaxMembers)
	assert.Len(t, updated.Members, 3)

	for _, member := range []uuid.UUID{bob.ID, carol.ID} {
		unread := env.unread(t, member)
		require.Len(t, unread, 1)
		assert.Equal(t, domain.NotificationProjectUpdate, unread[0].Type)
	}

	cleared, err := env.projects.Update(ctx, p.ID, owner.ID, UpdateProjectInput{MaxMembers: intPtr(0)})
	require.NoError(t, err)
	assert.Nil(t, cleared.MaxMembers)
}

func TestDeleteProject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.addUser(t, "Alice")
	bob := env.addUser(t, "Bob")
	p := env.createProject(t, owner, nil)

	assert.ErrorIs(t, env.projects.Delete(ctx, p.ID, bob.ID), ErrNotProjectOwner)
	require.NoError(t, env.projects.Delete(ctx, p.ID, owner.ID))

	_, err := env.projects.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestListProjects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.addUser(t, "Alice")
	bob := env.addUser(t, "Bob")

	_, err := env.projects.Create(ctx, owner.ID, CreateProjectInput{
		Title: "Robotics", Description: "Line follower", RequiredSkills: []string{"C", "Python"},
	})
	require.NoError(t, err)
	web, err := env.projects.Create(ctx, owner.ID, CreateProjectInput{
		Title: "Web portal", Description: "Club website", RequiredSkills: []string{"React"},
	})
	require.NoError(t, err)
	_, err = env.projects.Join(ctx, web.ID, bob.ID)
	require.NoError(t, err)

	all, err := env.projects.List(ctx, domain.ProjectFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Metadata.TotalCount)

	bySkill, err := env.projects.List(ctx, domain.ProjectFilter{Skills: []string{"Python"}})
	require.NoError(t, err)
	require.Len(t, bySkill.Data, 1)
	assert.Equal(t, "Robotics", bySkill.Data[0].Title)

	search, err := env.projects.List(ctx, domain.ProjectFilter{Search: "CLUB"})
	require.NoError(t, err)
	require.Len(t, search.Data, 1)
	assert.Equal(t, web.ID, search.Data[0].ID)

	mine, err := env.projects.ListMine(ctx, bob.ID, domain.Page{})
	require.NoError(t, err)
	require.Len(t, mine.Data, 1)
	assert.Equal(t, web.ID, mine.Data[0].ID)

	_, err = env.projects.List(ctx, domain.ProjectFilter{Status: "archived"})
	assert.Equal(t, KindValidation, KindOf(err))
	_, err = env.projects.List(ctx, domain.ProjectFilter{SortBy: "owner"})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestDashboardStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "Alice")
	bob := env.addUser(t, "Bob")

	active := domain.ProjectStatusActive
	mine := env.createProject(t, alice, nil)
	_, err := env.projects.Update(ctx, mine.ID, alice.ID, UpdateProjectInput{Status: &active})
	require.NoError(t, err)

	other := env.createProject(t, bob, nil)
	_, err = env.projects.Join(ctx, other.ID, alice.ID)
	require.NoError(t, err)
	env.createProject(t, bob, nil)

	stats, err := env.projects.Stats(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DashboardStats{TotalProjects: 2, ActiveProjects: 1, Collaborations: 1}, *stats)
}
