package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unicollab/unicollab/internal/domain"
)

func TestCollaborationScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "Alice")
	bob := env.addUser(t, "Bob")
	carol := env.addUser(t, "Carol")

	p := env.createProject(t, alice, intPtr(1))
	assert.Equal(t, []uuid.UUID{alice.ID}, p.MemberIDs())

	req, err := env.requests.Submit(ctx, bob.ID, SubmitRequestInput{ProjectID: p.ID, Message: "I know React"})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusPending, req.Status)
	assert.Equal(t, "Bob", req.Requester.Name)
	assert.Equal(t, p.Title, req.Project.Title)

	aliceUnread := env.unread(t, alice.ID)
	require.Len(t, aliceUnread, 1)
	assert.Equal(t, domain.NotificationCollaborationRequest, aliceUnread[0].Type)
	assert.Equal(t, req.ID, *aliceUnread[0].RelatedRequestID)

	accepted, err := env.requests.Accept(ctx, req.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusAccepted, accepted.Status)
	assert.Equal(t, alice.ID, *accepted.RespondedBy)
	assert.NotNil(t, accepted.RespondedAt)

	project, err := env.projects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, project.HasMember(bob.ID))

	bobUnread := env.unread(t, bob.ID)
	require.Len(t, bobUnread, 1)
	assert.Equal(t, "Request Accepted", bobUnread[0].Title)

	_, err = env.projects.Join(ctx, p.ID, carol.ID)
	assert.ErrorIs(t, err, ErrProjectFull)
	assert.Equal(t, KindConflict, KindOf(err))

	assert.Equal(t, []domain.RequestStatus{domain.RequestStatusAccepted}, env.notifier.requests)
	assert.Contains(t, env.notifier.joined, bob.ID)
}

func TestSubmitErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "Alice")
	bob := env.addUser(t, "Bob")
	p := env.createProject(t, alice, nil)

	_, err := env.requests.Submit(ctx, bob.ID, SubmitRequestInput{ProjectID: uuid.New()})
	assert.ErrorIs(t, err, ErrProjectNotFound)

	_, err = env.requests.Submit(ctx, alice.ID, SubmitRequestInput{ProjectID: p.ID})
	assert.ErrorIs(t, err, ErrAlreadyMember)

	_, err = env.requests.Submit(ctx, bob.ID, SubmitRequestInput{ProjectID: p.ID})
	require.NoError(t, err)
	_, err = env.requests.Submit(ctx, bob.ID, SubmitRequestInput{ProjectID: p.ID})
	assert.ErrorIs(t, err, ErrRequestPending)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestResubmitAfterRejection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "Alice")
	bob := env.addUser(t, "Bob")
	p := env.createProject(t, alice, nil)

	req, err := env.requests.Submit(ctx, bob.ID, SubmitRequestInput{ProjectID: p.ID})
	require.NoError(t, err)
	_, err = env.requests.Reject(ctx, req.ID, alice.ID)
	require.NoError(t, err)

	_, err = env.requests.Submit(ctx, bob.ID, SubmitRequestInput{ProjectID: p.ID})
	assert.NoError(t, err)
}

func TestConcurrentSubmitKeepsOnePending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "Alice")
	bob := env.addUser(t, "Bob")
	p := env.createProject(t, alice, nil)

	var created, rejected atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.requests.Submit(ctx, bob.ID, SubmitRequestInput{ProjectID: p.ID})
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, ErrRequestPending):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(9), rejected.Load())

	list, err := env.requests.List(ctx, alice.ID, domain.RequestStatusPending, domain.Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Metadata.TotalCount)
	assert.Len(t, env.unread(t, alice.ID), 1)
}

func TestRespondTwiceFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "Alice")
	bob := env.addUser(t, "Bob")
	p := env.createProject(t, alice, nil)

	req, err := env.requests.Submit(ctx, bob.ID, SubmitRequestInput{ProjectID: p.ID})
	require.NoError(t, err)
	_, err = env.requests.Accept(ctx, req.ID, alice.ID)
	require.NoError(t, err)

	_, err = env.requests.Accept(ctx, req.ID, alice.ID)
	assert.ErrorIs(t, err, ErrRequestNotPending)
	_, err = env.requests.Reject(ctx, req.ID, alice.ID)
	assert.ErrorIs(t, err, ErrRequestNotPending)
	assert.Equal(t, KindConflict, KindOf(err))

	assert.Len(t, env.unread(t, bob.ID), 1)
}

func TestRespondRequiresOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "Alice")
	bob := env.addUser(t, "Bob")
	p := env.createProject(t, alice, nil)

	req, err := env.requests.Submit(ctx, bob.ID, SubmitRequestInput{ProjectID: p.ID})
	require.NoError(t, err)

	_, err = env.requests.Accept(ctx, req.ID, bob.ID)
	assert.ErrorIs(t, err, ErrNotProjectOwner)
	assert.Equal(t, KindForbidden, KindOf(err))

	_, err = env.requests.Reject(ctx, uuid.New(), alice.ID)
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestRejectNotifiesRequester(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "Alice")
	bob := env.addUser(t, "Bob")
	p := env.createProject(t, alice, nil)

	req, err := env.requests.Submit(ctx, bob.ID, SubmitRequestInput{ProjectID: p.ID})
	require.NoError(t, err)

	rejected, err := env.requests.Reject(ctx, req.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusRejected, rejected.Status)

	project, err := env.projects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, project.HasMember(bob.ID))

	unread := env.unread(t, bob.ID)
	require.Len(t, unread, 1)
	assert.Equal(t, "Request Rejected", unread[0].Title)
}

func TestAcceptIsAllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "Alice")
	bob := env.addUser(t, "Bob")
	p := env.createProject(t, alice, nil)

	req, err := env.requests.Submit(ctx, bob.ID, SubmitRequestInput{ProjectID: p.ID})
	require.NoError(t, err)

	env.store.FailNotifications(errors.New("disk full"))
	_, err = env.requests.Accept(ctx, req.ID, alice.ID)
	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))
	env.store.FailNotifications(nil)

	stored, err := env.store.Requests().GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusPending, stored.Status)

	project, err := env.projects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, project.HasMember(bob.ID))
	assert.Empty(t, env.unread(t, bob.ID))

	_, err = env.requests.Accept(ctx, req.ID, alice.ID)
	assert.NoError(t, err)
}

func TestWithdraw(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "Alice")
	bob := env.addUser(t, "Bob")
	p := env.createProject(t, alice, nil)

	req, err := env.requests.Submit(ctx, bob.ID, SubmitRequestInput{ProjectID: p.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, env.requests.Withdraw(ctx, req.ID, alice.ID), ErrNotRequester)
	require.NoError(t, env.requests.Withdraw(ctx, req.ID, bob.ID))
	assert.ErrorIs(t, env.requests.Withdraw(ctx, req.ID, bob.ID), ErrRequestNotFound)

	again, err := env.requests.Submit(ctx, bob.ID, SubmitRequestInput{ProjectID: p.ID})
	require.NoError(t, err)
	_, err = env.requests.Accept(ctx, again.ID, alice.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, env.requests.Withdraw(ctx, again.ID, bob.ID), ErrRequestNotPending)
}

func TestListRequests(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "Alice")
	bob := env.addUser(t, "Bob")
	carol := env.addUser(t, "Carol")
	alicesProject := env.createProject(t, alice, nil)
	carolsProject := env.createProject(t, carol, nil)

	first, err := env.requests.Submit(ctx, bob.ID, SubmitRequestInput{ProjectID: alicesProject.ID})
	require.NoError(t, err)
	_, err = env.requests.Submit(ctx, bob.ID, SubmitRequestInput{ProjectID: carolsProject.ID})
	require.NoError(t, err)
	_, err = env.requests.Accept(ctx, first.ID, alice.ID)
	require.NoError(t, err)

	forAlice, err := env.requests.List(ctx, alice.ID, "", domain.Page{})
	require.NoError(t, err)
	require.Len(t, forAlice.Data, 1)
	assert.Equal(t, first.ID, forAlice.Data[0].ID)

	pending, err := env.requests.List(ctx, alice.ID, domain.RequestStatusPending, domain.Page{})
	require.NoError(t, err)
	assert.Empty(t, pending.Data)

	bobs, err := env.requests.ListMine(ctx, bob.ID, "", domain.Page{})
	require.NoError(t, err)
	assert.Equal(t, 2, bobs.Metadata.TotalCount)

	_, err = env.requests.List(ctx, alice.ID, "maybe", domain.Page{})
	assert.Equal(t, KindValidation, KindOf(err))
}
