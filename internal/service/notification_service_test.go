package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unicollab/unicollab/internal/domain"
	"github.com/unicollab/unicollab/internal/logger"
	"github.com/unicollab/unicollab/internal/repository"
)

func seedNotifications(t *testing.T, env *testEnv, recipient uuid.UUID, n int) []*domain.Notification {
	t.Helper()
	out := make([]*domain.Notification, n)
	for i := range n {
		created, err := env.notifications.Create(context.Background(), NotificationInput{
			RecipientID: recipient,
			Type:        domain.NotificationProjectUpdate,
			Title:       "Project Updated",
			Message:     fmt.Sprintf("update %d", i),
		})
		require.NoError(t, err)
		out[i] = created
	}
	return out
}

func TestMarkAllReadOnlyTouchesRecipient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	x := env.addUser(t, "Xavier")
	y := env.addUser(t, "Yara")
	seedNotifications(t, env, x.ID, 3)
	seedNotifications(t, env, y.ID, 2)

	updated, err := env.notifications.MarkAllRead(ctx, x.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, updated)

	count, err := env.notifications.UnreadCount(ctx, x.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = env.notifications.UnreadCount(ctx, y.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	again, err := env.notifications.MarkAllRead(ctx, x.ID)
	require.NoError(t, err)
	assert.Zero(t, again)
	assert.Equal(t, []uuid.UUID{x.ID}, env.notifier.reads)
}

func TestMarkReadScopedToRecipient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	x := env.addUser(t, "Xavier")
	y := env.addUser(t, "Yara")
	n := seedNotifications(t, env, x.ID, 1)[0]

	_, err := env.notifications.MarkRead(ctx, n.ID, y.ID)
	assert.ErrorIs(t, err, ErrNotificationNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))

	read, err := env.notifications.MarkRead(ctx, n.ID, x.ID)
	require.NoError(t, err)
	assert.True(t, read.Read)

	read, err = env.notifications.MarkRead(ctx, n.ID, x.ID)
	require.NoError(t, err)
	assert.True(t, read.Read)
}

func TestDeleteNotification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	x := env.addUser(t, "Xavier")
	y := env.addUser(t, "Yara")
	n := seedNotifications(t, env, x.ID, 1)[0]

	assert.ErrorIs(t, env.notifications.Delete(ctx, n.ID, y.ID), ErrNotificationNotFound)
	require.NoError(t, env.notifications.Delete(ctx, n.ID, x.ID))
	assert.ErrorIs(t, env.notifications.Delete(ctx, n.ID, x.ID), ErrNotificationNotFound)

	count, err := env.notifications.UnreadCount(ctx, x.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUnreadCountCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	x := env.addUser(t, "Xavier")
	seedNotifications(t, env, x.ID, 2)

	count, err := env.notifications.UnreadCount(ctx, x.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Zero(t, env.cache.hits)

	count, err = env.notifications.UnreadCount(ctx, x.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 1, env.cache.hits)

	seedNotifications(t, env, x.ID, 1)
	count, err = env.notifications.UnreadCount(ctx, x.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, 1, env.cache.hits)
}

func TestListNotifications(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	x := env.addUser(t, "Xavier")
	seeded := seedNotifications(t, env, x.ID, 5)
	_, err := env.notifications.MarkRead(ctx, seeded[0].ID, x.ID)
	require.NoError(t, err)

	page, err := env.notifications.List(ctx, x.ID, nil, domain.Page{Number: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, seeded[4].ID, page.Data[0].ID)
	assert.Equal(t, domain.ListMetadata{
		TotalCount: 5, TotalPages: 3, CurrentPage: 1, Limit: 2, HasNextPage: true, HasPrevPage: false,
	}, page.Metadata)

	read := true
	onlyRead, err := env.notifications.List(ctx, x.ID, &read, domain.Page{})
	require.NoError(t, err)
	require.Len(t, onlyRead.Data, 1)
	assert.Equal(t, seeded[0].ID, onlyRead.Data[0].ID)
}

func TestCreateNotificationRejectsUnknownType(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.notifications.Create(context.Background(), NotificationInput{
		RecipientID: uuid.New(),
		Type:        "party_invite",
		Title:       "Party",
		Message:     "Tonight",
	})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestCreateNotificationPushes(t *testing.T) {
	env := newTestEnv(t)
	x := env.addUser(t, "Xavier")
	sender := env.addUser(t, "Sam").Summary()

	n, err := env.notifications.Create(context.Background(), NotificationInput{
		RecipientID: x.ID,
		Sender:      &sender,
		Type:        domain.NotificationMemberJoined,
		Title:       "New Member",
		Message:     "Sam joined",
		ActionURL:   "/projects/1",
	})
	require.NoError(t, err)
	assert.Equal(t, sender.ID, *n.SenderID)
	assert.Equal(t, "/projects/1", *n.ActionURL)
	assert.False(t, n.Read)

	require.Len(t, env.notifier.notifications, 1)
	assert.Equal(t, n.ID, env.notifier.notifications[0].ID)
}

// racingCounter runs a concurrent write after the unread count was read
// but before the caller caches it.
type racingCounter struct {
	repository.NotificationRepository
	during func()
}

func (r *racingCounter) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	n, err := r.NotificationRepository.CountUnread(ctx, recipientID)
	if r.during != nil {
		during := r.during
		r.during = nil
		during()
	}
	return n, err
}

func TestUnreadCountIgnoresStaleRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	x := env.addUser(t, "Xavier")
	seedNotifications(t, env, x.ID, 1)

	repo := &racingCounter{NotificationRepository: env.store.Notifications()}
	svc := NewNotificationService(repo, env.cache, logger.Discard())
	repo.during = func() {
		_, err := svc.Create(ctx, NotificationInput{
			RecipientID: x.ID,
			Type:        domain.NotificationProjectUpdate,
			Title:       "Project Updated",
			Message:     "concurrent",
		})
		require.NoError(t, err)
	}

	count, err := svc.UnreadCount(ctx, x.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = svc.UnreadCount(ctx, x.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
