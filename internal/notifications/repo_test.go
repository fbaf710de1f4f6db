package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexev/apexev-backend/pkg/db/dbtest"
	"github.com/apexev/apexev-backend/pkg/db/models"
	"github.com/apexev/apexev-backend/pkg/enums"
	pkgerrors "github.com/apexev/apexev-backend/pkg/errors"
)

type notificationFixture struct {
	svc   Service
	repo  Repository
	alice uuid.UUID
	bob   uuid.UUID
}

func newNotificationFixture(t *testing.T) notificationFixture {
	t.Helper()
	conn := dbtest.Open(t)
	alice := dbtest.CreateUser(t, conn, "Alice", "alice@example.com", enums.UserRoleCustomer)
	bob := dbtest.CreateUser(t, conn, "Bob", "bob@example.com", enums.UserRoleCustomer)

	repo := NewRepository(conn)
	svc, err := NewService(repo)
	require.NoError(t, err)
	return notificationFixture{svc: svc, repo: repo, alice: alice.ID, bob: bob.ID}
}

func (f notificationFixture) seed(t *testing.T, userID uuid.UUID, message string, createdAt time.Time) uuid.UUID {
	t.Helper()
	row := &models.Notification{UserID: userID, Message: message, CreatedAt: createdAt.UTC().Truncate(time.Second)}
	require.NoError(t, f.repo.Create(context.Background(), row))
	return row.ID
}

func TestRepository_ListNewestFirstScopedToUser(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	f.seed(t, f.alice, "first", base)
	f.seed(t, f.alice, "third", base.Add(2*time.Hour))
	f.seed(t, f.alice, "second", base.Add(time.Hour))
	f.seed(t, f.bob, "not yours", base.Add(3*time.Hour))

	items, err := f.svc.List(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"third", "second", "first"}, []string{items[0].Message, items[1].Message, items[2].Message})
}

func TestRepository_CountUnreadMatchesUnreadRows(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	now := time.Now()

	ids := []uuid.UUID{
		f.seed(t, f.alice, "a", now),
		f.seed(t, f.alice, "b", now),
		f.seed(t, f.alice, "c", now),
	}
	f.seed(t, f.bob, "d", now)

	require.NoError(t, f.svc.MarkRead(ctx, f.alice, ids[0]))

	count, err := f.svc.CountUnread(ctx, f.alice)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	items, err := f.svc.List(ctx, f.alice)
	require.NoError(t, err)
	var unread int64
	for _, item := range items {
		if !item.IsRead {
			unread++
		}
	}
	assert.Equal(t, unread, count)
}

func TestRepository_MarkAllReadIsIdempotent(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	f.seed(t, f.alice, "a", time.Now())
	f.seed(t, f.alice, "b", time.Now())
	f.seed(t, f.bob, "c", time.Now())

	updated, err := f.svc.MarkAllRead(ctx, f.alice)
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated)
	count, err := f.svc.CountUnread(ctx, f.alice)
	require.NoError(t, err)
	assert.Zero(t, count)

	updated, err = f.svc.MarkAllRead(ctx, f.alice)
	require.NoError(t, err)
	assert.Zero(t, updated)
	count, err = f.svc.CountUnread(ctx, f.alice)
	require.NoError(t, err)
	assert.Zero(t, count)

	bobCount, err := f.svc.CountUnread(ctx, f.bob)
	require.NoError(t, err)
	assert.EqualValues(t, 1, bobCount, "other users must be untouched")
}

func TestRepository_MarkReadOtherUsersNotificationIsNotFound(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	bobs := f.seed(t, f.bob, "private", time.Now())

	err := f.svc.MarkRead(ctx, f.alice, bobs)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	count, err := f.svc.CountUnread(ctx, f.bob)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "foreign mark-read must not mutate state")
}

func TestRepository_MarkReadTwiceSucceeds(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	id := f.seed(t, f.alice, "a", time.Now())

	require.NoError(t, f.svc.MarkRead(ctx, f.alice, id))
	require.NoError(t, f.svc.MarkRead(ctx, f.alice, id))

	items, err := f.svc.List(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].IsRead)
	assert.NotNil(t, items[0].ReadAt)
}

func TestRepository_MarkReadUnknownID(t *testing.T) {
	f := newNotificationFixture(t)
	err := f.svc.MarkRead(context.Background(), f.alice, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestRepository_DeleteAllOnlyRemovesCallerRows(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	f.seed(t, f.alice, "a", time.Now())
	f.seed(t, f.alice, "b", time.Now())
	f.seed(t, f.bob, "c", time.Now())

	deleted, err := f.svc.DeleteAll(ctx, f.alice)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	items, err := f.svc.List(ctx, f.alice)
	require.NoError(t, err)
	assert.Empty(t, items)
	bobs, err := f.svc.List(ctx, f.bob)
	require.NoError(t, err)
	assert.Len(t, bobs, 1)
}

func TestRepository_MarkReadReportsUpdatedAndFound(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	id := f.seed(t, f.alice, "ready", now.Add(-time.Hour))

	updated, found, err := f.repo.MarkRead(ctx, f.alice, id, now)
	require.NoError(t, err)
	assert.True(t, updated)
	assert.True(t, found)

	updated, found, err = f.repo.MarkRead(ctx, f.alice, id, now)
	require.NoError(t, err)
	assert.False(t, updated)
	assert.True(t, found)

	updated, found, err = f.repo.MarkRead(ctx, f.bob, id, now)
	require.NoError(t, err)
	assert.False(t, updated)
	assert.False(t, found)
}

func TestRepository_UserExists(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()

	exists, err := f.repo.UserExists(ctx, f.alice)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = f.repo.UserExists(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, exists)
}
