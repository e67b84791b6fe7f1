package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puppytalk-hub/notification-engine/internal/domain/notification"
	"github.com/puppytalk-hub/notification-engine/internal/domain/shared"
)

var baseTime = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newRecord(t *testing.T, userID shared.UserID) *notification.Notification {
	t.Helper()
	n, err := notification.NewInactivityNotification(
		userID, shared.PetID(10), shared.ChatRoomID(100),
		"title", "content", baseTime, baseTime)
	require.NoError(t, err)
	return n
}

func TestSaveUniquePending(t *testing.T) {
	repo := NewNotificationRepository()
	ctx := context.Background()

	_, inserted, err := repo.SaveUniquePending(ctx, newRecord(t, shared.UserID(1)))
	require.NoError(t, err)
	assert.True(t, inserted)

	// A second pending record for the same user is suppressed.
	_, inserted, err = repo.SaveUniquePending(ctx, newRecord(t, shared.UserID(1)))
	require.NoError(t, err)
	assert.False(t, inserted)

	// Other users are independent.
	_, inserted, err = repo.SaveUniquePending(ctx, newRecord(t, shared.UserID(2)))
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestSaveUniquePending_CompletedRecordDoesNotBlock(t *testing.T) {
	repo := NewNotificationRepository()
	ctx := context.Background()

	n := newRecord(t, shared.UserID(1))
	id, _, err := repo.SaveUniquePending(ctx, n)
	require.NoError(t, err)

	sent, err := n.WithID(id).UpdateStatus(notification.StatusSent, baseTime)
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, sent))

	// Once the earlier record reached SENT, a new pending one is allowed.
	_, inserted, err := repo.SaveUniquePending(ctx, newRecord(t, shared.UserID(1)))
	require.NoError(t, err)
	assert.True(t, inserted)

	pending, err := repo.HasPendingInactivity(ctx, shared.UserID(1))
	require.NoError(t, err)
	assert.True(t, pending)
}

func TestUpdate_NotFound(t *testing.T) {
	repo := NewNotificationRepository()

	n := newRecord(t, shared.UserID(1)).WithID(notification.NewNotificationID())
	err := repo.Update(context.Background(), n)
	assert.ErrorIs(t, err, notification.ErrNotFound)
}

func TestFindRetryable_OrderedByUpdateTime(t *testing.T) {
	repo := NewNotificationRepository()
	ctx := context.Background()

	// Two failed records, the older failure first in the retry queue.
	late := newRecord(t, shared.UserID(1))
	lateID, err := repo.Save(ctx, late)
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx,
		late.WithID(lateID).IncrementRetry("x", baseTime.Add(time.Hour))))

	early := newRecord(t, shared.UserID(2))
	earlyID, err := repo.Save(ctx, early)
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx,
		early.WithID(earlyID).IncrementRetry("x", baseTime)))

	retryable, err := repo.FindRetryable(ctx, 10)
	require.NoError(t, err)
	require.Len(t, retryable, 2)
	assert.Equal(t, earlyID, retryable[0].ID)
	assert.Equal(t, lateID, retryable[1].ID)
}

func TestMarkExpired_LeavesCompletedRecordsAlone(t *testing.T) {
	repo := NewNotificationRepository()
	ctx := context.Background()

	stale := newRecord(t, shared.UserID(1))
	_, err := repo.Save(ctx, stale)
	require.NoError(t, err)

	delivered := newRecord(t, shared.UserID(2))
	deliveredID, err := repo.Save(ctx, delivered)
	require.NoError(t, err)
	sent, err := delivered.WithID(deliveredID).UpdateStatus(notification.StatusSent, baseTime)
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, sent))

	count, err := repo.MarkExpired(ctx, baseTime.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	stored, err := repo.FindByID(ctx, deliveredID)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusSent, stored.Status)
}

func TestCollectStats(t *testing.T) {
	repo := NewNotificationRepository()
	ctx := context.Background()

	for i, status := range []notification.Status{
		notification.StatusSent, notification.StatusRead,
		notification.StatusFailed, notification.StatusCancelled,
		notification.StatusCreated, notification.StatusSending,
	} {
		n := newRecord(t, shared.UserID(int64(i+1)))
		id, err := repo.Save(ctx, n)
		require.NoError(t, err)
		if status != notification.StatusCreated {
			record := n.WithID(id)
			record.Status = status
			require.NoError(t, repo.Update(ctx, record))
		}
	}

	stats, err := repo.CollectStats(ctx, baseTime.Add(-time.Hour), baseTime.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(6), stats.TotalCreated)
	assert.Equal(t, int64(1), stats.TotalSent)
	assert.Equal(t, int64(1), stats.TotalRead)
	assert.Equal(t, int64(1), stats.TotalFailed)
	// CREATED and SENDING count as pending; the cancelled record does not.
	assert.Equal(t, int64(2), stats.TotalPending)
	assert.InDelta(t, 2.0/6.0, stats.DeliveryRate(), 1e-9)
}
