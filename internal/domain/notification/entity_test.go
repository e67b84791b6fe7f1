package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puppytalk-hub/notification-engine/internal/domain/shared"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestNotification(t *testing.T, status Status) Notification {
	t.Helper()
	n, err := NewInactivityNotification(
		shared.UserID(1), shared.PetID(10), shared.ChatRoomID(100),
		"Bori misses you", "Come back and say hi!", testNow.Add(5*time.Minute), testNow)
	require.NoError(t, err)
	n.Status = status
	return *n
}

func TestNewInactivityNotification(t *testing.T) {
	n, err := NewInactivityNotification(
		shared.UserID(1), shared.PetID(10), shared.ChatRoomID(100),
		"  Bori misses you  ", "  Come back!  ", testNow.Add(5*time.Minute), testNow)
	require.NoError(t, err)

	assert.Equal(t, StatusCreated, n.Status)
	assert.Equal(t, TypeInactivityMessage, n.Type)
	assert.Equal(t, "Bori misses you", n.Title)
	assert.Equal(t, "Come back!", n.Content)
	assert.Equal(t, testNow.Add(5*time.Minute), n.ScheduledAt)
	assert.Equal(t, 0, n.RetryCount)
	assert.Nil(t, n.SentAt)
	assert.Nil(t, n.ReadAt)
}

func TestNewInactivityNotification_Validation(t *testing.T) {
	_, err := NewInactivityNotification(shared.UserID(0), shared.PetID(10), shared.ChatRoomID(100),
		"title", "content", testNow, testNow)
	assert.ErrorIs(t, err, shared.ErrInvalidUserID)

	_, err = NewInactivityNotification(shared.UserID(1), shared.PetID(0), shared.ChatRoomID(100),
		"title", "content", testNow, testNow)
	assert.ErrorIs(t, err, shared.ErrInvalidPetID)

	_, err = NewInactivityNotification(shared.UserID(1), shared.PetID(10), shared.ChatRoomID(100),
		"   ", "content", testNow, testNow)
	assert.ErrorIs(t, err, ErrEmptyTitle)

	_, err = NewInactivityNotification(shared.UserID(1), shared.PetID(10), shared.ChatRoomID(100),
		"title", "   ", testNow, testNow)
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestNewInactivityNotification_ZeroScheduleMeansNow(t *testing.T) {
	n, err := NewInactivityNotification(
		shared.UserID(1), shared.PetID(10), shared.ChatRoomID(100),
		"title", "content", time.Time{}, testNow)
	require.NoError(t, err)
	assert.Equal(t, testNow, n.ScheduledAt)
}

func TestNewSystemNotification(t *testing.T) {
	n, err := NewSystemNotification(shared.UserID(1), "Maintenance", "Back at 02:00", testNow)
	require.NoError(t, err)

	assert.Equal(t, TypePetStatus, n.Type)
	assert.True(t, n.PetID.IsZero())
	assert.True(t, n.ChatRoomID.IsZero())
	assert.Equal(t, testNow, n.ScheduledAt)
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusCreated, StatusQueued, true},
		{StatusCreated, StatusSending, true},
		{StatusCreated, StatusSent, true},
		{StatusCreated, StatusFailed, true},
		{StatusCreated, StatusRead, false},
		{StatusQueued, StatusSent, true},
		{StatusSending, StatusSent, true},
		{StatusSending, StatusFailed, true},
		{StatusSending, StatusQueued, false},
		{StatusSent, StatusRead, true},
		{StatusSent, StatusFailed, false},
		{StatusSent, StatusExpired, false},
		{StatusFailed, StatusSent, true},
		{StatusFailed, StatusQueued, true},
		{StatusFailed, StatusExpired, true},
		{StatusRead, StatusSent, false},
		{StatusRead, StatusExpired, false},
		{StatusExpired, StatusSent, false},
		{StatusCancelled, StatusQueued, false},
		{StatusCreated, StatusExpired, true},
		{StatusQueued, StatusCancelled, true},
		{StatusSending, StatusExpired, true},
	}

	for _, tt := range tests {
		n := newTestNotification(t, tt.from)
		_, err := n.UpdateStatus(tt.to, testNow)
		if tt.allowed {
			assert.NoError(t, err, "%s -> %s should be allowed", tt.from, tt.to)
		} else {
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s should be rejected", tt.from, tt.to)
		}
	}
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	n := newTestNotification(t, StatusCreated)
	_, err := n.UpdateStatus(Status("BOGUS"), testNow)
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestUpdateStatus_DoesNotMutateReceiver(t *testing.T) {
	n := newTestNotification(t, StatusCreated)
	updated, err := n.UpdateStatus(StatusSent, testNow)
	require.NoError(t, err)

	assert.Equal(t, StatusCreated, n.Status)
	assert.Equal(t, StatusSent, updated.Status)
}

func TestUpdateStatus_SentAtSetOnce(t *testing.T) {
	n := newTestNotification(t, StatusCreated)

	firstSent := testNow.Add(time.Minute)
	sent, err := n.UpdateStatus(StatusSent, firstSent)
	require.NoError(t, err)
	require.NotNil(t, sent.SentAt)
	assert.Equal(t, firstSent, *sent.SentAt)

	// A record that failed after the recording hiccup keeps its original
	// delivery timestamp when it reaches SENT again.
	failed := sent
	failed.Status = StatusFailed
	resent, err := failed.UpdateStatus(StatusSent, testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, firstSent, *resent.SentAt)
	assert.Equal(t, testNow.Add(time.Hour), resent.UpdatedAt)
}

func TestUpdateStatus_ReadAtSetOnce(t *testing.T) {
	n := newTestNotification(t, StatusSent)

	readTime := testNow.Add(2 * time.Minute)
	read, err := n.UpdateStatus(StatusRead, readTime)
	require.NoError(t, err)
	require.NotNil(t, read.ReadAt)
	assert.Equal(t, readTime, *read.ReadAt)
}

func TestIncrementRetry(t *testing.T) {
	n := newTestNotification(t, StatusCreated)

	for i := 1; i <= MaxRetryCount; i++ {
		n = n.IncrementRetry("push rejected", testNow)
		assert.Equal(t, StatusFailed, n.Status)
		assert.Equal(t, i, n.RetryCount)
	}
	assert.False(t, n.CanRetry())

	// A late failure report past the ceiling is still recorded.
	n = n.IncrementRetry("push rejected again", testNow)
	assert.Equal(t, MaxRetryCount+1, n.RetryCount)
	assert.Equal(t, "push rejected again", n.FailureReason)
	assert.False(t, n.CanRetry())
}

func TestCanRetry(t *testing.T) {
	n := newTestNotification(t, StatusFailed)
	n.RetryCount = MaxRetryCount - 1
	assert.True(t, n.CanRetry())

	n.RetryCount = MaxRetryCount
	assert.False(t, n.CanRetry())

	read := newTestNotification(t, StatusRead)
	assert.False(t, read.CanRetry())
}

func TestIsExpired(t *testing.T) {
	n := newTestNotification(t, StatusCreated)

	assert.False(t, n.IsExpired(n.ScheduledAt.Add(ExpiryWindow)))
	assert.True(t, n.IsExpired(n.ScheduledAt.Add(ExpiryWindow+time.Nanosecond)))
}

func TestTypePredicates(t *testing.T) {
	assert.True(t, TypeChatMessage.IsUrgent())
	assert.False(t, TypeInactivityMessage.IsUrgent())

	assert.True(t, TypeInactivityMessage.IsBatchable())
	assert.False(t, TypeChatMessage.IsBatchable())

	assert.True(t, TypePetMessage.RequiresAIGeneration())
	assert.True(t, TypeInactivityMessage.RequiresAIGeneration())
	assert.False(t, TypePetStatus.RequiresAIGeneration())

	assert.False(t, Type("EMAIL").IsValid())
}

func TestStatusPredicates(t *testing.T) {
	assert.True(t, StatusCreated.IsRetryable())
	assert.True(t, StatusFailed.IsRetryable())
	assert.False(t, StatusSending.IsRetryable())

	assert.True(t, StatusSending.IsInProgress())
	assert.False(t, StatusSent.IsInProgress())

	assert.True(t, StatusSent.IsSuccessful())
	assert.True(t, StatusRead.IsSuccessful())
	assert.False(t, StatusFailed.IsSuccessful())

	assert.False(t, Status("LOST").IsValid())
}

func TestStatsRates(t *testing.T) {
	s := Stats{TotalCreated: 10, TotalSent: 4, TotalRead: 2}
	assert.InDelta(t, 0.6, s.DeliveryRate(), 1e-9)
	assert.InDelta(t, 1.0/3.0, s.ReadRate(), 1e-9)

	assert.Zero(t, Stats{}.DeliveryRate())
	assert.Zero(t, Stats{}.ReadRate())
}

func TestErrorKinds(t *testing.T) {
	// Package sentinels stay matchable by their shared category so callers
	// outside the domain can branch without importing every sentinel.
	assert.ErrorIs(t, ErrNotFound, shared.ErrNotFound)
	assert.ErrorIs(t, ErrEmptyTitle, shared.ErrEmptyValue)
	assert.ErrorIs(t, ErrEmptyContent, shared.ErrEmptyValue)
	assert.ErrorIs(t, ErrUnknownStatus, shared.ErrInvalidState)
	assert.ErrorIs(t, ErrInvalidTransition, shared.ErrStateTransition)
	assert.ErrorIs(t, ErrDuplicate, shared.ErrAlreadyExists)
	assert.ErrorIs(t, ErrDailyLimitExceeded, shared.ErrRateLimited)
	assert.ErrorIs(t, ErrInvalidBatchSize, shared.ErrValueOutOfRange)
	assert.ErrorIs(t, ErrInvalidDateRange, shared.ErrValidation)

	assert.NotErrorIs(t, ErrDuplicate, shared.ErrRateLimited)
}
