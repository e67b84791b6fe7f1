package notify_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puppytalk-hub/notification-engine/internal/application/notify"
	"github.com/puppytalk-hub/notification-engine/internal/domain/notification"
	"github.com/puppytalk-hub/notification-engine/internal/domain/shared"
	"github.com/puppytalk-hub/notification-engine/internal/infrastructure/persistence/memory"
)

// stubChannel fails delivery for the notification IDs in failFor.
type stubChannel struct {
	failFor map[notification.NotificationID]error
	sent    []notification.NotificationID
	down    bool
}

func (c *stubChannel) Name() string { return "stub" }

func (c *stubChannel) IsAvailable() bool { return !c.down }

func (c *stubChannel) Send(_ context.Context, n notification.Notification) error {
	if err, ok := c.failFor[n.ID]; ok {
		return err
	}
	c.sent = append(c.sent, n.ID)
	return nil
}

// countingCounter records advisory counter calls.
type countingCounter struct {
	increments  int
	invalidates int
}

func (c *countingCounter) IncrementDailyCount(_ context.Context, _ shared.UserID, _ time.Time) (int64, error) {
	c.increments++
	return int64(c.increments), nil
}

func (c *countingCounter) InvalidateUnread(_ context.Context, _ shared.UserID) error {
	c.invalidates++
	return nil
}

type dispatcherFixture struct {
	dispatcher *notify.Dispatcher
	service    *notification.DomainService
	repo       *memory.NotificationRepository
	channel    *stubChannel
	counter    *countingCounter
	now        *time.Time
}

func newDispatcherFixture(t *testing.T) *dispatcherFixture {
	t.Helper()

	now := baseTime
	clock := shared.ClockFunc(func() time.Time { return now })

	repo := memory.NewNotificationRepository()
	service := notification.NewDomainService(repo, clock)
	channel := &stubChannel{failFor: map[notification.NotificationID]error{}}
	counter := &countingCounter{}

	return &dispatcherFixture{
		dispatcher: notify.NewDispatcher(service, channel, counter, clock, discardLogger()),
		service:    service,
		repo:       repo,
		channel:    channel,
		counter:    counter,
		now:        &now,
	}
}

// createDue creates a notification and advances the clock past its
// scheduled time so a dispatch pass picks it up.
func (f *dispatcherFixture) createDue(t *testing.T, userID shared.UserID) notification.NotificationID {
	t.Helper()

	n, err := f.service.CreateInactivityNotification(context.Background(),
		userID, shared.PetID(10), shared.ChatRoomID(100), "title", "content")
	require.NoError(t, err)

	*f.now = f.now.Add(notification.ScheduledDelay)
	return n.ID
}

func TestDispatchPending(t *testing.T) {
	f := newDispatcherFixture(t)
	id1 := f.createDue(t, shared.UserID(1))
	id2 := f.createDue(t, shared.UserID(2))

	result, err := f.dispatcher.DispatchPending(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 2, result.Succeeded)
	assert.Zero(t, result.Failed)

	for _, id := range []notification.NotificationID{id1, id2} {
		stored, err := f.repo.FindByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, notification.StatusSent, stored.Status)
		assert.NotNil(t, stored.SentAt)
	}
	assert.Equal(t, 2, f.counter.increments)
	assert.Equal(t, 2, f.counter.invalidates)
}

func TestDispatchPending_FailureDoesNotAbortBatch(t *testing.T) {
	f := newDispatcherFixture(t)
	bad := f.createDue(t, shared.UserID(1))
	good := f.createDue(t, shared.UserID(2))
	f.channel.failFor[bad] = errors.New("fcm unavailable")

	result, err := f.dispatcher.DispatchPending(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)

	stored, err := f.repo.FindByID(context.Background(), bad)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusFailed, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	assert.Equal(t, "fcm unavailable", stored.FailureReason)

	stored, err = f.repo.FindByID(context.Background(), good)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusSent, stored.Status)

	// Only the successful delivery touched the counters.
	assert.Equal(t, 1, f.counter.increments)
}

func TestDispatchPending_UnavailableChannelLeavesBatchPending(t *testing.T) {
	f := newDispatcherFixture(t)
	id1 := f.createDue(t, shared.UserID(1))
	id2 := f.createDue(t, shared.UserID(2))
	f.channel.down = true

	result, err := f.dispatcher.DispatchPending(context.Background(), 10)
	require.NoError(t, err)

	// No attempt was made: nothing sent, no retry counts burned.
	assert.Zero(t, result.Processed)
	assert.Zero(t, result.Failed)
	for _, id := range []notification.NotificationID{id1, id2} {
		stored, err := f.repo.FindByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, notification.StatusCreated, stored.Status)
		assert.Zero(t, stored.RetryCount)
	}

	// The channel comes back; the next pass drains the batch.
	f.channel.down = false
	result, err = f.dispatcher.DispatchPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded)
}

func TestRetryFailed(t *testing.T) {
	f := newDispatcherFixture(t)
	id := f.createDue(t, shared.UserID(1))
	f.channel.failFor[id] = errors.New("fcm unavailable")

	_, err := f.dispatcher.DispatchPending(context.Background(), 10)
	require.NoError(t, err)

	// The channel recovers; the retry pass delivers the record.
	delete(f.channel.failFor, id)

	result, err := f.dispatcher.RetryFailed(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)

	stored, err := f.repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusSent, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
}

func TestRetryFailed_StopsAtCeiling(t *testing.T) {
	f := newDispatcherFixture(t)
	id := f.createDue(t, shared.UserID(1))
	f.channel.failFor[id] = errors.New("fcm unavailable")

	_, err := f.dispatcher.DispatchPending(context.Background(), 10)
	require.NoError(t, err)

	for i := 1; i < notification.MaxRetryCount; i++ {
		result, err := f.dispatcher.RetryFailed(context.Background(), 10)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Failed)
	}

	// Ceiling reached: the record no longer appears in retry passes.
	result, err := f.dispatcher.RetryFailed(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, result.Processed)

	stored, err := f.repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusFailed, stored.Status)
	assert.Equal(t, notification.MaxRetryCount, stored.RetryCount)
}

func TestDispatchPending_InvalidBatchSize(t *testing.T) {
	f := newDispatcherFixture(t)

	_, err := f.dispatcher.DispatchPending(context.Background(), 0)
	assert.ErrorIs(t, err, notification.ErrInvalidBatchSize)

	_, err = f.dispatcher.RetryFailed(context.Background(), notification.MaxRetryBatchSize+1)
	assert.ErrorIs(t, err, notification.ErrInvalidBatchSize)
}

func TestDispatchPending_NilCounter(t *testing.T) {
	f := newDispatcherFixture(t)
	now := *f.now
	clock := shared.ClockFunc(func() time.Time { return now })
	dispatcher := notify.NewDispatcher(f.service, f.channel, nil, clock, discardLogger())

	f.createDue(t, shared.UserID(1))

	result, err := dispatcher.DispatchPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
}
