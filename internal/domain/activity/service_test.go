package activity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puppytalk-hub/notification-engine/internal/domain/activity"
	"github.com/puppytalk-hub/notification-engine/internal/domain/shared"
	"github.com/puppytalk-hub/notification-engine/internal/infrastructure/persistence/memory"
)

var baseTime = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newService(t *time.Time) (*activity.DomainService, *memory.ActivityRepository) {
	repo := memory.NewActivityRepository()
	clock := shared.ClockFunc(func() time.Time { return *t })
	return activity.NewDomainService(repo, clock), repo
}

func seedActivity(t *testing.T, repo *memory.ActivityRepository, userID shared.UserID, occurredAt time.Time) {
	t.Helper()
	a, err := activity.NewUserActivity(userID, activity.TypeMessageSent, occurredAt, occurredAt)
	require.NoError(t, err)
	_, err = repo.Save(context.Background(), a)
	require.NoError(t, err)
}

func TestRecordActivity(t *testing.T) {
	now := baseTime
	svc, _ := newService(&now)

	a, err := svc.RecordActivity(context.Background(), shared.UserID(1), activity.TypeLogin)
	require.NoError(t, err)

	assert.NotZero(t, a.ID)
	assert.Equal(t, baseTime, a.OccurredAt)
}

func TestRecordActivity_InvalidInput(t *testing.T) {
	now := baseTime
	svc, _ := newService(&now)

	_, err := svc.RecordActivity(context.Background(), shared.UserID(0), activity.TypeLogin)
	assert.ErrorIs(t, err, shared.ErrInvalidUserID)

	_, err = svc.RecordActivity(context.Background(), shared.UserID(1), activity.ActivityType("TELEPORTED"))
	assert.ErrorIs(t, err, activity.ErrInvalidActivityType)
}

func TestRecordGlobalActivity(t *testing.T) {
	now := baseTime
	svc, _ := newService(&now)

	a, err := svc.RecordGlobalActivity(context.Background(), shared.UserID(1), activity.TypeLogout)
	require.NoError(t, err)
	assert.Equal(t, activity.TypeLogout, a.Type)

	// Chat-scoped types are not global activity.
	_, err = svc.RecordGlobalActivity(context.Background(), shared.UserID(1), activity.TypeMessageSent)
	assert.ErrorIs(t, err, activity.ErrInvalidActivityType)
}

func TestNewUserActivity_FutureTimestamp(t *testing.T) {
	// A minute of clock skew between app servers is tolerated.
	_, err := activity.NewUserActivity(shared.UserID(1), activity.TypeLogin,
		baseTime.Add(59*time.Second), baseTime)
	assert.NoError(t, err)

	_, err = activity.NewUserActivity(shared.UserID(1), activity.TypeLogin,
		baseTime.Add(2*time.Minute), baseTime)
	assert.ErrorIs(t, err, activity.ErrFutureTimestamp)
}

func TestFindInactiveUsers(t *testing.T) {
	now := baseTime
	svc, repo := newService(&now)

	// User 1 went quiet three hours ago, user 2 four hours ago, user 3 is
	// active right now.
	seedActivity(t, repo, shared.UserID(1), now.Add(-3*time.Hour))
	seedActivity(t, repo, shared.UserID(2), now.Add(-4*time.Hour))
	seedActivity(t, repo, shared.UserID(3), now.Add(-time.Minute))

	inactive, err := svc.FindInactiveUsers(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []shared.UserID{2, 1}, inactive)
}

func TestFindInactiveUsers_LatestRecordWins(t *testing.T) {
	now := baseTime
	svc, repo := newService(&now)

	// An old record does not make an active user inactive.
	seedActivity(t, repo, shared.UserID(1), now.Add(-6*time.Hour))
	seedActivity(t, repo, shared.UserID(1), now.Add(-time.Minute))

	inactive, err := svc.FindInactiveUsers(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, inactive)
}

func TestFindInactiveUsers_Limit(t *testing.T) {
	now := baseTime
	svc, repo := newService(&now)

	for uid := int64(1); uid <= 5; uid++ {
		seedActivity(t, repo, shared.UserID(uid), now.Add(-time.Duration(uid)*time.Hour).Add(-activity.InactivityThreshold))
	}

	inactive, err := svc.FindInactiveUsers(context.Background(), 2)
	require.NoError(t, err)
	// Quietest first, capped at the limit.
	assert.Equal(t, []shared.UserID{5, 4}, inactive)

	_, err = svc.FindInactiveUsers(context.Background(), 0)
	assert.ErrorIs(t, err, activity.ErrInvalidLimit)
}

func TestIsUserActive(t *testing.T) {
	now := baseTime
	svc, repo := newService(&now)
	ctx := context.Background()

	// No activity at all counts as inactive.
	active, err := svc.IsUserActive(ctx, shared.UserID(1))
	require.NoError(t, err)
	assert.False(t, active)

	seedActivity(t, repo, shared.UserID(1), now.Add(-time.Minute))
	active, err = svc.IsUserActive(ctx, shared.UserID(1))
	require.NoError(t, err)
	assert.True(t, active)

	now = now.Add(activity.InactivityThreshold + time.Minute)
	active, err = svc.IsUserActive(ctx, shared.UserID(1))
	require.NoError(t, err)
	assert.False(t, active)
}

func TestCleanupOld(t *testing.T) {
	now := baseTime
	svc, repo := newService(&now)

	// Two stale records plus a recent one for user 1; user 2 has only one
	// ancient record, which survives as their latest.
	seedActivity(t, repo, shared.UserID(1), now.Add(-activity.ActivityRetention-48*time.Hour))
	seedActivity(t, repo, shared.UserID(1), now.Add(-activity.ActivityRetention-24*time.Hour))
	seedActivity(t, repo, shared.UserID(1), now.Add(-time.Hour))
	seedActivity(t, repo, shared.UserID(2), now.Add(-activity.ActivityRetention-24*time.Hour))

	removed, err := svc.CleanupOld(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	last, err := repo.FindLastActivity(context.Background(), shared.UserID(2))
	require.NoError(t, err)
	require.NotNil(t, last)
}
