package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/puppytalk-hub/notification-engine/internal/domain/shared"
	"github.com/puppytalk-hub/notification-engine/pkg/timeutil"
)

// Daily counter keys live a little longer than a day so a counter is never
// evicted mid-day by clock drift between scheduler instances.
const dailyCountTTL = 26 * time.Hour

// SchedulerLockTTL bounds how long a crashed scheduler instance can hold
// the leader lock. It must exceed the longest job timeout (cleanup runs up
// to 10 minutes) or a live holder's lock expires mid-run and another
// instance starts the same job.
const SchedulerLockTTL = 15 * time.Minute

// NotificationCache keeps hot notification counters in Redis so the
// per-user daily limit and unread badge checks don't hit PostgreSQL on
// every request. The database remains the source of truth; these counters
// are advisory and self-expire.
type NotificationCache struct {
	cache *Cache
}

// NewNotificationCache wraps a Cache with notification-specific keys.
func NewNotificationCache(cache *Cache) *NotificationCache {
	return &NotificationCache{cache: cache}
}

// DailyCountKey generates the per-user daily delivery counter key for the
// Seoul calendar day containing t.
func DailyCountKey(userID shared.UserID, t time.Time) string {
	return PrefixDailyCount + userID.String() + ":" + timeutil.FormatDateStr(t)
}

// UnreadKey generates the per-user unread badge key.
func UnreadKey(userID shared.UserID) string {
	return PrefixUnread + userID.String()
}

// IncrementDailyCount bumps the user's delivery counter for the current day
// and returns the new value. The key expires on its own after the day ends.
func (nc *NotificationCache) IncrementDailyCount(ctx context.Context, userID shared.UserID, now time.Time) (int64, error) {
	key := DailyCountKey(userID, now)

	count, err := nc.cache.Incr(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("increment daily count for user %s: %w", userID, err)
	}

	// First increment creates the key; give it its TTL exactly once.
	if count == 1 {
		if err := nc.cache.Expire(ctx, key, dailyCountTTL); err != nil {
			return count, fmt.Errorf("set TTL on daily count for user %s: %w", userID, err)
		}
	}

	return count, nil
}

// DailyCount reads the user's delivery counter for the current day.
// Returns 0 when no notification was delivered today.
func (nc *NotificationCache) DailyCount(ctx context.Context, userID shared.UserID, now time.Time) (int64, error) {
	return nc.cache.GetInt(ctx, DailyCountKey(userID, now))
}

// SetUnreadCount caches the user's unread badge count.
func (nc *NotificationCache) SetUnreadCount(ctx context.Context, userID shared.UserID, count int) error {
	return nc.cache.Set(ctx, UnreadKey(userID), count, time.Hour)
}

// UnreadCount reads the cached unread badge count.
// Returns ErrCacheMiss when the badge has to be recomputed from the store.
func (nc *NotificationCache) UnreadCount(ctx context.Context, userID shared.UserID) (int, error) {
	var count int
	if err := nc.cache.Get(ctx, UnreadKey(userID), &count); err != nil {
		return 0, err
	}
	return count, nil
}

// InvalidateUnread drops the cached badge after a read or a new delivery.
func (nc *NotificationCache) InvalidateUnread(ctx context.Context, userID shared.UserID) error {
	return nc.cache.Delete(ctx, UnreadKey(userID))
}

// AcquireSchedulerLock takes the leader lock for a named job. Only one
// scheduler instance runs each job at a time; the lock expires on its own
// if the holder dies.
func (nc *NotificationCache) AcquireSchedulerLock(ctx context.Context, jobName, holder string) (bool, error) {
	return nc.cache.SetNX(ctx, PrefixLock+jobName, holder, SchedulerLockTTL)
}

// ReleaseSchedulerLock drops the leader lock for a named job, but only if
// holder still owns it. A plain delete would let an instance whose lock
// already expired remove the lock a different instance now holds.
func (nc *NotificationCache) ReleaseSchedulerLock(ctx context.Context, jobName, holder string) error {
	released, err := nc.cache.DeleteIfEquals(ctx, PrefixLock+jobName, holder)
	if err != nil {
		return err
	}
	if !released {
		return shared.NewDomainError("scheduler", "ReleaseSchedulerLock", shared.ErrInvalidState,
			fmt.Sprintf("lock for %q no longer held by %s", jobName, holder))
	}
	return nil
}
