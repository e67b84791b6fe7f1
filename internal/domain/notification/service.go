package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/puppytalk-hub/notification-engine/internal/domain/shared"
	"github.com/puppytalk-hub/notification-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// POLICY CONSTANTS
// ══════════════════════════════════════════════════════════════════════════════

const (
	// DailyLimit is the maximum number of notifications a single user may
	// receive (SENT or READ) per calendar day.
	DailyLimit = 5

	// ScheduledDelay is how far in the future a freshly created inactivity
	// notification is scheduled. The delay gives the user a window to come
	// back on their own before the nudge goes out.
	ScheduledDelay = 5 * time.Minute

	// RetentionPeriod is how long completed notifications are kept before
	// the cleanup job removes them.
	RetentionPeriod = 30 * 24 * time.Hour

	// MaxPendingBatchSize caps a single pending-dispatch query.
	MaxPendingBatchSize = 1000

	// MaxRetryBatchSize caps a single retry query.
	MaxRetryBatchSize = 100
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN SERVICE
// ══════════════════════════════════════════════════════════════════════════════

// DomainService enforces notification lifecycle rules: deduplication,
// daily rate limiting, status transitions, and retention. It owns no I/O
// beyond the Repository port.
type DomainService struct {
	repo  Repository
	clock shared.Clock
}

// NewDomainService creates a notification domain service. A nil clock
// defaults to the system clock.
func NewDomainService(repo Repository, clock shared.Clock) *DomainService {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &DomainService{repo: repo, clock: clock}
}

// CreateInactivityNotification creates an INACTIVITY_MESSAGE for the user,
// scheduled ScheduledDelay from now. Returns ErrDuplicate if the user
// already has a pending inactivity notification and ErrDailyLimitExceeded
// if the user is at the daily cap.
func (s *DomainService) CreateInactivityNotification(
	ctx context.Context,
	userID shared.UserID,
	petID shared.PetID,
	chatRoomID shared.ChatRoomID,
	title, content string,
) (*Notification, error) {
	now := s.clock.Now()

	atLimit, err := s.isAtDailyLimit(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if atLimit {
		return nil, ErrDailyLimitExceeded
	}

	n, err := NewInactivityNotification(userID, petID, chatRoomID, title, content, now.Add(ScheduledDelay), now)
	if err != nil {
		return nil, err
	}

	// The duplicate check is pushed into the store as a conditional insert
	// so two concurrent creators cannot both slip past a read-then-write.
	id, inserted, err := s.repo.SaveUniquePending(ctx, n)
	if err != nil {
		return nil, shared.WrapDomainError("notification", "CreateInactivityNotification",
			shared.ErrExternalService, "save inactivity notification", err)
	}
	if !inserted {
		return nil, ErrDuplicate
	}

	saved := n.WithID(id)
	return &saved, nil
}

// CreateSystemNotification creates a system-wide notification for the user,
// scheduled for immediate dispatch. System notifications bypass
// deduplication but still honor the daily cap.
func (s *DomainService) CreateSystemNotification(
	ctx context.Context,
	userID shared.UserID,
	title, content string,
) (*Notification, error) {
	now := s.clock.Now()

	atLimit, err := s.isAtDailyLimit(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if atLimit {
		return nil, ErrDailyLimitExceeded
	}

	n, err := NewSystemNotification(userID, title, content, now)
	if err != nil {
		return nil, err
	}

	id, err := s.repo.Save(ctx, n)
	if err != nil {
		return nil, shared.WrapDomainError("notification", "CreateSystemNotification",
			shared.ErrExternalService, "save system notification", err)
	}

	saved := n.WithID(id)
	return &saved, nil
}

// FindPendingNotifications returns notifications due for dispatch, ordered
// by scheduled time ascending. Batch size must be in [1, MaxPendingBatchSize].
func (s *DomainService) FindPendingNotifications(ctx context.Context, batchSize int) ([]Notification, error) {
	if batchSize < 1 || batchSize > MaxPendingBatchSize {
		return nil, fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidBatchSize, batchSize, MaxPendingBatchSize)
	}
	return s.repo.FindPending(ctx, s.clock.Now(), batchSize)
}

// GetRetryableNotifications returns FAILED notifications below the retry
// ceiling. Batch size must be in [1, MaxRetryBatchSize].
func (s *DomainService) GetRetryableNotifications(ctx context.Context, batchSize int) ([]Notification, error) {
	if batchSize < 1 || batchSize > MaxRetryBatchSize {
		return nil, fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidBatchSize, batchSize, MaxRetryBatchSize)
	}
	return s.repo.FindRetryable(ctx, batchSize)
}

// MarkAsSent transitions the notification to SENT, recording SentAt on the
// first delivery only.
func (s *DomainService) MarkAsSent(ctx context.Context, id NotificationID) error {
	return s.transition(ctx, id, StatusSent)
}

// MarkAsRead transitions the notification to READ, recording ReadAt on the
// first acknowledgement only.
func (s *DomainService) MarkAsRead(ctx context.Context, id NotificationID) error {
	return s.transition(ctx, id, StatusRead)
}

// MarkAsFailed records a failed delivery attempt: the notification moves to
// FAILED and its retry counter advances. Marking a record that is already
// at the retry ceiling is not an error; the record just stays permanently
// out of the retry queue.
func (s *DomainService) MarkAsFailed(ctx context.Context, id NotificationID, reason string) error {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	failed := n.IncrementRetry(reason, s.clock.Now())
	if err := s.repo.Update(ctx, failed); err != nil {
		return shared.WrapDomainError("notification", "MarkAsFailed",
			shared.ErrExternalService, fmt.Sprintf("update notification %s", id), err)
	}
	return nil
}

// FilterUsersForNotification removes users that must not receive another
// notification right now: those at the daily cap and those with a pending
// inactivity notification. Order is preserved.
func (s *DomainService) FilterUsersForNotification(ctx context.Context, userIDs []shared.UserID) ([]shared.UserID, error) {
	now := s.clock.Now()
	eligible := make([]shared.UserID, 0, len(userIDs))

	for _, userID := range userIDs {
		atLimit, err := s.isAtDailyLimit(ctx, userID, now)
		if err != nil {
			return nil, err
		}
		if atLimit {
			continue
		}

		pending, err := s.repo.HasPendingInactivity(ctx, userID)
		if err != nil {
			return nil, err
		}
		if pending {
			continue
		}

		eligible = append(eligible, userID)
	}

	return eligible, nil
}

// GetUnreadNotifications returns the user's delivered-but-unread
// notifications, newest first.
func (s *DomainService) GetUnreadNotifications(ctx context.Context, userID shared.UserID) ([]Notification, error) {
	if !userID.IsValid() {
		return nil, shared.ErrInvalidUserID
	}
	return s.repo.FindUnreadByUser(ctx, userID)
}

// GetUnreadCount returns how many delivered notifications the user has not
// read yet.
func (s *DomainService) GetUnreadCount(ctx context.Context, userID shared.UserID) (int, error) {
	if !userID.IsValid() {
		return 0, shared.ErrInvalidUserID
	}
	return s.repo.CountUnreadByUser(ctx, userID)
}

// CleanupExpired marks every notification whose dispatch window elapsed as
// EXPIRED and returns how many records were affected. Safe to run
// repeatedly; already-expired records are not touched again.
func (s *DomainService) CleanupExpired(ctx context.Context) (int64, error) {
	cutoff := s.clock.Now().Add(-ExpiryWindow)
	return s.repo.MarkExpired(ctx, cutoff)
}

// CleanupOld deletes completed notifications older than the retention
// period and returns how many records were removed.
func (s *DomainService) CleanupOld(ctx context.Context) (int64, error) {
	cutoff := s.clock.Now().Add(-RetentionPeriod)
	return s.repo.DeleteOlderThan(ctx, cutoff)
}

// GetNotificationStats aggregates delivery statistics for the period.
// Returns ErrInvalidDateRange when start is after end.
func (s *DomainService) GetNotificationStats(ctx context.Context, start, end time.Time) (Stats, error) {
	if start.After(end) {
		return Stats{}, ErrInvalidDateRange
	}
	return s.repo.CollectStats(ctx, start, end)
}

// isAtDailyLimit checks the calendar-day delivery cap for the user.
func (s *DomainService) isAtDailyLimit(ctx context.Context, userID shared.UserID, now time.Time) (bool, error) {
	dayStart := timeutil.StartOfDay(now)
	dayEnd := dayStart.Add(24 * time.Hour)

	count, err := s.repo.CountSentBetween(ctx, userID, dayStart, dayEnd)
	if err != nil {
		return false, fmt.Errorf("count sent notifications for user %s: %w", userID, err)
	}
	return count >= DailyLimit, nil
}

// transition loads a notification, applies the status change, and persists
// the result.
func (s *DomainService) transition(ctx context.Context, id NotificationID, status Status) error {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	updated, err := n.UpdateStatus(status, s.clock.Now())
	if err != nil {
		return err
	}

	if err := s.repo.Update(ctx, updated); err != nil {
		return shared.WrapDomainError("notification", "transition",
			shared.ErrExternalService, fmt.Sprintf("update notification %s", id), err)
	}
	return nil
}
