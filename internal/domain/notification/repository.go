package notification

import (
	"context"
	"time"

	"github.com/puppytalk-hub/notification-engine/internal/domain/shared"
)

// Repository defines persistence operations for notifications.
// Implementations must treat Notification values as immutable records:
// Update replaces the stored row wholesale with the given value.
type Repository interface {
	// Save persists a new notification and returns its assigned ID.
	Save(ctx context.Context, n *Notification) (NotificationID, error)

	// SaveUniquePending persists a new inactivity notification only if the
	// user has no other pending (CREATED or QUEUED) inactivity notification.
	// The second return value is false when the insert was suppressed by an
	// existing pending record. The check and insert are atomic.
	SaveUniquePending(ctx context.Context, n *Notification) (NotificationID, bool, error)

	// FindByID loads a notification by its ID.
	// Returns ErrNotFound if no such record exists.
	FindByID(ctx context.Context, id NotificationID) (*Notification, error)

	// FindPending returns up to limit notifications that are due for
	// dispatch: status CREATED or QUEUED with ScheduledAt at or before now,
	// ordered by ScheduledAt ascending.
	FindPending(ctx context.Context, now time.Time, limit int) ([]Notification, error)

	// FindRetryable returns up to limit FAILED notifications whose retry
	// count is below the ceiling, ordered by UpdatedAt ascending.
	FindRetryable(ctx context.Context, limit int) ([]Notification, error)

	// Update replaces the stored record identified by n.ID.
	// Returns ErrNotFound if no such record exists.
	Update(ctx context.Context, n Notification) error

	// HasPendingInactivity reports whether the user already has a pending
	// (CREATED or QUEUED) inactivity notification.
	HasPendingInactivity(ctx context.Context, userID shared.UserID) (bool, error)

	// CountSentBetween counts notifications for the user that reached the
	// recipient (status SENT or READ) with SentAt within [from, to).
	CountSentBetween(ctx context.Context, userID shared.UserID, from, to time.Time) (int, error)

	// FindUnreadByUser returns the user's SENT notifications that have not
	// been read yet, newest first.
	FindUnreadByUser(ctx context.Context, userID shared.UserID) ([]Notification, error)

	// CountUnreadByUser counts the user's SENT notifications not yet read.
	CountUnreadByUser(ctx context.Context, userID shared.UserID) (int, error)

	// MarkExpired transitions every non-terminal notification whose dispatch
	// window elapsed before cutoff to EXPIRED and returns how many records
	// were affected.
	MarkExpired(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteOlderThan removes completed notifications created before cutoff
	// and returns how many records were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// CollectStats aggregates delivery statistics for notifications created
	// within [start, end].
	CollectStats(ctx context.Context, start, end time.Time) (Stats, error)
}

// Stats aggregates delivery outcomes over a reporting period.
// TotalPending counts records still moving towards delivery (CREATED,
// QUEUED, SENDING); it is tracked separately because cancelled records
// make it underivable from the other buckets.
type Stats struct {
	Start        time.Time
	End          time.Time
	TotalCreated int64
	TotalPending int64
	TotalSent    int64
	TotalRead    int64
	TotalFailed  int64
	TotalExpired int64
}

// DeliveryRate returns the fraction of created notifications that reached
// the recipient. Zero when nothing was created in the period.
func (s Stats) DeliveryRate() float64 {
	if s.TotalCreated == 0 {
		return 0
	}
	return float64(s.TotalSent+s.TotalRead) / float64(s.TotalCreated)
}

// ReadRate returns the fraction of delivered notifications that the
// recipient opened. Zero when nothing was delivered in the period.
func (s Stats) ReadRate() float64 {
	delivered := s.TotalSent + s.TotalRead
	if delivered == 0 {
		return 0
	}
	return float64(s.TotalRead) / float64(delivered)
}
