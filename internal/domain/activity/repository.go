package activity

import (
	"context"
	"time"

	"github.com/puppytalk-hub/notification-engine/internal/domain/shared"
)

// Repository defines persistence operations for user activity records.
type Repository interface {
	// Save appends an activity record and returns its assigned ID.
	Save(ctx context.Context, a *UserActivity) (int64, error)

	// FindLastActivity returns the user's most recent activity record, or
	// nil when the user has never been active.
	FindLastActivity(ctx context.Context, userID shared.UserID) (*UserActivity, error)

	// FindInactiveUserIDs returns up to limit IDs of users whose most
	// recent activity is older than cutoff, ordered by that activity
	// ascending (quietest users first).
	FindInactiveUserIDs(ctx context.Context, cutoff time.Time, limit int) ([]shared.UserID, error)

	// DeleteOlderThan removes activity records older than cutoff and
	// returns how many were removed. Each user's most recent record is
	// always kept so inactivity detection stays possible.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
