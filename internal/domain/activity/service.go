package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/puppytalk-hub/notification-engine/internal/domain/shared"
)

const (
	// InactivityThreshold is how long a user must stay quiet before they
	// count as inactive and become a candidate for a pet nudge.
	InactivityThreshold = 2 * time.Hour

	// DefaultCandidateLimit caps how many inactive users a single
	// detection pass considers.
	DefaultCandidateLimit = 500

	// ActivityRetention is how long raw activity records are kept.
	ActivityRetention = 90 * 24 * time.Hour
)

// DomainService answers "who went quiet?" on top of the activity log.
type DomainService struct {
	repo  Repository
	clock shared.Clock
}

// NewDomainService creates an activity domain service. A nil clock defaults
// to the system clock.
func NewDomainService(repo Repository, clock shared.Clock) *DomainService {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &DomainService{repo: repo, clock: clock}
}

// RecordActivity appends an activity record stamped with the current time.
func (s *DomainService) RecordActivity(ctx context.Context, userID shared.UserID, activityType ActivityType) (*UserActivity, error) {
	now := s.clock.Now()

	a, err := NewUserActivity(userID, activityType, now, now)
	if err != nil {
		return nil, err
	}

	id, err := s.repo.Save(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("save activity: %w", err)
	}

	a.ID = id
	return a, nil
}

// RecordGlobalActivity appends a session-level record. Only login and
// logout count as global; chat-scoped types go through RecordActivity.
func (s *DomainService) RecordGlobalActivity(ctx context.Context, userID shared.UserID, activityType ActivityType) (*UserActivity, error) {
	if activityType != TypeLogin && activityType != TypeLogout {
		return nil, ErrInvalidActivityType
	}
	return s.RecordActivity(ctx, userID, activityType)
}

// FindInactiveUsers returns users whose last activity is older than the
// inactivity threshold, quietest first.
func (s *DomainService) FindInactiveUsers(ctx context.Context, limit int) ([]shared.UserID, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	cutoff := s.clock.Now().Add(-InactivityThreshold)
	return s.repo.FindInactiveUserIDs(ctx, cutoff, limit)
}

// IsUserActive reports whether the user has been active within the
// inactivity threshold. A user with no activity at all counts as inactive.
func (s *DomainService) IsUserActive(ctx context.Context, userID shared.UserID) (bool, error) {
	if !userID.IsValid() {
		return false, shared.ErrInvalidUserID
	}

	last, err := s.repo.FindLastActivity(ctx, userID)
	if err != nil {
		return false, err
	}
	if last == nil {
		return false, nil
	}

	cutoff := s.clock.Now().Add(-InactivityThreshold)
	return last.OccurredAt.After(cutoff), nil
}

// CleanupOld removes activity records past the retention window.
func (s *DomainService) CleanupOld(ctx context.Context) (int64, error) {
	cutoff := s.clock.Now().Add(-ActivityRetention)
	return s.repo.DeleteOlderThan(ctx, cutoff)
}
