// Package activity contains domain entities and business logic for tracking
// user activity. The scheduler uses this package to decide which users have
// gone quiet and should hear from their pet.
// This is a pure domain layer with zero external dependencies.
package activity

import (
	"fmt"
	"time"

	"github.com/puppytalk-hub/notification-engine/internal/domain/shared"
)

// Domain errors wrap the shared kinds so callers can match by category.
var (
	ErrInvalidActivityType = fmt.Errorf("%w: invalid activity type", shared.ErrValidation)
	ErrFutureTimestamp     = fmt.Errorf("%w: activity timestamp cannot be in the future", shared.ErrValidation)
	ErrInvalidLimit        = fmt.Errorf("%w: activity limit must be positive", shared.ErrValueOutOfRange)
)

// ActivityType classifies what the user did.
type ActivityType string

const (
	// TypeLogin - the user signed in.
	TypeLogin ActivityType = "LOGIN"

	// TypeLogout - the user signed out.
	TypeLogout ActivityType = "LOGOUT"

	// TypeMessageSent - the user sent a chat message to their pet.
	TypeMessageSent ActivityType = "MESSAGE_SENT"

	// TypeChatOpened - the user opened a chat room.
	TypeChatOpened ActivityType = "CHAT_OPENED"
)

// IsValid checks that the activity type is known.
func (t ActivityType) IsValid() bool {
	switch t {
	case TypeLogin, TypeLogout, TypeMessageSent, TypeChatOpened:
		return true
	default:
		return false
	}
}

// String returns the string representation of the type.
func (t ActivityType) String() string {
	return string(t)
}

// UserActivity is one recorded user action. Records are append-only; the
// inactivity detector only ever looks at each user's most recent one.
type UserActivity struct {
	ID         int64
	UserID     shared.UserID
	Type       ActivityType
	OccurredAt time.Time
}

// NewUserActivity creates an activity record. occurredAt may be slightly
// ahead of now to tolerate clock skew between app servers.
func NewUserActivity(userID shared.UserID, activityType ActivityType, occurredAt, now time.Time) (*UserActivity, error) {
	if !userID.IsValid() {
		return nil, shared.ErrInvalidUserID
	}
	if !activityType.IsValid() {
		return nil, ErrInvalidActivityType
	}
	if occurredAt.After(now.Add(time.Minute)) {
		return nil, ErrFutureTimestamp
	}

	return &UserActivity{
		UserID:     userID,
		Type:       activityType,
		OccurredAt: occurredAt,
	}, nil
}
