// Package notification contains the notification domain model of the
// PuppyTalk notification engine. The model is built around reliable message
// delivery: every outbound notification is a durable record that moves
// through an explicit state machine from creation to a terminal state.
package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/puppytalk-hub/notification-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// NotificationID represents a unique notification identifier.
// It is empty until the notification has been persisted.
type NotificationID string

// IsValid checks that the ID is not empty.
func (id NotificationID) IsValid() bool {
	return len(id) > 0
}

// String returns the string representation of the ID.
func (id NotificationID) String() string {
	return string(id)
}

// NewNotificationID generates a new random notification ID.
func NewNotificationID() NotificationID {
	return NotificationID(uuid.NewString())
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION TYPE
// ══════════════════════════════════════════════════════════════════════════════

// Type defines the kind of notification.
type Type string

const (
	// TypePetMessage - a message written in the pet's voice.
	TypePetMessage Type = "PET_MESSAGE"

	// TypeInactivityMessage - a pet message sent to re-engage an inactive user.
	TypeInactivityMessage Type = "INACTIVITY_MESSAGE"

	// TypeChatMessage - a real-time chat message notification.
	TypeChatMessage Type = "CHAT_MESSAGE"

	// TypePetStatus - a notification about the pet's state.
	TypePetStatus Type = "PET_STATUS"
)

// IsValid checks that the notification type is known.
func (t Type) IsValid() bool {
	switch t {
	case TypePetMessage, TypeInactivityMessage, TypeChatMessage, TypePetStatus:
		return true
	default:
		return false
	}
}

// IsUrgent returns true if the notification must be dispatched immediately.
func (t Type) IsUrgent() bool {
	return t == TypeChatMessage
}

// IsBatchable returns true if the notification may be processed in batches.
func (t Type) IsBatchable() bool {
	return t == TypePetMessage || t == TypeInactivityMessage || t == TypePetStatus
}

// RequiresAIGeneration returns true if the content comes from the AI persona.
func (t Type) RequiresAIGeneration() bool {
	return t == TypePetMessage || t == TypeInactivityMessage
}

// String returns the string representation of the type.
func (t Type) String() string {
	return string(t)
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status defines the delivery status of a notification.
type Status string

const (
	// StatusCreated - the notification exists but has not been dispatched.
	StatusCreated Status = "CREATED"

	// StatusQueued - the notification has been handed to the dispatch queue.
	StatusQueued Status = "QUEUED"

	// StatusSending - a delivery attempt is in flight.
	StatusSending Status = "SENDING"

	// StatusSent - the notification was delivered successfully.
	StatusSent Status = "SENT"

	// StatusRead - the recipient acknowledged the notification.
	StatusRead Status = "READ"

	// StatusFailed - the last delivery attempt failed.
	StatusFailed Status = "FAILED"

	// StatusExpired - the dispatch window elapsed before delivery.
	StatusExpired Status = "EXPIRED"

	// StatusCancelled - the notification was cancelled before delivery.
	StatusCancelled Status = "CANCELLED"
)

// IsValid checks that the status is known.
func (s Status) IsValid() bool {
	switch s {
	case StatusCreated, StatusQueued, StatusSending, StatusSent,
		StatusRead, StatusFailed, StatusExpired, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsRetryable returns true if a delivery attempt may be made from this status.
func (s Status) IsRetryable() bool {
	return s == StatusCreated || s == StatusQueued || s == StatusFailed
}

// IsCompleted returns true for statuses with no further normal transitions.
func (s Status) IsCompleted() bool {
	switch s {
	case StatusSent, StatusRead, StatusFailed, StatusExpired, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsInProgress returns true while the notification is still moving
// towards delivery.
func (s Status) IsInProgress() bool {
	return s == StatusCreated || s == StatusQueued || s == StatusSending
}

// IsSuccessful returns true if the notification reached the recipient.
func (s Status) IsSuccessful() bool {
	return s == StatusSent || s == StatusRead
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// canTransitionTo reports whether the state machine allows moving from s
// to next. EXPIRED and CANCELLED are reachable from any in-progress or
// failed state via the cleanup/disable paths; they are not part of the
// normal dispatch flow.
func (s Status) canTransitionTo(next Status) bool {
	if next == StatusExpired || next == StatusCancelled {
		return s.IsInProgress() || s == StatusFailed
	}

	switch s {
	case StatusCreated, StatusQueued:
		return next == StatusQueued || next == StatusSending ||
			next == StatusSent || next == StatusFailed
	case StatusSending:
		return next == StatusSent || next == StatusFailed
	case StatusSent:
		return next == StatusRead
	case StatusFailed:
		// A failed record re-enters the dispatch flow on retry.
		return next == StatusCreated || next == StatusQueued ||
			next == StatusSending || next == StatusSent || next == StatusFailed
	default:
		// READ, EXPIRED, CANCELLED are terminal.
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// MaxRetryCount is the delivery retry ceiling. Once reached, the record
// stays FAILED and is excluded from retry queries.
const MaxRetryCount = 3

// ExpiryWindow is how long after its scheduled time a notification stays
// eligible for dispatch before it is considered expired.
const ExpiryWindow = 24 * time.Hour

// Notification represents one outbound notification and its delivery state.
// Transitions produce a new value; an existing Notification is never
// mutated in place.
type Notification struct {
	// ID - unique identifier, empty until persisted.
	ID NotificationID

	// UserID - the recipient.
	UserID shared.UserID

	// PetID - the pet the message is attributed to (zero for system-wide).
	PetID shared.PetID

	// ChatRoomID - the chat room the message belongs to (zero for system-wide).
	ChatRoomID shared.ChatRoomID

	// Type - the notification kind.
	Type Type

	// Title - short headline, non-blank.
	Title string

	// Content - message body, non-blank.
	Content string

	// Status - current delivery status.
	Status Status

	// ScheduledAt - earliest dispatch time.
	ScheduledAt time.Time

	// SentAt - set once, the first time the record reaches SENT.
	SentAt *time.Time

	// ReadAt - set once, the first time the record reaches READ.
	ReadAt *time.Time

	// CreatedAt - creation time.
	CreatedAt time.Time

	// UpdatedAt - refreshed on every transition.
	UpdatedAt time.Time

	// RetryCount - number of failed delivery attempts so far.
	RetryCount int

	// FailureReason - message from the last failed delivery attempt.
	FailureReason string
}

// ══════════════════════════════════════════════════════════════════════════════
// FACTORIES
// ══════════════════════════════════════════════════════════════════════════════

// NewInactivityNotification creates an INACTIVITY_MESSAGE notification for
// an inactive user. scheduledAt may be zero to mean "dispatch immediately".
func NewInactivityNotification(
	userID shared.UserID,
	petID shared.PetID,
	chatRoomID shared.ChatRoomID,
	title, content string,
	scheduledAt time.Time,
	now time.Time,
) (*Notification, error) {
	if !userID.IsValid() {
		return nil, shared.ErrInvalidUserID
	}
	if !petID.IsValid() {
		return nil, shared.ErrInvalidPetID
	}

	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if content == "" {
		return nil, ErrEmptyContent
	}

	if scheduledAt.IsZero() {
		scheduledAt = now
	}

	return &Notification{
		UserID:      userID,
		PetID:       petID,
		ChatRoomID:  chatRoomID,
		Type:        TypeInactivityMessage,
		Title:       title,
		Content:     content,
		Status:      StatusCreated,
		ScheduledAt: scheduledAt,
		CreatedAt:   now,
		UpdatedAt:   now,
		RetryCount:  0,
	}, nil
}

// NewSystemNotification creates a system-wide notification with no pet or
// chat room attached. It is scheduled for immediate dispatch.
func NewSystemNotification(userID shared.UserID, title, content string, now time.Time) (*Notification, error) {
	if !userID.IsValid() {
		return nil, shared.ErrInvalidUserID
	}

	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if content == "" {
		return nil, ErrEmptyContent
	}

	return &Notification{
		UserID:      userID,
		Type:        TypePetStatus,
		Title:       title,
		Content:     content,
		Status:      StatusCreated,
		ScheduledAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
		RetryCount:  0,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TRANSITIONS (immutable: each returns a new value)
// ══════════════════════════════════════════════════════════════════════════════

// WithID returns a copy of the notification carrying the given ID.
// Used by repositories after the identifier has been assigned.
func (n Notification) WithID(id NotificationID) Notification {
	n.ID = id
	return n
}

// UpdateStatus returns a copy of the notification in the new status.
// SentAt is set the first time SENT is reached and ReadAt the first time
// READ is reached; neither is ever overwritten by later transitions.
// UpdatedAt is always refreshed.
func (n Notification) UpdateStatus(status Status, now time.Time) (Notification, error) {
	if !status.IsValid() {
		return n, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	if !n.Status.canTransitionTo(status) {
		return n, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, n.Status, status)
	}

	if status == StatusSent && n.SentAt == nil {
		t := now
		n.SentAt = &t
	}
	if status == StatusRead && n.ReadAt == nil {
		t := now
		n.ReadAt = &t
	}

	n.Status = status
	n.UpdatedAt = now
	return n, nil
}

// IncrementRetry returns a copy of the notification marked FAILED with the
// retry counter advanced and the failure reason recorded. It applies from
// any non-terminal state; a record already at the retry ceiling is accepted
// and simply stays permanently non-retryable.
func (n Notification) IncrementRetry(reason string, now time.Time) Notification {
	n.Status = StatusFailed
	n.RetryCount++
	n.FailureReason = reason
	n.UpdatedAt = now
	return n
}

// ══════════════════════════════════════════════════════════════════════════════
// PREDICATES
// ══════════════════════════════════════════════════════════════════════════════

// CanRetry returns true if another delivery attempt is allowed.
func (n Notification) CanRetry() bool {
	return n.Status.IsRetryable() && n.RetryCount < MaxRetryCount
}

// IsExpired returns true if the dispatch window has elapsed.
func (n Notification) IsExpired(now time.Time) bool {
	return now.After(n.ScheduledAt.Add(ExpiryWindow))
}

// IsScheduledFor returns true if the notification is due at the given time.
func (n Notification) IsScheduledFor(t time.Time) bool {
	return !n.ScheduledAt.After(t)
}

// String returns a compact representation for logging.
func (n Notification) String() string {
	return fmt.Sprintf("Notification{ID: %s, Type: %s, User: %s, Status: %s, Retries: %d}",
		n.ID, n.Type, n.UserID, n.Status, n.RetryCount)
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// Notification errors wrap the shared kinds so callers can match either the
// specific sentinel or the category: errors.Is(err, ErrDuplicate) and
// errors.Is(err, shared.ErrAlreadyExists) both hold.
var (
	// ErrNotFound - no notification exists with the given ID.
	ErrNotFound = fmt.Errorf("%w: notification", shared.ErrNotFound)

	// ErrEmptyTitle - the title is blank after trimming.
	ErrEmptyTitle = fmt.Errorf("%w: notification title", shared.ErrEmptyValue)

	// ErrEmptyContent - the content is blank after trimming.
	ErrEmptyContent = fmt.Errorf("%w: notification content", shared.ErrEmptyValue)

	// ErrUnknownStatus - the status value is not part of the state machine.
	ErrUnknownStatus = fmt.Errorf("%w: unknown notification status", shared.ErrInvalidState)

	// ErrInvalidTransition - the state machine forbids this transition.
	ErrInvalidTransition = fmt.Errorf("%w: notification status", shared.ErrStateTransition)

	// ErrDuplicate - an INACTIVITY_MESSAGE is already outstanding for the user.
	ErrDuplicate = fmt.Errorf("%w: inactivity notification outstanding", shared.ErrAlreadyExists)

	// ErrDailyLimitExceeded - the user already received the daily maximum.
	ErrDailyLimitExceeded = fmt.Errorf("%w: daily notification limit", shared.ErrRateLimited)

	// ErrInvalidBatchSize - the requested batch size is out of range.
	ErrInvalidBatchSize = fmt.Errorf("%w: batch size", shared.ErrValueOutOfRange)

	// ErrInvalidDateRange - the stats range has start after end.
	ErrInvalidDateRange = fmt.Errorf("%w: start date must not be after end date", shared.ErrValidation)
)
