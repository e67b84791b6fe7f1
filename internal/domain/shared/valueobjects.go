// Package shared contains common domain types, errors, and value objects
// that are used across all domain packages of the PuppyTalk notification
// engine. This package has zero external dependencies.
package shared

import "fmt"

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID represents a unique PuppyTalk user identifier.
type UserID int64

// IsValid checks if the user ID is valid (positive number).
func (id UserID) IsValid() bool {
	return id > 0
}

// Int64 returns the underlying int64 value.
func (id UserID) Int64() int64 {
	return int64(id)
}

// String returns the string representation.
func (id UserID) String() string {
	return fmt.Sprintf("%d", int64(id))
}

// NewUserID creates a new UserID with validation.
func NewUserID(id int64) (UserID, error) {
	if id <= 0 {
		return 0, ErrInvalidUserID
	}
	return UserID(id), nil
}

// PetID represents a unique virtual pet identifier.
// A zero PetID means "no pet" — used by system-wide notifications.
type PetID int64

// IsValid checks if the pet ID is valid (positive number).
func (id PetID) IsValid() bool {
	return id > 0
}

// IsZero reports whether the pet ID is unset.
func (id PetID) IsZero() bool {
	return id == 0
}

// Int64 returns the underlying int64 value.
func (id PetID) Int64() int64 {
	return int64(id)
}

// String returns the string representation.
func (id PetID) String() string {
	return fmt.Sprintf("%d", int64(id))
}

// NewPetID creates a new PetID with validation.
func NewPetID(id int64) (PetID, error) {
	if id <= 0 {
		return 0, ErrInvalidPetID
	}
	return PetID(id), nil
}

// ChatRoomID represents a unique chat room identifier.
// A zero ChatRoomID means "no chat room" — used by system-wide notifications.
type ChatRoomID int64

// IsValid checks if the chat room ID is valid (positive number).
func (id ChatRoomID) IsValid() bool {
	return id > 0
}

// IsZero reports whether the chat room ID is unset.
func (id ChatRoomID) IsZero() bool {
	return id == 0
}

// Int64 returns the underlying int64 value.
func (id ChatRoomID) Int64() int64 {
	return int64(id)
}

// String returns the string representation.
func (id ChatRoomID) String() string {
	return fmt.Sprintf("%d", int64(id))
}

// NewChatRoomID creates a new ChatRoomID with validation.
func NewChatRoomID(id int64) (ChatRoomID, error) {
	if id <= 0 {
		return 0, ErrInvalidChatRoomID
	}
	return ChatRoomID(id), nil
}
