// Package notify orchestrates the notification use cases: detecting
// inactive users and turning them into scheduled pet messages, and
// dispatching due notifications through the delivery channel.
package notify

import (
	"context"
	"errors"

	"github.com/puppytalk-hub/notification-engine/internal/domain/shared"
)

// ErrNoPet is returned by PetDirectory when the user has no pet.
var ErrNoPet = errors.New("notify: user has no pet")

// PetProfile is the slice of pet data the notification flow needs.
type PetProfile struct {
	PetID      shared.PetID
	ChatRoomID shared.ChatRoomID
	Name       string
	Persona    string
}

// PetDirectory resolves a user's pet and chat room.
type PetDirectory interface {
	// FindPetByUser returns the user's pet profile.
	// Returns ErrNoPet when the user has no pet.
	FindPetByUser(ctx context.Context, userID shared.UserID) (PetProfile, error)
}

// ChatHistory provides recent conversation context for content generation.
type ChatHistory interface {
	// RecentMessages returns up to limit message bodies from the chat
	// room, newest last.
	RecentMessages(ctx context.Context, chatRoomID shared.ChatRoomID, limit int) ([]string, error)
}
