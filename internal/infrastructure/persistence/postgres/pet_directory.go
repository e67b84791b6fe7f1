package postgres

import (
	"context"
	"fmt"

	"github.com/puppytalk-hub/notification-engine/internal/application/notify"
	"github.com/puppytalk-hub/notification-engine/internal/domain/shared"
)

// PetDirectory implements notify.PetDirectory against the main PuppyTalk
// schema. The pets and chat_rooms tables are owned by the application
// service; the engine only reads them, so there is no migration here.
type PetDirectory struct {
	conn *Connection
}

// NewPetDirectory creates a PostgreSQL pet directory.
func NewPetDirectory(conn *Connection) *PetDirectory {
	return &PetDirectory{conn: conn}
}

// FindPetByUser resolves the user's pet and its chat room.
// Returns notify.ErrNoPet when the user has not created a pet yet.
func (d *PetDirectory) FindPetByUser(ctx context.Context, userID shared.UserID) (notify.PetProfile, error) {
	query := `
		SELECT p.id, cr.id, p.name, p.persona
		FROM pets p
		JOIN chat_rooms cr ON cr.pet_id = p.id
		WHERE p.owner_id = $1
		ORDER BY p.created_at ASC
		LIMIT 1`

	var (
		petID      int64
		chatRoomID int64
		profile    notify.PetProfile
	)
	err := d.conn.QueryRow(ctx, query, userID.Int64()).
		Scan(&petID, &chatRoomID, &profile.Name, &profile.Persona)
	if err != nil {
		if IsNoRows(err) {
			return notify.PetProfile{}, notify.ErrNoPet
		}
		return notify.PetProfile{}, fmt.Errorf("postgres: find pet for user %s: %w", userID, err)
	}

	profile.PetID = shared.PetID(petID)
	profile.ChatRoomID = shared.ChatRoomID(chatRoomID)
	return profile, nil
}
