package runtime

import (
	"github.com/google/uuid"
)

// Room is the authoritative state of one communication space. It is
// owned by the room registry and must only be mutated through it.
type Room struct {
	ID           string
	Name         string
	IsPublic     bool
	PasswordHash string
	CreatedBy    uuid.UUID

	// Participants is keyed by connection ID, not user ID: a user on
	// two devices holds two entries.
	Participants map[uuid.UUID]*Participant

	// Presenter is uuid.Nil while nobody is presenting.
	Presenter     uuid.UUID
	PresenterName string
}

// RoomInfo is a read-only snapshot of room metadata.
type RoomInfo struct {
	ID            string
	Name          string
	IsPublic      bool
	HasPassword   bool
	Presenter     uuid.UUID
	PresenterName string
	UserCount     int
}

// UserConnections counts how many connections a user holds in the room.
func (r *Room) UserConnections(userID uuid.UUID) int {
	n := 0
	for _, p := range r.Participants {
		if p.UserID == userID {
			n++
		}
	}
	return n
}
