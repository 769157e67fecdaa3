package runtime

import "github.com/google/uuid"

// Participant is a single connection of a user inside a room. The same
// user may hold several participants at once (multiple devices/tabs),
// each with its own ConnectionID.
type Participant struct {
	ConnectionID uuid.UUID `json:"-"`
	UserID       uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Language     string    `json:"language"`
	Role         string    `json:"role"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	RoomID       string    `json:"-"`
	Guest        bool      `json:"-"`
	SessionID    int64     `json:"-"`
}
