package models

import (
	"time"

	"github.com/google/uuid"
)

// RoomSession is one visit of an authenticated user to a room, kept as
// browsable history.
type RoomSession struct {
	ID       int64      `json:"id" db:"id"`
	UserID   uuid.UUID  `json:"user_id" db:"user_id"`
	RoomID   string     `json:"room_id" db:"room_id"`
	RoomName string     `json:"room_name" db:"room_name"`
	Role     string     `json:"role" db:"role"`
	JoinedAt time.Time  `json:"joined_at" db:"joined_at"`
	LeftAt   *time.Time `json:"left_at,omitempty" db:"left_at"`
}
