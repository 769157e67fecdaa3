package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/voicebridge/voicebridge/internal/domain/output"
)

// RoomStore mirrors room metadata into a shared store so that the
// lobby and membership changes are visible across instances. The
// in-memory registry stays authoritative for the rooms this instance
// serves; the store is best-effort.
type RoomStore interface {
	SaveRoom(ctx context.Context, record RoomRecord) error
	SetUserCount(ctx context.Context, roomID string, count int) error
	DeleteRoom(ctx context.Context, roomID string) error
	ListPublicRooms(ctx context.Context) ([]output.RoomSummary, error)

	PublishMembership(ctx context.Context, event MembershipEvent) error
	SubscribeMembership(ctx context.Context) (<-chan MembershipEvent, error)

	Close() error
}

// RoomRecord is the persisted shape of a room.
type RoomRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsPublic    bool   `json:"is_public"`
	HasPassword bool   `json:"has_password"`
	CreatedBy   string `json:"created_by"`
}

// Membership event actions.
const (
	ActionJoined  = "joined"
	ActionLeft    = "left"
	ActionCreated = "created"
	ActionDeleted = "deleted"
)

// MembershipEvent is published on every room membership change.
type MembershipEvent struct {
	Action    string    `json:"action"`
	RoomID    string    `json:"room_id"`
	UserID    uuid.UUID `json:"user_id,omitempty"`
	UserCount int       `json:"user_count"`
	At        time.Time `json:"at"`
}
