package input

import "github.com/google/uuid"

type CreateRoomInput struct {
	ID        string
	Name      string
	IsPublic  bool
	Password  string
	CreatedBy uuid.UUID
}
