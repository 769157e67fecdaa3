package dto

import "github.com/voicebridge/voicebridge/internal/domain/output"

type ListRoomsResponse struct {
	Rooms []output.RoomSummary `json:"rooms"`
}
