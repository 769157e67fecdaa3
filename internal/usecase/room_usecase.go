package usecase

import (
	"context"

	"github.com/voicebridge/voicebridge/internal/domain/output"
	"github.com/voicebridge/voicebridge/internal/infra/adapters/memory"
)

// RoomUsecase serves the lobby.
type RoomUsecase interface {
	ListPublicRooms(ctx context.Context) ([]output.RoomSummary, error)
}

type roomUsecase struct {
	registry memory.RoomRegistry
}

func NewRoomUsecase(registry memory.RoomRegistry) RoomUsecase {
	return &roomUsecase{registry: registry}
}

func (uc *roomUsecase) ListPublicRooms(ctx context.Context) ([]output.RoomSummary, error) {
	return uc.registry.ListPublicRooms(ctx), nil
}
