package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/voicebridge/voicebridge/internal/application/constant"
	"github.com/voicebridge/voicebridge/internal/domain/output"
	"github.com/voicebridge/voicebridge/internal/infra/ports/http/dto"
	"github.com/voicebridge/voicebridge/internal/usecase"
)

type RoomHandler struct {
	roomUsecase usecase.RoomUsecase
}

func NewRoomHandler(roomUsecase usecase.RoomUsecase) *RoomHandler {
	return &RoomHandler{roomUsecase: roomUsecase}
}

// ListRooms serves the lobby with public rooms open for joining.
func (h *RoomHandler) ListRooms(c echo.Context) error {
	rooms, err := h.roomUsecase.ListPublicRooms(c.Request().Context())
	if err != nil {
		slog.Error("list public rooms failed", slog.Any(constant.Error, err))

		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not list rooms"})
	}

	if rooms == nil {
		rooms = []output.RoomSummary{}
	}

	return c.JSON(http.StatusOK, dto.ListRoomsResponse{Rooms: rooms})
}
