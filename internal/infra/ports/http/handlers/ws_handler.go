package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/voicebridge/voicebridge/internal/application/config"
	"github.com/voicebridge/voicebridge/internal/application/constant"
	"github.com/voicebridge/voicebridge/internal/domain/events"
	"github.com/voicebridge/voicebridge/internal/domain/runtime"
	"github.com/voicebridge/voicebridge/internal/infra/adapters/ws"
	"github.com/voicebridge/voicebridge/internal/usecase"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second

	// handshakeWait bounds how long a fresh connection may idle
	// before sending its join frame.
	handshakeWait = 10 * time.Second
)

// WebSocketHandler is the connection gateway: it authenticates the
// room/user binding, then bridges frames between the transport and the
// signaling router.
type WebSocketHandler struct {
	upgrader *websocket.Upgrader

	userUsecase      usecase.UserUsecase
	signalingUsecase usecase.SignalingUsecase
}

func NewWebSocketHandler(cfg *config.Config, userUsecase usecase.UserUsecase, signalingUsecase usecase.SignalingUsecase) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if cfg.Debug {
					return true
				}

				return r.Header.Get("Origin") == cfg.Domain
			},
		},
		userUsecase:      userUsecase,
		signalingUsecase: signalingUsecase,
	}
}

func (h *WebSocketHandler) Handle(c echo.Context) error {
	// A missing token means a guest session; a present but invalid
	// token is rejected outright.
	participant, err := h.identify(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error("WebSocket upgrade error", slog.Any(constant.Error, err))
		return err
	}
	defer conn.Close()

	safeConn := ws.NewConn(conn)

	join, err := h.readHandshake(conn)
	if err != nil {
		slog.Warn("join handshake failed",
			slog.Any(constant.Error, err),
			slog.Any(constant.UserID, participant.UserID),
		)
		return nil
	}

	if participant.Guest && join.Name != "" {
		participant.Name = join.Name
	}
	if join.Language != "" {
		participant.Language = join.Language
	}
	if join.Role != "" {
		participant.Role = join.Role
	}

	ctx := c.Request().Context()

	if err := h.signalingUsecase.HandleJoin(ctx, participant, safeConn, join); err != nil {
		slog.Warn("join rejected",
			slog.Any(constant.Error, err),
			slog.Any(constant.UserID, participant.UserID),
		)
		return nil
	}
	defer h.signalingUsecase.HandleDisconnect(ctx, participant)

	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return err
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	h.readLoop(c, conn, participant)

	return nil
}

// identify resolves the connecting client to a participant identity.
func (h *WebSocketHandler) identify(c echo.Context) (*runtime.Participant, error) {
	connectionID := uuid.New()

	token := c.QueryParam("token")
	if token == "" {
		guestID := uuid.New()

		return &runtime.Participant{
			ConnectionID: connectionID,
			UserID:       guestID,
			Name:         "Guest-" + strings.ToUpper(guestID.String()[:4]),
			Language:     "en-US",
			Role:         "speaker",
			Guest:        true,
		}, nil
	}

	userID, err := h.userUsecase.VerifyToken(token)
	if err != nil {
		return nil, err
	}

	user, err := h.userUsecase.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return nil, err
	}

	p := &runtime.Participant{
		ConnectionID: connectionID,
		UserID:       user.ID,
		Name:         user.Username,
		Language:     user.PreferredLanguage,
		Role:         "speaker",
	}
	if user.AvatarURL != nil {
		p.AvatarURL = *user.AvatarURL
	}

	return p, nil
}

func (h *WebSocketHandler) readHandshake(conn *websocket.Conn) (events.JoinEvent, error) {
	if err := conn.SetReadDeadline(time.Now().Add(handshakeWait)); err != nil {
		return events.JoinEvent{}, err
	}

	_, msg, err := conn.ReadMessage()
	if err != nil {
		return events.JoinEvent{}, err
	}

	var frame events.Message
	if err := json.Unmarshal(msg, &frame); err != nil {
		return events.JoinEvent{}, err
	}
	if frame.Type != events.TypeJoin {
		return events.JoinEvent{}, fmt.Errorf("expected %s frame, got %q", events.TypeJoin, frame.Type)
	}

	var join events.JoinEvent
	if err := json.Unmarshal(frame.Data, &join); err != nil {
		return events.JoinEvent{}, err
	}

	return join, nil
}

func (h *WebSocketHandler) readLoop(c echo.Context, conn *websocket.Conn, participant *runtime.Participant) {
	ctx := c.Request().Context()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, msg, err := conn.ReadMessage()
			if err != nil {
				h.handleWebsocketError(participant.UserID, err)
				return
			}

			var signalMessage events.Message
			if err = json.Unmarshal(msg, &signalMessage); err != nil {
				// Tolerate client bugs: drop the frame, keep the session.
				slog.Warn("malformed frame dropped",
					slog.Any(constant.Error, err),
					slog.Any(constant.UserID, participant.UserID),
				)
				continue
			}

			if err = h.signalingUsecase.Route(ctx, participant, signalMessage); err != nil {
				slog.Warn("route message",
					slog.Any(constant.Error, err),
					slog.Any(constant.UserID, participant.UserID),
					slog.String(constant.MessageType, signalMessage.Type),
				)
			}
		}
	}
}

func (h *WebSocketHandler) handleWebsocketError(userID uuid.UUID, err error) {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		switch closeErr.Code {
		case websocket.CloseNormalClosure, websocket.CloseGoingAway:
			slog.Info("user disconnected from websocket", slog.Any(constant.UserID, userID))
		default:
			slog.Error("websocket close error", slog.Any(constant.Error, err), slog.Any(constant.UserID, userID))
		}
	} else {
		slog.Error("websocket read", slog.Any(constant.Error, err), slog.Any(constant.UserID, userID))
	}
}
