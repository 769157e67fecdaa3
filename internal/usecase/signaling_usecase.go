package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voicebridge/voicebridge/internal/application/constant"
	"github.com/voicebridge/voicebridge/internal/application/metric"
	"github.com/voicebridge/voicebridge/internal/domain/events"
	"github.com/voicebridge/voicebridge/internal/domain/input"
	"github.com/voicebridge/voicebridge/internal/domain/runtime"
	"github.com/voicebridge/voicebridge/internal/infra/adapters/memory"
	"github.com/voicebridge/voicebridge/internal/infra/adapters/postgres/repository"
)

// SignalingUsecase is the message router: every inbound frame of a
// connected client goes through Route, and the connection lifecycle
// is reported via HandleJoin / HandleDisconnect.
type SignalingUsecase interface {
	// HandleJoin binds a new connection to a room, creating the room
	// when the join handshake asks for it.
	HandleJoin(ctx context.Context, p *runtime.Participant, conn runtime.Conn, join events.JoinEvent) error

	Route(ctx context.Context, sender *runtime.Participant, msg events.Message) error

	HandleDisconnect(ctx context.Context, p *runtime.Participant)
}

type signalingUsecase struct {
	registry memory.RoomRegistry
	presence memory.PresenceRepository
	links    memory.PeerLinkRepository

	presentation PresentationUsecase
	translation  TranslationUsecase

	// sessionRepo is nil for deployments without postgres history.
	sessionRepo repository.SessionRepository

	// reconnectGrace delays the leave announcement after a user's last
	// connection drops, so a page refresh keeps room membership.
	reconnectGrace time.Duration

	pendingMu     sync.Mutex
	pendingLeaves map[string]*time.Timer
}

func NewSignalingUsecase(
	registry memory.RoomRegistry,
	presence memory.PresenceRepository,
	links memory.PeerLinkRepository,
	presentation PresentationUsecase,
	translation TranslationUsecase,
	sessionRepo repository.SessionRepository,
	reconnectGrace time.Duration,
) SignalingUsecase {
	return &signalingUsecase{
		registry:       registry,
		presence:       presence,
		links:          links,
		presentation:   presentation,
		translation:    translation,
		sessionRepo:    sessionRepo,
		reconnectGrace: reconnectGrace,
		pendingLeaves:  make(map[string]*time.Timer),
	}
}

func pendingKey(roomID string, userID uuid.UUID) string {
	return roomID + "/" + userID.String()
}

func (s *signalingUsecase) HandleJoin(ctx context.Context, p *runtime.Participant, conn runtime.Conn, join events.JoinEvent) error {
	s.presence.Register(p.UserID, p.ConnectionID, conn)

	info, err := s.joinOrCreate(ctx, p, join)
	if err != nil {
		s.sendError(p, errorCode(err), err.Error())
		s.presence.Unregister(p.UserID, p.ConnectionID)
		return err
	}

	// A quick reconnect cancels the pending leave announcement.
	s.cancelPendingLeave(info.ID, p.UserID)

	if s.sessionRepo != nil && !p.Guest {
		sessionID, err := s.sessionRepo.CreateSession(p.UserID, info.ID, info.Name, p.Role)
		if err != nil {
			slog.Error("create room session",
				slog.Any(constant.Error, err),
				slog.Any(constant.UserID, p.UserID),
			)
		} else {
			p.SessionID = sessionID
		}
	}

	joined, err := events.New(events.TypeRoomJoined, events.RoomJoinedEvent{
		RoomID:   info.ID,
		RoomName: info.Name,
		UserID:   p.UserID,
		UserName: p.Name,
	})
	if err != nil {
		return err
	}
	s.presence.Write(p.UserID, p.ConnectionID, joined)

	s.presentation.HandleLateJoin(ctx, *p)

	s.broadcastSystem(info.ID, fmt.Sprintf("%s joined the room", p.Name), uuid.Nil)
	s.broadcastParticipants(info.ID)

	return nil
}

func (s *signalingUsecase) joinOrCreate(ctx context.Context, p *runtime.Participant, join events.JoinEvent) (runtime.RoomInfo, error) {
	if join.RoomID == "" || join.RoomID == "CREATE" {
		info, err := s.registry.Create(ctx, input.CreateRoomInput{
			Name:      join.RoomName,
			IsPublic:  join.IsPublic,
			Password:  join.Password,
			CreatedBy: p.UserID,
		})
		if err != nil {
			return runtime.RoomInfo{}, err
		}

		return s.registry.Join(ctx, info.ID, join.Password, p)
	}

	return s.registry.Join(ctx, join.RoomID, join.Password, p)
}

func (s *signalingUsecase) Route(ctx context.Context, sender *runtime.Participant, msg events.Message) error {
	metric.RecordSignalMessage(msg.Type)

	switch msg.Type {
	case events.TypeChat:
		var chat events.ChatEvent
		if err := json.Unmarshal(msg.Data, &chat); err != nil {
			return fmt.Errorf("unmarshal chat event: %w", err)
		}

		return s.handleChat(sender, chat)

	case events.TypeSpeech:
		var speech events.SpeechEvent
		if err := json.Unmarshal(msg.Data, &speech); err != nil {
			return fmt.Errorf("unmarshal speech event: %w", err)
		}

		return s.translation.BroadcastSpeech(ctx, *sender, speech.Text)

	case events.TypeSignalOffer, events.TypeSignalAnswer, events.TypeSignalICE:
		var signal events.SignalEvent
		if err := json.Unmarshal(msg.Data, &signal); err != nil {
			return fmt.Errorf("unmarshal %s event: %w", msg.Type, err)
		}

		s.handleSignal(sender, msg.Type, signal)
		return nil

	case events.TypeStartPresentation:
		if err := s.presentation.Start(ctx, *sender); err != nil {
			if errors.Is(err, runtime.ErrAlreadyPresenting) {
				s.sendError(sender, events.CodeAlreadyPresenting, "another presenter is already active")
				return nil
			}
			return fmt.Errorf("start presentation: %w", err)
		}
		return nil

	case events.TypeStopPresentation:
		if err := s.presentation.Stop(ctx, sender.RoomID, sender.UserID); err != nil {
			if errors.Is(err, runtime.ErrNotPresenting) {
				s.sendError(sender, events.CodeNotPresenting, "you are not the active presenter")
				return nil
			}
			return fmt.Errorf("stop presentation: %w", err)
		}
		return nil

	case events.TypePing:
		s.presence.Write(sender.UserID, sender.ConnectionID, events.Message{Type: events.TypePong})
		return nil

	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

// handleChat broadcasts verbatim to every connection of every room
// member. The sender's own connection is skipped, but their other
// devices receive an echo to stay in sync.
func (s *signalingUsecase) handleChat(sender *runtime.Participant, chat events.ChatEvent) error {
	frame, err := events.New(events.TypeChatMessage, events.ChatMessageEvent{
		SenderID:   sender.UserID,
		SenderName: sender.Name,
		Text:       chat.Text,
		RoomID:     sender.RoomID,
	})
	if err != nil {
		return err
	}

	for _, p := range s.registry.Participants(sender.RoomID) {
		if p.ConnectionID == sender.ConnectionID {
			continue
		}
		s.presence.Write(p.UserID, p.ConnectionID, frame)
	}

	return nil
}

// handleSignal unicasts one negotiation leg to the target user's
// connections. An offline or out-of-room target is a silent drop:
// negotiation frames are superseded by newer ones, so nothing breaks.
func (s *signalingUsecase) handleSignal(sender *runtime.Participant, messageType string, signal events.SignalEvent) {
	if signal.Target == uuid.Nil {
		slog.Warn("signal without target dropped",
			slog.String(constant.MessageType, messageType),
			slog.Any(constant.UserID, sender.UserID),
		)
		return
	}

	if !s.registry.UserInRoom(sender.RoomID, signal.Target) || !s.presence.IsOnline(signal.Target) {
		slog.Debug("signal target offline, dropped",
			slog.String(constant.MessageType, messageType),
			slog.Any(constant.UserID, sender.UserID),
			slog.Any(constant.TargetID, signal.Target),
		)
		return
	}

	s.advanceLink(sender, messageType, signal.Target)

	frame, err := events.New(messageType, events.SignalForward{
		Sender:     sender.UserID,
		SenderName: sender.Name,
		Payload:    signal.Payload,
	})
	if err != nil {
		slog.Error("build signal frame", slog.Any(constant.Error, err))
		return
	}

	s.presence.WriteTo(signal.Target, frame)
}

// advanceLink records negotiation progress on the presenter-viewer
// link the frame belongs to, if a presentation is active.
func (s *signalingUsecase) advanceLink(sender *runtime.Participant, messageType string, target uuid.UUID) {
	info, ok := s.registry.Info(sender.RoomID)
	if !ok || info.Presenter == uuid.Nil {
		return
	}

	viewer := sender.UserID
	if viewer == info.Presenter {
		viewer = target
	}

	switch messageType {
	case events.TypeSignalOffer:
		s.links.Advance(sender.RoomID, viewer, runtime.LinkOfferSent)
	case events.TypeSignalAnswer:
		s.links.Advance(sender.RoomID, viewer, runtime.LinkAnswerReceived)
	case events.TypeSignalICE:
		s.links.Advance(sender.RoomID, viewer, runtime.LinkICEExchanging)
	}
}

func (s *signalingUsecase) HandleDisconnect(ctx context.Context, p *runtime.Participant) {
	s.presence.Unregister(p.UserID, p.ConnectionID)

	if s.sessionRepo != nil && p.SessionID != 0 {
		if err := s.sessionRepo.EndSession(p.SessionID); err != nil {
			slog.Error("end room session", slog.Any(constant.Error, err))
		}
	}

	removed, stillInRoom, found := s.registry.RemoveConnection(ctx, p.RoomID, p.ConnectionID)
	if !found {
		return
	}

	if stillInRoom {
		// The user is still present through another device.
		return
	}

	// The presenter's stream died with the connection: stop promptly
	// instead of waiting out the reconnect grace.
	if info, ok := s.registry.Info(p.RoomID); ok && info.Presenter == removed.UserID {
		if err := s.presentation.Stop(ctx, p.RoomID, removed.UserID); err != nil {
			slog.Error("stop presentation on disconnect",
				slog.Any(constant.Error, err),
				slog.String(constant.RoomID, p.RoomID),
			)
		}
	} else {
		s.presentation.HandleViewerLeft(ctx, p.RoomID, removed.UserID)
	}

	if s.reconnectGrace <= 0 {
		s.finalizeLeave(p.RoomID, removed)
		return
	}

	key := pendingKey(p.RoomID, removed.UserID)

	s.pendingMu.Lock()
	if timer, ok := s.pendingLeaves[key]; ok {
		timer.Stop()
	}
	s.pendingLeaves[key] = time.AfterFunc(s.reconnectGrace, func() {
		s.pendingMu.Lock()
		delete(s.pendingLeaves, key)
		s.pendingMu.Unlock()

		s.finalizeLeave(p.RoomID, removed)
	})
	s.pendingMu.Unlock()
}

func (s *signalingUsecase) cancelPendingLeave(roomID string, userID uuid.UUID) {
	key := pendingKey(roomID, userID)

	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()

	if timer, ok := s.pendingLeaves[key]; ok {
		timer.Stop()
		delete(s.pendingLeaves, key)
	}
}

// finalizeLeave announces that a user is really gone, unless they
// rejoined during the grace period.
func (s *signalingUsecase) finalizeLeave(roomID string, p runtime.Participant) {
	if s.registry.UserInRoom(roomID, p.UserID) {
		return
	}

	s.broadcastSystem(roomID, fmt.Sprintf("%s left the room", p.Name), p.UserID)
	s.broadcastParticipants(roomID)
}

func (s *signalingUsecase) broadcastSystem(roomID, message string, exclude uuid.UUID) {
	frame, err := events.New(events.TypeSystem, events.SystemEvent{Message: message})
	if err != nil {
		slog.Error("build system frame", slog.Any(constant.Error, err))
		return
	}

	for _, p := range s.registry.Participants(roomID) {
		if exclude != uuid.Nil && p.UserID == exclude {
			continue
		}
		s.presence.Write(p.UserID, p.ConnectionID, frame)
	}
}

func (s *signalingUsecase) broadcastParticipants(roomID string) {
	participants := s.registry.Participants(roomID)

	list := events.ParticipantListEvent{
		Participants: make([]events.ParticipantInfo, 0, len(participants)),
	}

	for _, p := range participants {
		list.Participants = append(list.Participants, events.ParticipantInfo{
			ID:        p.UserID,
			Name:      p.Name,
			Language:  p.Language,
			Role:      p.Role,
			AvatarURL: p.AvatarURL,
		})
	}

	frame, err := events.New(events.TypeParticipants, list)
	if err != nil {
		slog.Error("build participants frame", slog.Any(constant.Error, err))
		return
	}

	for _, p := range participants {
		s.presence.Write(p.UserID, p.ConnectionID, frame)
	}
}

func (s *signalingUsecase) sendError(p *runtime.Participant, code, message string) {
	frame, err := events.New(events.TypeError, events.ErrorEvent{Code: code, Message: message})
	if err != nil {
		slog.Error("build error frame", slog.Any(constant.Error, err))
		return
	}

	s.presence.Write(p.UserID, p.ConnectionID, frame)
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, runtime.ErrRoomNotFound):
		return events.CodeRoomNotFound
	case errors.Is(err, runtime.ErrWrongPassword):
		return events.CodeWrongPassword
	case errors.Is(err, runtime.ErrAlreadyPresenting):
		return events.CodeAlreadyPresenting
	default:
		return events.CodeBadRequest
	}
}
