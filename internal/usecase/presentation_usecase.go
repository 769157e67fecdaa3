package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/voicebridge/voicebridge/internal/application/constant"
	"github.com/voicebridge/voicebridge/internal/domain/events"
	"github.com/voicebridge/voicebridge/internal/domain/runtime"
	"github.com/voicebridge/voicebridge/internal/infra/adapters/memory"
)

// PresentationUsecase is the per-room screen-share state machine:
// Idle -> Presenting on a successful start, Presenting -> Idle on stop,
// presenter leave or presenter disconnect. While presenting, one peer
// link is tracked per viewer, including viewers who join late.
type PresentationUsecase interface {
	Start(ctx context.Context, sender runtime.Participant) error
	Stop(ctx context.Context, roomID string, by uuid.UUID) error

	// HandleLateJoin wires a freshly joined participant into an
	// ongoing presentation: the joiner learns about the presentation
	// and the presenter is told to initiate a new offer.
	HandleLateJoin(ctx context.Context, joiner runtime.Participant)

	HandleViewerLeft(ctx context.Context, roomID string, viewer uuid.UUID)
}

type presentationUsecase struct {
	registry memory.RoomRegistry
	presence memory.PresenceRepository
	links    memory.PeerLinkRepository
}

func NewPresentationUsecase(
	registry memory.RoomRegistry,
	presence memory.PresenceRepository,
	links memory.PeerLinkRepository,
) PresentationUsecase {
	return &presentationUsecase{
		registry: registry,
		presence: presence,
		links:    links,
	}
}

func (uc *presentationUsecase) Start(ctx context.Context, sender runtime.Participant) error {
	if err := uc.registry.SetPresenter(ctx, sender.RoomID, sender.UserID, sender.Name); err != nil {
		return err
	}

	slog.Info("presentation started",
		slog.String(constant.RoomID, sender.RoomID),
		slog.Any(constant.UserID, sender.UserID),
	)

	started, err := events.New(events.TypePresentationStarted, events.PresentationStartedEvent{
		PresenterID:   sender.UserID,
		PresenterName: sender.Name,
	})
	if err != nil {
		return err
	}

	notified := make(map[uuid.UUID]bool)

	for _, p := range uc.registry.Participants(sender.RoomID) {
		if p.UserID == sender.UserID || notified[p.UserID] {
			continue
		}
		notified[p.UserID] = true

		uc.links.Create(sender.RoomID, sender.UserID, p.UserID)
		uc.presence.WriteTo(p.UserID, started)
	}

	uc.broadcastSystem(sender.RoomID, fmt.Sprintf("%s started presenting", sender.Name))

	return nil
}

func (uc *presentationUsecase) Stop(ctx context.Context, roomID string, by uuid.UUID) error {
	if err := uc.registry.ClearPresenter(ctx, roomID, by); err != nil {
		return err
	}

	closed := uc.links.CloseRoom(roomID)

	slog.Info("presentation stopped",
		slog.String(constant.RoomID, roomID),
		slog.Any(constant.UserID, by),
		slog.Int("links_closed", len(closed)),
	)

	stopped, err := events.New(events.TypePresentationStopped, events.PresentationStoppedEvent{
		PresenterID: by,
	})
	if err != nil {
		return err
	}

	for _, p := range uc.registry.Participants(roomID) {
		uc.presence.Write(p.UserID, p.ConnectionID, stopped)
	}

	return nil
}

func (uc *presentationUsecase) HandleLateJoin(ctx context.Context, joiner runtime.Participant) {
	info, ok := uc.registry.Info(joiner.RoomID)
	if !ok || info.Presenter == uuid.Nil || info.Presenter == joiner.UserID {
		return
	}

	uc.links.Create(joiner.RoomID, info.Presenter, joiner.UserID)

	started, err := events.New(events.TypePresentationStarted, events.PresentationStartedEvent{
		PresenterID:   info.Presenter,
		PresenterName: info.PresenterName,
	})
	if err != nil {
		slog.Error("build presentation_started frame", slog.Any(constant.Error, err))
		return
	}

	uc.presence.Write(joiner.UserID, joiner.ConnectionID, started)

	newViewer, err := events.New(events.TypeNewViewer, events.NewViewerEvent{
		ViewerID:   joiner.UserID,
		ViewerName: joiner.Name,
	})
	if err != nil {
		slog.Error("build new_viewer frame", slog.Any(constant.Error, err))
		return
	}

	// The presenter drives the negotiation: this frame tells it to
	// initiate a fresh offer toward the late joiner.
	uc.presence.WriteTo(info.Presenter, newViewer)

	slog.Info("late joiner wired into presentation",
		slog.String(constant.RoomID, joiner.RoomID),
		slog.Any(constant.UserID, joiner.UserID),
		slog.Any("presenter_id", info.Presenter),
	)
}

func (uc *presentationUsecase) HandleViewerLeft(ctx context.Context, roomID string, viewer uuid.UUID) {
	uc.links.CloseViewer(roomID, viewer)
}

func (uc *presentationUsecase) broadcastSystem(roomID, message string) {
	frame, err := events.New(events.TypeSystem, events.SystemEvent{Message: message})
	if err != nil {
		slog.Error("build system frame", slog.Any(constant.Error, err))
		return
	}

	for _, p := range uc.registry.Participants(roomID) {
		uc.presence.Write(p.UserID, p.ConnectionID, frame)
	}
}
