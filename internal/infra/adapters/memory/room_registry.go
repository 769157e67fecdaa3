package memory

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/voicebridge/voicebridge/internal/application/constant"
	"github.com/voicebridge/voicebridge/internal/application/metric"
	"github.com/voicebridge/voicebridge/internal/domain/input"
	"github.com/voicebridge/voicebridge/internal/domain/output"
	"github.com/voicebridge/voicebridge/internal/domain/runtime"
	"github.com/voicebridge/voicebridge/internal/infra/adapters/store"
)

// RoomRegistry owns all room state held by this instance. Every
// mutation goes through it; reads after a mutation observe that
// mutation (per-room lock).
type RoomRegistry interface {
	Create(ctx context.Context, in input.CreateRoomInput) (runtime.RoomInfo, error)
	Join(ctx context.Context, roomID, password string, p *runtime.Participant) (runtime.RoomInfo, error)

	// RemoveConnection detaches one connection from a room. It reports
	// whether the user still holds other connections in the room.
	RemoveConnection(ctx context.Context, roomID string, connectionID uuid.UUID) (removed runtime.Participant, userStillInRoom bool, found bool)

	Participants(roomID string) []runtime.Participant
	Info(roomID string) (runtime.RoomInfo, bool)
	UserInRoom(roomID string, userID uuid.UUID) bool

	// SetPresenter is an atomic check-and-set: it succeeds only while
	// no other presenter is active in the room.
	SetPresenter(ctx context.Context, roomID string, userID uuid.UUID, name string) error
	ClearPresenter(ctx context.Context, roomID string, userID uuid.UUID) error

	ListPublicRooms(ctx context.Context) []output.RoomSummary
}

type roomEntry struct {
	mu      sync.Mutex
	room    *runtime.Room
	gcTimer *time.Timer
}

type roomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*roomEntry

	store store.RoomStore

	// grace is how long an empty room survives before collection.
	grace time.Duration
}

func NewRoomRegistry(roomStore store.RoomStore, grace time.Duration) RoomRegistry {
	return &roomRegistry{
		rooms: make(map[string]*roomEntry),
		store: roomStore,
		grace: grace,
	}
}

// newRoomID generates a short join code, the shape users share verbally.
func newRoomID() string {
	return strings.ToUpper(uuid.NewString()[:6])
}

func (r *roomRegistry) Create(ctx context.Context, in input.CreateRoomInput) (runtime.RoomInfo, error) {
	roomID := strings.ToUpper(strings.TrimSpace(in.ID))
	if roomID == "" || roomID == "CREATE" {
		roomID = newRoomID()
	}

	name := in.Name
	if name == "" {
		name = "Room " + roomID
	}

	var passwordHash string
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return runtime.RoomInfo{}, err
		}
		passwordHash = string(hash)
	}

	room := &runtime.Room{
		ID:           roomID,
		Name:         name,
		IsPublic:     in.IsPublic,
		PasswordHash: passwordHash,
		CreatedBy:    in.CreatedBy,
		Participants: make(map[uuid.UUID]*runtime.Participant),
	}

	r.mu.Lock()
	if _, exists := r.rooms[roomID]; exists {
		r.mu.Unlock()
		return runtime.RoomInfo{}, runtime.ErrRoomExists
	}
	r.rooms[roomID] = &roomEntry{room: room}
	r.mu.Unlock()

	metric.IncrementActiveRooms()

	slog.Info("room created",
		slog.String(constant.RoomID, roomID),
		slog.Any(constant.UserID, in.CreatedBy),
	)

	r.syncRoom(ctx, room)
	r.publish(ctx, store.MembershipEvent{
		Action: store.ActionCreated,
		RoomID: roomID,
		UserID: in.CreatedBy,
		At:     time.Now(),
	})

	return infoOf(room), nil
}

func (r *roomRegistry) entry(roomID string) (*roomEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.rooms[roomID]
	return e, ok
}

func (r *roomRegistry) Join(ctx context.Context, roomID, password string, p *runtime.Participant) (runtime.RoomInfo, error) {
	e, ok := r.entry(roomID)
	if !ok {
		return runtime.RoomInfo{}, runtime.ErrRoomNotFound
	}

	e.mu.Lock()

	if e.room.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(e.room.PasswordHash), []byte(password)); err != nil {
			e.mu.Unlock()
			return runtime.RoomInfo{}, runtime.ErrWrongPassword
		}
	}

	// A join within the grace period revives a room pending collection.
	if e.gcTimer != nil {
		e.gcTimer.Stop()
		e.gcTimer = nil
	}

	p.RoomID = e.room.ID
	e.room.Participants[p.ConnectionID] = p
	info := infoOf(e.room)

	e.mu.Unlock()

	slog.Info("participant joined room",
		slog.String(constant.RoomID, roomID),
		slog.Any(constant.UserID, p.UserID),
		slog.Any(constant.ConnectionID, p.ConnectionID),
		slog.String(constant.UserName, p.Name),
	)

	r.syncUserCount(ctx, roomID, info.UserCount)
	r.publish(ctx, store.MembershipEvent{
		Action:    store.ActionJoined,
		RoomID:    roomID,
		UserID:    p.UserID,
		UserCount: info.UserCount,
		At:        time.Now(),
	})

	return info, nil
}

func (r *roomRegistry) RemoveConnection(ctx context.Context, roomID string, connectionID uuid.UUID) (runtime.Participant, bool, bool) {
	e, ok := r.entry(roomID)
	if !ok {
		return runtime.Participant{}, false, false
	}

	e.mu.Lock()

	p, ok := e.room.Participants[connectionID]
	if !ok {
		e.mu.Unlock()
		return runtime.Participant{}, false, false
	}

	removed := *p
	delete(e.room.Participants, connectionID)

	stillInRoom := e.room.UserConnections(removed.UserID) > 0
	count := len(e.room.Participants)

	if count == 0 {
		r.scheduleCollection(e)
	}

	e.mu.Unlock()

	slog.Info("participant connection removed",
		slog.String(constant.RoomID, roomID),
		slog.Any(constant.UserID, removed.UserID),
		slog.Any(constant.ConnectionID, connectionID),
	)

	r.syncUserCount(ctx, roomID, count)
	r.publish(ctx, store.MembershipEvent{
		Action:    store.ActionLeft,
		RoomID:    roomID,
		UserID:    removed.UserID,
		UserCount: count,
		At:        time.Now(),
	})

	return removed, stillInRoom, true
}

// scheduleCollection arms the empty-room timer; caller holds e.mu.
func (r *roomRegistry) scheduleCollection(e *roomEntry) {
	roomID := e.room.ID

	if r.grace <= 0 {
		go r.collect(roomID)
		return
	}

	e.gcTimer = time.AfterFunc(r.grace, func() {
		r.collect(roomID)
	})
}

func (r *roomRegistry) collect(roomID string) {
	r.mu.Lock()

	e, ok := r.rooms[roomID]
	if !ok {
		r.mu.Unlock()
		return
	}

	e.mu.Lock()
	if len(e.room.Participants) > 0 {
		// Somebody came back between the timer firing and this lock.
		e.mu.Unlock()
		r.mu.Unlock()
		return
	}
	e.mu.Unlock()

	delete(r.rooms, roomID)
	r.mu.Unlock()

	metric.DecrementActiveRooms()

	slog.Info("empty room collected", slog.String(constant.RoomID, roomID))

	ctx := context.Background()
	if err := r.store.DeleteRoom(ctx, roomID); err != nil {
		slog.Warn("delete room from store", slog.Any(constant.Error, err), slog.String(constant.RoomID, roomID))
	}
	r.publish(ctx, store.MembershipEvent{
		Action: store.ActionDeleted,
		RoomID: roomID,
		At:     time.Now(),
	})
}

func (r *roomRegistry) Participants(roomID string) []runtime.Participant {
	e, ok := r.entry(roomID)
	if !ok {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	participants := make([]runtime.Participant, 0, len(e.room.Participants))
	for _, p := range e.room.Participants {
		participants = append(participants, *p)
	}

	return participants
}

func (r *roomRegistry) Info(roomID string) (runtime.RoomInfo, bool) {
	e, ok := r.entry(roomID)
	if !ok {
		return runtime.RoomInfo{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return infoOf(e.room), true
}

func (r *roomRegistry) UserInRoom(roomID string, userID uuid.UUID) bool {
	e, ok := r.entry(roomID)
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.room.UserConnections(userID) > 0
}

func (r *roomRegistry) SetPresenter(ctx context.Context, roomID string, userID uuid.UUID, name string) error {
	e, ok := r.entry(roomID)
	if !ok {
		return runtime.ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.room.Presenter != uuid.Nil && e.room.Presenter != userID {
		return runtime.ErrAlreadyPresenting
	}

	e.room.Presenter = userID
	e.room.PresenterName = name

	return nil
}

func (r *roomRegistry) ClearPresenter(ctx context.Context, roomID string, userID uuid.UUID) error {
	e, ok := r.entry(roomID)
	if !ok {
		return runtime.ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.room.Presenter != userID {
		return runtime.ErrNotPresenting
	}

	e.room.Presenter = uuid.Nil
	e.room.PresenterName = ""

	return nil
}

func (r *roomRegistry) ListPublicRooms(ctx context.Context) []output.RoomSummary {
	// Prefer the shared store for cross-instance visibility.
	if summaries, err := r.store.ListPublicRooms(ctx); err == nil && summaries != nil {
		return summaries
	} else if err != nil {
		slog.Warn("list public rooms from store", slog.Any(constant.Error, err))
	}

	r.mu.RLock()
	entries := make([]*roomEntry, 0, len(r.rooms))
	for _, e := range r.rooms {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	summaries := make([]output.RoomSummary, 0, len(entries))

	for _, e := range entries {
		e.mu.Lock()
		if e.room.IsPublic {
			summaries = append(summaries, output.RoomSummary{
				ID:          e.room.ID,
				Name:        e.room.Name,
				UsersCount:  len(e.room.Participants),
				HasPassword: e.room.PasswordHash != "",
			})
		}
		e.mu.Unlock()
	}

	return summaries
}

func infoOf(room *runtime.Room) runtime.RoomInfo {
	return runtime.RoomInfo{
		ID:            room.ID,
		Name:          room.Name,
		IsPublic:      room.IsPublic,
		HasPassword:   room.PasswordHash != "",
		Presenter:     room.Presenter,
		PresenterName: room.PresenterName,
		UserCount:     len(room.Participants),
	}
}

func (r *roomRegistry) syncRoom(ctx context.Context, room *runtime.Room) {
	record := store.RoomRecord{
		ID:          room.ID,
		Name:        room.Name,
		IsPublic:    room.IsPublic,
		HasPassword: room.PasswordHash != "",
		CreatedBy:   room.CreatedBy.String(),
	}

	if err := r.store.SaveRoom(ctx, record); err != nil {
		slog.Warn("sync room to store", slog.Any(constant.Error, err), slog.String(constant.RoomID, room.ID))
	}
}

func (r *roomRegistry) syncUserCount(ctx context.Context, roomID string, count int) {
	if err := r.store.SetUserCount(ctx, roomID, count); err != nil {
		slog.Warn("sync user count to store", slog.Any(constant.Error, err), slog.String(constant.RoomID, roomID))
	}
}

func (r *roomRegistry) publish(ctx context.Context, event store.MembershipEvent) {
	if err := r.store.PublishMembership(ctx, event); err != nil {
		slog.Warn("publish membership event", slog.Any(constant.Error, err), slog.String(constant.RoomID, event.RoomID))
	}
}
