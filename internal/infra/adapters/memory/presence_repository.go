package memory

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/voicebridge/voicebridge/internal/application/constant"
	"github.com/voicebridge/voicebridge/internal/application/metric"
	"github.com/voicebridge/voicebridge/internal/domain/runtime"
)

// PresenceRepository tracks live connections per user. One user may
// hold several connections (devices/tabs); writes to a user fan out to
// each handle independently and best-effort, so one broken connection
// never blocks the rest.
type PresenceRepository interface {
	Register(userID, connectionID uuid.UUID, conn runtime.Conn)

	// Unregister reports whether this was the user's last connection.
	Unregister(userID, connectionID uuid.UUID) (last bool)

	ConnectionsFor(userID uuid.UUID) []uuid.UUID
	IsOnline(userID uuid.UUID) bool

	// WriteTo writes to every live connection of the user.
	WriteTo(userID uuid.UUID, payload any)

	// Write writes to one specific connection of the user.
	Write(userID, connectionID uuid.UUID, payload any)
}

type presenceRepository struct {
	// conns holds map[user_id]map[connection_id]conn.
	conns map[uuid.UUID]map[uuid.UUID]runtime.Conn

	mu sync.RWMutex
}

func NewPresenceRepository() PresenceRepository {
	return &presenceRepository{
		conns: make(map[uuid.UUID]map[uuid.UUID]runtime.Conn),
	}
}

func (r *presenceRepository) Register(userID, connectionID uuid.UUID, conn runtime.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	handles, ok := r.conns[userID]
	if !ok {
		handles = make(map[uuid.UUID]runtime.Conn, 1)
		r.conns[userID] = handles
	}

	handles[connectionID] = conn

	metric.IncrementWSActiveConnections()
}

func (r *presenceRepository) Unregister(userID, connectionID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	handles, ok := r.conns[userID]
	if !ok {
		return false
	}

	if _, exists := handles[connectionID]; !exists {
		return false
	}

	delete(handles, connectionID)
	metric.DecrementWSActiveConnections()

	if len(handles) == 0 {
		delete(r.conns, userID)
		return true
	}

	return false
}

func (r *presenceRepository) ConnectionsFor(userID uuid.UUID) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handles := r.conns[userID]

	ids := make([]uuid.UUID, 0, len(handles))
	for id := range handles {
		ids = append(ids, id)
	}

	return ids
}

func (r *presenceRepository) IsOnline(userID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns[userID]) > 0
}

func (r *presenceRepository) WriteTo(userID uuid.UUID, payload any) {
	r.mu.RLock()
	handles := make([]runtime.Conn, 0, len(r.conns[userID]))
	for _, conn := range r.conns[userID] {
		handles = append(handles, conn)
	}
	r.mu.RUnlock()

	for _, conn := range handles {
		if err := conn.WriteJSON(payload); err != nil {
			slog.Error(
				"write to websocket",
				slog.Any(constant.Error, err),
				slog.Any(constant.UserID, userID),
			)
		}
	}
}

func (r *presenceRepository) Write(userID, connectionID uuid.UUID, payload any) {
	r.mu.RLock()
	conn, ok := r.conns[userID][connectionID]
	r.mu.RUnlock()

	if !ok {
		return
	}

	if err := conn.WriteJSON(payload); err != nil {
		slog.Error(
			"write to websocket",
			slog.Any(constant.Error, err),
			slog.Any(constant.UserID, userID),
			slog.Any(constant.ConnectionID, connectionID),
		)
	}
}
