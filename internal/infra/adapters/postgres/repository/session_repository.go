package repository

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/voicebridge/voicebridge/internal/domain/models"
)

type SessionRepository interface {
	CreateSession(userID uuid.UUID, roomID, roomName, role string) (int64, error)
	EndSession(id int64) error
	HistoryFor(userID uuid.UUID) ([]models.RoomSession, error)
}

type sessionRepo struct {
	db *sqlx.DB
}

func NewSessionRepo(db *sqlx.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) CreateSession(userID uuid.UUID, roomID, roomName, role string) (int64, error) {
	query := `INSERT INTO room_sessions (user_id, room_id, room_name, role)
		VALUES ($1, $2, $3, $4) RETURNING id`

	var id int64
	if err := r.db.Get(&id, query, userID, roomID, roomName, role); err != nil {
		return 0, fmt.Errorf("create room session: %w", err)
	}

	return id, nil
}

func (r *sessionRepo) EndSession(id int64) error {
	if _, err := r.db.Exec("UPDATE room_sessions SET left_at = $1 WHERE id = $2", time.Now(), id); err != nil {
		return fmt.Errorf("end room session: %w", err)
	}

	return nil
}

func (r *sessionRepo) HistoryFor(userID uuid.UUID) ([]models.RoomSession, error) {
	var sessions []models.RoomSession

	query := `SELECT id, user_id, room_id, room_name, role, joined_at, left_at
		FROM room_sessions WHERE user_id = $1 ORDER BY joined_at DESC LIMIT 50`

	if err := r.db.Select(&sessions, query, userID); err != nil {
		return nil, fmt.Errorf("room session history: %w", err)
	}

	return sessions, nil
}
