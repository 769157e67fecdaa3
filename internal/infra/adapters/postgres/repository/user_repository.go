package repository

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/voicebridge/voicebridge/internal/domain/models"
)

type UserRepository interface {
	CreateUser(user *models.User) error
	GetUserByID(id uuid.UUID) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	UpdateLastLogin(id uuid.UUID) error
	UpdateAvatar(id uuid.UUID, avatarURL string) error
}

type userRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) CreateUser(user *models.User) error {
	query := `INSERT INTO users (id, email, username, password, preferred_language)
		VALUES ($1, $2, $3, $4, $5)`

	res, err := r.db.Exec(query, user.ID, user.Email, user.Username, user.Password, user.PreferredLanguage)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	if aff, err := res.RowsAffected(); aff == 0 || err != nil {
		return fmt.Errorf("create user no rows affected: %w", err)
	}

	return nil
}

func (r *userRepo) GetUserByID(id uuid.UUID) (*models.User, error) {
	var user models.User

	query := `SELECT id, email, username, password, avatar_url, preferred_language, created_at, last_login
		FROM users WHERE id = $1`

	if err := r.db.Get(&user, query, id); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepo) GetUserByEmail(email string) (*models.User, error) {
	var user models.User

	query := `SELECT id, email, username, password, avatar_url, preferred_language, created_at, last_login
		FROM users WHERE email = $1`

	if err := r.db.Get(&user, query, email); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepo) UpdateLastLogin(id uuid.UUID) error {
	if _, err := r.db.Exec("UPDATE users SET last_login = $1 WHERE id = $2", time.Now(), id); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}

	return nil
}

func (r *userRepo) UpdateAvatar(id uuid.UUID, avatarURL string) error {
	if _, err := r.db.Exec("UPDATE users SET avatar_url = $1 WHERE id = $2", avatarURL, id); err != nil {
		return fmt.Errorf("update avatar: %w", err)
	}

	return nil
}
