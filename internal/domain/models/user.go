package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	Email             string     `json:"email" db:"email"`
	Username          string     `json:"username" db:"username"`
	Password          string     `json:"-" db:"password"`
	AvatarURL         *string    `json:"avatar_url,omitempty" db:"avatar_url"`
	PreferredLanguage string     `json:"preferred_language" db:"preferred_language"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	LastLogin         *time.Time `json:"last_login,omitempty" db:"last_login"`
}

func NewUser() *User {
	return &User{
		ID:                uuid.New(),
		PreferredLanguage: "en-US",
		CreatedAt:         time.Now(),
	}
}
