package models

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleParticipant UserRole = "participant"
	RoleAdmin       UserRole = "admin"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	YandexID     *string   `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
