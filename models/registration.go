package models

import (
	"time"

	"github.com/google/uuid"
)

type Registration struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	TournamentID uuid.UUID `json:"tournament_id"`
	CreatedAt    time.Time `json:"created_at"`

	Tournament *Tournament `json:"tournament,omitempty"`
	Profile    *Profile    `json:"profile,omitempty"`
}

// RegistrationEvent описывает принятую регистрацию для уведомлений.
type RegistrationEvent struct {
	Registration Registration
	Profile      Profile
	Tournament   Tournament
	// ParticipantCount - число регистраций на турнир после вставки.
	ParticipantCount int
}
