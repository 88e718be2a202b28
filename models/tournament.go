package models

import (
	"time"

	"github.com/google/uuid"
)

type TournamentFormat string

const (
	FormatOnline  TournamentFormat = "online"
	FormatOffline TournamentFormat = "offline"
	FormatHybrid  TournamentFormat = "hybrid"
)

func (f TournamentFormat) Valid() bool {
	switch f {
	case FormatOnline, FormatOffline, FormatHybrid:
		return true
	}
	return false
}

// Tournament представляет олимпиаду (турнир).
type Tournament struct {
	ID                   uuid.UUID        `json:"id"`
	Name                 string           `json:"name"`
	Description          *string          `json:"description,omitempty"`
	Date                 time.Time        `json:"date"`
	RegistrationDeadline time.Time        `json:"registration_deadline"`
	Format               TournamentFormat `json:"format"`
	MaxParticipants      *int             `json:"max_participants,omitempty"`
	Location             *string          `json:"location,omitempty"`
	IsActive             bool             `json:"is_active"`
	CreatedAt            time.Time        `json:"created_at"`

	Results []TournamentResult `json:"tournament_results,omitempty"`
}

// RegistrationOpen - турнир активен и дедлайн регистрации ещё не прошёл.
func (t *Tournament) RegistrationOpen(now time.Time) bool {
	return t.IsActive && !t.RegistrationDeadline.Before(now)
}

// TopParticipant - строка таблицы лидеров на карточке турнира.
type TopParticipant struct {
	Name  string  `json:"name"`
	Place int     `json:"place"`
	Score float64 `json:"score"`
}

// TournamentSummary - турнир для главной страницы.
type TournamentSummary struct {
	Tournament
	TopParticipants []TopParticipant `json:"top_participants"`
}
