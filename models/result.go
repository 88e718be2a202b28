package models

import "github.com/google/uuid"

type TournamentResult struct {
	ID           uuid.UUID `json:"id"`
	TournamentID uuid.UUID `json:"tournament_id"`
	ProfileID    uuid.UUID `json:"profile_id"`
	Place        int       `json:"place"`
	Score        float64   `json:"score"`

	// Заполняются JOIN'ом с profiles.
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}
