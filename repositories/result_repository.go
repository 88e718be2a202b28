package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/kmo-registration/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrResultProfileInvalid    = errors.New("result profile reference invalid")
	ErrResultTournamentInvalid = errors.New("result tournament reference invalid")
)

type ResultRepository interface {
	// Upsert записывает результат участника; повторная запись перезаписывает место и баллы.
	Upsert(ctx context.Context, result *models.TournamentResult) error
	// ListByTournaments возвращает результаты с именами участников, сгруппированные по турниру.
	ListByTournaments(ctx context.Context, tournamentIDs []uuid.UUID) (map[uuid.UUID][]models.TournamentResult, error)
}

type postgresResultRepository struct {
	db *sql.DB
}

func NewPostgresResultRepository(db *sql.DB) ResultRepository {
	return &postgresResultRepository{db: db}
}

func (r *postgresResultRepository) Upsert(ctx context.Context, res *models.TournamentResult) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}

	query := `
		INSERT INTO tournament_results (id, tournament_id, profile_id, place, score)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tournament_id, profile_id) DO UPDATE SET
			place = EXCLUDED.place,
			score = EXCLUDED.score
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		res.ID, res.TournamentID, res.ProfileID, res.Place, res.Score,
	).Scan(&res.ID)

	if err != nil {
		if pqErr, ok := asPQError(err); ok && pqErr.Code == pqForeignKeyViolation {
			switch pqErr.Constraint {
			case "tournament_results_profile_id_fkey":
				return ErrResultProfileInvalid
			case "tournament_results_tournament_id_fkey":
				return ErrResultTournamentInvalid
			}
		}
		return fmt.Errorf("failed to upsert result: %w", err)
	}
	return nil
}

func (r *postgresResultRepository) ListByTournaments(ctx context.Context, tournamentIDs []uuid.UUID) (map[uuid.UUID][]models.TournamentResult, error) {
	results := make(map[uuid.UUID][]models.TournamentResult, len(tournamentIDs))
	if len(tournamentIDs) == 0 {
		return results, nil
	}

	ids := make([]string, len(tournamentIDs))
	for i, id := range tournamentIDs {
		ids[i] = id.String()
	}

	query := `
		SELECT
			tr.id, tr.tournament_id, tr.profile_id, tr.place, tr.score,
			COALESCE(p.first_name, ''), COALESCE(p.last_name, '')
		FROM tournament_results tr
		LEFT JOIN profiles p ON p.id = tr.profile_id
		WHERE tr.tournament_id = ANY($1::uuid[])
		ORDER BY tr.tournament_id, tr.place ASC`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list tournament results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var res models.TournamentResult
		if err := rows.Scan(
			&res.ID, &res.TournamentID, &res.ProfileID, &res.Place, &res.Score,
			&res.FirstName, &res.LastName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		results[res.TournamentID] = append(results[res.TournamentID], res)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating result rows: %w", err)
	}
	return results, nil
}
