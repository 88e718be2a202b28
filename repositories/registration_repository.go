package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/kmo-registration/models"
	"github.com/google/uuid"
)

var (
	ErrRegistrationConflict          = errors.New("user is already registered for this tournament")
	ErrRegistrationCapacityReached   = errors.New("tournament capacity reached")
	ErrRegistrationUserInvalid       = errors.New("registration user reference invalid")
	ErrRegistrationTournamentInvalid = errors.New("registration tournament reference invalid")
)

type RegistrationRepository interface {
	// Create вставляет регистрацию. Если maxParticipants задан, вставка
	// выполняется только пока число регистраций меньше лимита.
	Create(ctx context.Context, reg *models.Registration, maxParticipants *int) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Registration, error)
	ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Registration, error)
	CountByTournament(ctx context.Context, tournamentID uuid.UUID) (int, error)
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, reg *models.Registration, maxParticipants *int) (err error) {
	if reg.ID == uuid.Nil {
		reg.ID = uuid.New()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if maxParticipants != nil {
		// Блокируем строку турнира, чтобы параллельные регистрации не превысили лимит.
		var locked uuid.UUID
		err = tx.QueryRowContext(ctx, `SELECT id FROM tournaments WHERE id = $1 FOR UPDATE`, reg.TournamentID).Scan(&locked)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				err = ErrRegistrationTournamentInvalid
				return err
			}
			return fmt.Errorf("failed to lock tournament: %w", err)
		}

		var count int
		if count, err = countByTournament(ctx, tx, reg.TournamentID); err != nil {
			return err
		}
		if count >= *maxParticipants {
			err = ErrRegistrationCapacityReached
			return err
		}
	}

	query := `
		INSERT INTO tournament_registrations (id, user_id, tournament_id)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	if err = tx.QueryRowContext(ctx, query, reg.ID, reg.UserID, reg.TournamentID).Scan(&reg.CreatedAt); err != nil {
		err = mapRegistrationError(err)
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit registration: %w", err)
	}
	return nil
}

func (r *postgresRegistrationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Registration, error) {
	query := `
		SELECT
			r.id, r.user_id, r.tournament_id, r.created_at,
			` + prefixedTournamentColumns + `
		FROM tournament_registrations r
		JOIN tournaments t ON t.id = r.tournament_id
		WHERE r.user_id = $1
		ORDER BY t.date ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations by user: %w", err)
	}
	defer rows.Close()

	registrations := make([]models.Registration, 0)
	for rows.Next() {
		var reg models.Registration
		var t models.Tournament
		if err := rows.Scan(
			&reg.ID, &reg.UserID, &reg.TournamentID, &reg.CreatedAt,
			&t.ID, &t.Name, &t.Description, &t.Date, &t.RegistrationDeadline, &t.Format,
			&t.MaxParticipants, &t.Location, &t.IsActive, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", err)
		}
		reg.Tournament = &t
		registrations = append(registrations, reg)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registration rows: %w", err)
	}
	return registrations, nil
}

func (r *postgresRegistrationRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Registration, error) {
	query := `
		SELECT
			r.id, r.user_id, r.tournament_id, r.created_at,
			COALESCE(p.id, r.user_id), COALESCE(p.last_name, ''), COALESCE(p.first_name, ''),
			COALESCE(p.middle_name, ''), COALESCE(p.school, ''), p.class_number,
			COALESCE(p.city, ''), COALESCE(p.email, ''), COALESCE(p.phone, '')
		FROM tournament_registrations r
		LEFT JOIN profiles p ON p.id = r.user_id
		WHERE r.tournament_id = $1
		ORDER BY r.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations by tournament: %w", err)
	}
	defer rows.Close()

	registrations := make([]models.Registration, 0)
	for rows.Next() {
		var reg models.Registration
		var p models.Profile
		if err := rows.Scan(
			&reg.ID, &reg.UserID, &reg.TournamentID, &reg.CreatedAt,
			&p.ID, &p.LastName, &p.FirstName, &p.MiddleName, &p.School, &p.ClassNumber,
			&p.City, &p.Email, &p.Phone,
		); err != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", err)
		}
		reg.Profile = &p
		registrations = append(registrations, reg)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registration rows: %w", err)
	}
	return registrations, nil
}

func (r *postgresRegistrationRepository) CountByTournament(ctx context.Context, tournamentID uuid.UUID) (int, error) {
	return countByTournament(ctx, r.db, tournamentID)
}

func countByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) (int, error) {
	var count int
	err := exec.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tournament_registrations WHERE tournament_id = $1`, tournamentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}
	return count, nil
}

const prefixedTournamentColumns = `
	t.id, t.name, t.description, t.date, t.registration_deadline, t.format,
	t.max_participants, t.location, t.is_active, t.created_at`

func mapRegistrationError(err error) error {
	pqErr, ok := asPQError(err)
	if !ok {
		return fmt.Errorf("failed to create registration: %w", err)
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		if pqErr.Constraint == "tournament_registrations_user_id_tournament_id_key" {
			return ErrRegistrationConflict
		}
	case pqForeignKeyViolation:
		switch pqErr.Constraint {
		case "tournament_registrations_user_id_fkey":
			return ErrRegistrationUserInvalid
		case "tournament_registrations_tournament_id_fkey":
			return ErrRegistrationTournamentInvalid
		}
	}
	return fmt.Errorf("failed to create registration: %w", err)
}
