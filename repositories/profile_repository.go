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
	ErrProfileNotFound    = errors.New("profile not found")
	ErrProfileUserInvalid = errors.New("profile user reference invalid")
)

type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) error
	UpdateAvatarKey(ctx context.Context, id uuid.UUID, avatarKey *string) error
}

type postgresProfileRepository struct {
	db *sql.DB
}

func NewPostgresProfileRepository(db *sql.DB) ProfileRepository {
	return &postgresProfileRepository{db: db}
}

const profileColumns = `
	id, last_name, first_name, middle_name, birth_date, city, school, class_number,
	parent_name, teacher_name, tutor_name, phone, email, telegram_username,
	avatar_key, created_at, updated_at`

func (r *postgresProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	p := &models.Profile{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.LastName, &p.FirstName, &p.MiddleName, &p.BirthDate, &p.City, &p.School, &p.ClassNumber,
		&p.ParentName, &p.TeacherName, &p.TutorName, &p.Phone, &p.Email, &p.TelegramUsername,
		&p.AvatarKey, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// Upsert создаёт анкету или перезаписывает редактируемые поля существующей.
// avatar_key меняется только через UpdateAvatarKey.
func (r *postgresProfileRepository) Upsert(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO profiles (
			id, last_name, first_name, middle_name, birth_date, city, school, class_number,
			parent_name, teacher_name, tutor_name, phone, email, telegram_username, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			last_name = EXCLUDED.last_name,
			first_name = EXCLUDED.first_name,
			middle_name = EXCLUDED.middle_name,
			birth_date = EXCLUDED.birth_date,
			city = EXCLUDED.city,
			school = EXCLUDED.school,
			class_number = EXCLUDED.class_number,
			parent_name = EXCLUDED.parent_name,
			teacher_name = EXCLUDED.teacher_name,
			tutor_name = EXCLUDED.tutor_name,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			telegram_username = EXCLUDED.telegram_username,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at, avatar_key`

	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.LastName, p.FirstName, p.MiddleName, p.BirthDate, p.City, p.School, p.ClassNumber,
		p.ParentName, p.TeacherName, p.TutorName, p.Phone, p.Email, p.TelegramUsername, p.UpdatedAt,
	).Scan(&p.CreatedAt, &p.AvatarKey)

	if err != nil {
		if pqErr, ok := asPQError(err); ok && pqErr.Code == pqForeignKeyViolation {
			return ErrProfileUserInvalid
		}
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

func (r *postgresProfileRepository) UpdateAvatarKey(ctx context.Context, id uuid.UUID, avatarKey *string) error {
	query := `UPDATE profiles SET avatar_key = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, avatarKey, id)
	if err != nil {
		return fmt.Errorf("failed to update avatar key: %w", err)
	}
	return checkAffectedRows(result, ErrProfileNotFound)
}
