package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/kmo-registration/models"
	"github.com/Dosada05/kmo-registration/repositories"
	"github.com/google/uuid"
)

// RecentTournamentsLimit - сколько турниров показывает главная страница.
const RecentTournamentsLimit = 3

type TournamentService interface {
	// Recent - последние активные турниры с тремя лучшими результатами.
	// При ошибке хранилища возвращает демо-данные.
	Recent(ctx context.Context) []models.TournamentSummary
	// Open - турниры с открытой регистрацией, ближайшие первыми. При ошибке хранилища пустой список.
	Open(ctx context.Context) []models.Tournament
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error)

	Create(ctx context.Context, input TournamentInput) (*models.Tournament, error)
	Update(ctx context.Context, id uuid.UUID, input TournamentInput) (*models.Tournament, error)
	RecordResult(ctx context.Context, tournamentID uuid.UUID, input ResultInput) (*models.TournamentResult, error)
	ListRegistrations(ctx context.Context, tournamentID uuid.UUID) ([]models.Registration, error)
}

type TournamentInput struct {
	Name                 string                  `json:"name"`
	Description          *string                 `json:"description"`
	Date                 time.Time               `json:"date"`
	RegistrationDeadline time.Time               `json:"registration_deadline"`
	Format               models.TournamentFormat `json:"format"`
	MaxParticipants      *int                    `json:"max_participants"`
	Location             *string                 `json:"location"`
	IsActive             *bool                   `json:"is_active"`
}

type ResultInput struct {
	ProfileID uuid.UUID `json:"profile_id"`
	Place     int       `json:"place"`
	Score     float64   `json:"score"`
}

type tournamentService struct {
	tournamentRepo   repositories.TournamentRepository
	resultRepo       repositories.ResultRepository
	registrationRepo repositories.RegistrationRepository
	logger           *slog.Logger
	now              func() time.Time
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	resultRepo repositories.ResultRepository,
	registrationRepo repositories.RegistrationRepository,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo:   tournamentRepo,
		resultRepo:       resultRepo,
		registrationRepo: registrationRepo,
		logger:           logger,
		now:              time.Now,
	}
}

func (s *tournamentService) Recent(ctx context.Context) []models.TournamentSummary {
	summaries, err := s.recent(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error fetching tournaments, falling back to demo data", slog.Any("error", err))
		return DemoTournaments(s.now())
	}
	return summaries
}

func (s *tournamentService) recent(ctx context.Context) ([]models.TournamentSummary, error) {
	tournaments, err := s.tournamentRepo.ListRecent(ctx, RecentTournamentsLimit)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(tournaments))
	for i, t := range tournaments {
		ids[i] = t.ID
	}
	results, err := s.resultRepo.ListByTournaments(ctx, ids)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.TournamentSummary, len(tournaments))
	for i, t := range tournaments {
		t.Results = results[t.ID]
		summaries[i] = models.TournamentSummary{
			Tournament:      t,
			TopParticipants: topParticipants(t.Results),
		}
	}
	return summaries, nil
}

func (s *tournamentService) Open(ctx context.Context) []models.Tournament {
	tournaments, err := s.tournamentRepo.ListOpen(ctx, s.now())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error fetching open tournaments", slog.Any("error", err))
		return []models.Tournament{}
	}
	return tournaments
}

func (s *tournamentService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}

	results, err := s.resultRepo.ListByTournaments(ctx, []uuid.UUID{id})
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to load tournament results", slog.String("tournament_id", id.String()), slog.Any("error", err))
	} else {
		t.Results = results[id]
	}
	return t, nil
}

func validateTournamentInput(input TournamentInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return ErrTournamentNameRequired
	}
	if input.Date.IsZero() || input.RegistrationDeadline.IsZero() {
		return fmt.Errorf("%w: date and registration_deadline are required", ErrValidationFailed)
	}
	if input.RegistrationDeadline.After(input.Date) {
		return ErrTournamentInvalidDates
	}
	if input.Format != "" && !input.Format.Valid() {
		return ErrTournamentInvalidFmt
	}
	if input.MaxParticipants != nil && *input.MaxParticipants <= 0 {
		return ErrTournamentInvalidCap
	}
	return nil
}

func applyTournamentInput(t *models.Tournament, input TournamentInput) {
	t.Name = strings.TrimSpace(input.Name)
	t.Description = input.Description
	t.Date = input.Date
	t.RegistrationDeadline = input.RegistrationDeadline
	t.Format = input.Format
	if t.Format == "" {
		t.Format = models.FormatOffline
	}
	t.MaxParticipants = input.MaxParticipants
	t.Location = input.Location
	if input.IsActive != nil {
		t.IsActive = *input.IsActive
	}
}

func (s *tournamentService) Create(ctx context.Context, input TournamentInput) (*models.Tournament, error) {
	if err := validateTournamentInput(input); err != nil {
		return nil, err
	}

	t := &models.Tournament{IsActive: true}
	applyTournamentInput(t, input)

	if err := s.tournamentRepo.Create(ctx, t); err != nil {
		if errors.Is(err, repositories.ErrTournamentInvalid) {
			return nil, ErrValidationFailed
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	s.logger.InfoContext(ctx, "tournament created", slog.String("tournament_id", t.ID.String()), slog.String("name", t.Name))
	return t, nil
}

func (s *tournamentService) Update(ctx context.Context, id uuid.UUID, input TournamentInput) (*models.Tournament, error) {
	if err := validateTournamentInput(input); err != nil {
		return nil, err
	}

	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament for update: %w", err)
	}

	applyTournamentInput(t, input)

	if err := s.tournamentRepo.Update(ctx, t); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTournamentNotFound):
			return nil, ErrTournamentNotFound
		case errors.Is(err, repositories.ErrTournamentInvalid):
			return nil, ErrValidationFailed
		}
		return nil, fmt.Errorf("failed to update tournament: %w", err)
	}
	return t, nil
}

func (s *tournamentService) RecordResult(ctx context.Context, tournamentID uuid.UUID, input ResultInput) (*models.TournamentResult, error) {
	if input.Place <= 0 {
		return nil, ErrInvalidPlace
	}
	if input.ProfileID == uuid.Nil {
		return nil, fmt.Errorf("%w: profile_id is required", ErrValidationFailed)
	}

	result := &models.TournamentResult{
		TournamentID: tournamentID,
		ProfileID:    input.ProfileID,
		Place:        input.Place,
		Score:        input.Score,
	}
	if err := s.resultRepo.Upsert(ctx, result); err != nil {
		switch {
		case errors.Is(err, repositories.ErrResultTournamentInvalid):
			return nil, ErrTournamentNotFound
		case errors.Is(err, repositories.ErrResultProfileInvalid):
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to record result: %w", err)
	}
	return result, nil
}

func (s *tournamentService) ListRegistrations(ctx context.Context, tournamentID uuid.UUID) ([]models.Registration, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}

	regs, err := s.registrationRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return regs, nil
}
