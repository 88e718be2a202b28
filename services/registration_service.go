package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/kmo-registration/metrics"
	"github.com/Dosada05/kmo-registration/models"
	"github.com/Dosada05/kmo-registration/repositories"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RegistrationNotifier получает событие о новой регистрации.
// Ошибки уведомлений логируются и не отменяют регистрацию.
type RegistrationNotifier interface {
	Channel() string
	NotifyRegistration(ctx context.Context, event models.RegistrationEvent) error
}

type RegistrationService interface {
	Register(ctx context.Context, userID, tournamentID uuid.UUID) (*models.Registration, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Registration, error)
}

type registrationService struct {
	registrationRepo repositories.RegistrationRepository
	tournamentRepo   repositories.TournamentRepository
	profileRepo      repositories.ProfileRepository
	notifiers        []RegistrationNotifier
	logger           *slog.Logger
	now              func() time.Time
}

func NewRegistrationService(
	registrationRepo repositories.RegistrationRepository,
	tournamentRepo repositories.TournamentRepository,
	profileRepo repositories.ProfileRepository,
	logger *slog.Logger,
	notifiers ...RegistrationNotifier,
) RegistrationService {
	return &registrationService{
		registrationRepo: registrationRepo,
		tournamentRepo:   tournamentRepo,
		profileRepo:      profileRepo,
		notifiers:        notifiers,
		logger:           logger,
		now:              time.Now,
	}
}

func (s *registrationService) Register(ctx context.Context, userID, tournamentID uuid.UUID) (*models.Registration, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	if !tournament.RegistrationOpen(s.now()) {
		return nil, ErrRegistrationNotOpen
	}

	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrProfileIncomplete
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if missing := profile.MissingFields(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %v", ErrProfileIncomplete, missing)
	}

	reg := &models.Registration{
		UserID:       userID,
		TournamentID: tournamentID,
	}
	if err := s.registrationRepo.Create(ctx, reg, tournament.MaxParticipants); err != nil {
		switch {
		case errors.Is(err, repositories.ErrRegistrationConflict):
			return nil, ErrRegistrationConflict
		case errors.Is(err, repositories.ErrRegistrationCapacityReached):
			return nil, ErrTournamentFull
		case errors.Is(err, repositories.ErrRegistrationTournamentInvalid):
			return nil, ErrTournamentNotFound
		case errors.Is(err, repositories.ErrRegistrationUserInvalid):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	metrics.Registrations.Inc()
	s.logger.InfoContext(ctx, "tournament registration created",
		slog.String("registration_id", reg.ID.String()),
		slog.String("user_id", userID.String()),
		slog.String("tournament_id", tournamentID.String()),
	)

	count, err := s.registrationRepo.CountByTournament(ctx, tournamentID)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to count registrations", slog.String("tournament_id", tournamentID.String()), slog.Any("error", err))
	}

	s.notify(ctx, models.RegistrationEvent{
		Registration:     *reg,
		Profile:          *profile,
		Tournament:       *tournament,
		ParticipantCount: count,
	})

	reg.Tournament = tournament
	return reg, nil
}

// notify рассылает событие всем каналам параллельно и дожидается их завершения.
func (s *registrationService) notify(ctx context.Context, event models.RegistrationEvent) {
	var g errgroup.Group
	for _, n := range s.notifiers {
		g.Go(func() error {
			if err := n.NotifyRegistration(ctx, event); err != nil {
				metrics.NotificationFailures.WithLabelValues(n.Channel()).Inc()
				s.logger.WarnContext(ctx, "Registration notification failed",
					slog.String("channel", n.Channel()),
					slog.String("registration_id", event.Registration.ID.String()),
					slog.Any("error", err),
				)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (s *registrationService) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Registration, error) {
	regs, err := s.registrationRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return regs, nil
}

// WebhookNotifier пересылает регистрацию в n8n через WebhookRelay.
type WebhookNotifier struct {
	relay *WebhookRelay
	now   func() time.Time
}

func NewWebhookNotifier(relay *WebhookRelay) *WebhookNotifier {
	return &WebhookNotifier{relay: relay, now: time.Now}
}

func (n *WebhookNotifier) Channel() string { return "webhook" }

func (n *WebhookNotifier) NotifyRegistration(ctx context.Context, event models.RegistrationEvent) error {
	return n.relay.Relay(ctx, RegistrationWebhookPayload(event, n.now()))
}

// RegistrationWebhookPayload собирает тело вебхука из анкеты и регистрации.
func RegistrationWebhookPayload(event models.RegistrationEvent, now time.Time) map[string]any {
	class := 0
	if event.Profile.ClassNumber != nil {
		class = *event.Profile.ClassNumber
	}
	return map[string]any{
		"user_id":           event.Registration.UserID.String(),
		"full_name":         event.Profile.FullName(),
		"school":            event.Profile.School,
		"class":             class,
		"tournament_id":     event.Registration.TournamentID.String(),
		"registration_date": now.UTC().Format(timestampLayout),
	}
}
