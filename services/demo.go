package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Dosada05/kmo-registration/models"
	"github.com/Dosada05/kmo-registration/repositories"
	"github.com/google/uuid"
)

const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "demo123456"
)

type demoTournament struct {
	name        string
	description string
	location    string
	format      models.TournamentFormat
	dateOffset  time.Duration
	deadline    time.Duration
	capacity    int
	results     []demoResult
}

type demoResult struct {
	firstName string
	lastName  string
	place     int
	score     float64
}

var demoTournamentData = []demoTournament{
	{
		name:        "Казанская математическая олимпиада 2024",
		description: "Открытая олимпиада для школьников 5-11 классов.",
		location:    "Казань, КФУ",
		format:      models.FormatOffline,
		dateOffset:  -30 * 24 * time.Hour,
		deadline:    -37 * 24 * time.Hour,
		capacity:    300,
		results: []demoResult{
			{"Анна", "Смирнова", 1, 98.5},
			{"Тимур", "Хабибуллин", 2, 95},
			{"Максим", "Петров", 3, 91},
		},
	},
	{
		name:        "Осенний онлайн-тур КМО",
		description: "Дистанционный отборочный тур.",
		format:      models.FormatOnline,
		dateOffset:  -60 * 24 * time.Hour,
		deadline:    -65 * 24 * time.Hour,
		results: []demoResult{
			{"Камила", "Гарипова", 1, 87},
			{"Иван", "Соколов", 2, 84.5},
			{"Дарья", "Лебедева", 3, 80},
		},
	},
	{
		name:        "Командная олимпиада «Математический бой»",
		description: "Турнир команд школ Республики Татарстан.",
		location:    "Казань, лицей №131",
		format:      models.FormatHybrid,
		dateOffset:  -90 * 24 * time.Hour,
		deadline:    -97 * 24 * time.Hour,
		capacity:    120,
		results: []demoResult{
			{"Артур", "Валиев", 1, 42},
			{"Полина", "Морозова", 2, 39},
			{"Егор", "Кузнецов", 3, 35},
		},
	},
	{
		name:        "Весенняя КМО 2025",
		description: "Основной тур олимпиады.",
		location:    "Казань, КФУ",
		format:      models.FormatOffline,
		dateOffset:  45 * 24 * time.Hour,
		deadline:    30 * 24 * time.Hour,
		capacity:    300,
	},
	{
		name:        "Онлайн-тренировка КМО",
		description: "Пробный тур для знакомства с форматом задач.",
		format:      models.FormatOnline,
		dateOffset:  14 * 24 * time.Hour,
		deadline:    10 * 24 * time.Hour,
	},
}

func (d demoTournament) build(now time.Time) models.Tournament {
	t := models.Tournament{
		Name:                 d.name,
		Date:                 now.Add(d.dateOffset).Truncate(time.Hour),
		RegistrationDeadline: now.Add(d.deadline).Truncate(time.Hour),
		Format:               d.format,
		IsActive:             true,
	}
	if d.description != "" {
		desc := d.description
		t.Description = &desc
	}
	if d.location != "" {
		loc := d.location
		t.Location = &loc
	}
	if d.capacity > 0 {
		capacity := d.capacity
		t.MaxParticipants = &capacity
	}
	return t
}

// DemoTournaments - данные главной страницы, когда база недоступна.
// Возвращает три последних турнира с результатами, как и Recent.
func DemoTournaments(now time.Time) []models.TournamentSummary {
	summaries := make([]models.TournamentSummary, 0, 3)
	for _, d := range demoTournamentData {
		if len(d.results) == 0 {
			continue
		}
		t := d.build(now)
		t.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(d.name))

		results := make([]models.TournamentResult, len(d.results))
		for i, r := range d.results {
			results[i] = models.TournamentResult{
				TournamentID: t.ID,
				Place:        r.place,
				Score:        r.score,
				FirstName:    r.firstName,
				LastName:     r.lastName,
			}
		}
		t.Results = results
		summaries = append(summaries, models.TournamentSummary{
			Tournament:      t,
			TopParticipants: topParticipants(results),
		})
		if len(summaries) == 3 {
			break
		}
	}
	return summaries
}

// SeedDemoData наполняет хранилище в памяти турнирами, участниками и результатами.
func SeedDemoData(ctx context.Context, store *repositories.MemoryStore, now time.Time) error {
	for i, d := range demoTournamentData {
		t := d.build(now)
		if err := store.Tournaments().Create(ctx, &t); err != nil {
			return fmt.Errorf("failed to seed tournament %q: %w", d.name, err)
		}

		for j, r := range d.results {
			user := &models.User{
				Email: fmt.Sprintf("participant%d.%d@example.com", i+1, j+1),
				Role:  models.RoleParticipant,
			}
			if err := store.Users().Create(ctx, user); err != nil {
				return fmt.Errorf("failed to seed user: %w", err)
			}
			class := 11 - j
			profile := &models.Profile{
				ID:          user.ID,
				LastName:    r.lastName,
				FirstName:   r.firstName,
				City:        "Казань",
				ClassNumber: &class,
				UpdatedAt:   now,
			}
			if err := store.Profiles().Upsert(ctx, profile); err != nil {
				return fmt.Errorf("failed to seed profile: %w", err)
			}
			result := &models.TournamentResult{
				TournamentID: t.ID,
				ProfileID:    user.ID,
				Place:        r.place,
				Score:        r.score,
			}
			if err := store.Results().Upsert(ctx, result); err != nil {
				return fmt.Errorf("failed to seed result: %w", err)
			}
		}
	}
	return nil
}
