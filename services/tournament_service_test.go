package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/kmo-registration/models"
	"github.com/Dosada05/kmo-registration/repositories"
	"github.com/google/uuid"
)

type failingTournamentRepo struct {
	repositories.TournamentRepository
}

func (failingTournamentRepo) ListRecent(context.Context, int) ([]models.Tournament, error) {
	return nil, errors.New("connection refused")
}

func (failingTournamentRepo) ListOpen(context.Context, time.Time) ([]models.Tournament, error) {
	return nil, errors.New("connection refused")
}

func newTestTournamentService(store *repositories.MemoryStore) TournamentService {
	return NewTournamentService(store.Tournaments(), store.Results(), store.Registrations(), discardLogger())
}

func TestRecentFromSeededStore(t *testing.T) {
	store := repositories.NewMemoryStore()
	if err := SeedDemoData(context.Background(), store, time.Now()); err != nil {
		t.Fatalf("SeedDemoData failed: %v", err)
	}

	summaries := newTestTournamentService(store).Recent(context.Background())
	if len(summaries) != RecentTournamentsLimit {
		t.Fatalf("expected %d tournaments, got %d", RecentTournamentsLimit, len(summaries))
	}

	for i := 1; i < len(summaries); i++ {
		if summaries[i].Date.After(summaries[i-1].Date) {
			t.Errorf("tournaments not sorted by date desc at %d", i)
		}
	}

	// Две ближайшие будущие олимпиады без результатов идут первыми.
	if len(summaries[0].TopParticipants) != 0 {
		t.Errorf("expected no results for upcoming tournament, got %v", summaries[0].TopParticipants)
	}

	last := summaries[2]
	if len(last.TopParticipants) != 3 {
		t.Fatalf("expected 3 top participants, got %d", len(last.TopParticipants))
	}
	for i, p := range last.TopParticipants {
		if p.Place != i+1 {
			t.Errorf("expected place %d, got %d", i+1, p.Place)
		}
	}
	if last.TopParticipants[0].Name != "Анна Смирнова" {
		t.Errorf("expected 'Анна Смирнова', got %q", last.TopParticipants[0].Name)
	}
}

func TestRecentFallsBackToDemoData(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewTournamentService(failingTournamentRepo{store.Tournaments()}, store.Results(), store.Registrations(), discardLogger())

	summaries := svc.Recent(context.Background())
	if len(summaries) != 3 {
		t.Fatalf("expected 3 demo tournaments, got %d", len(summaries))
	}
	for _, s := range summaries {
		if len(s.TopParticipants) != 3 {
			t.Errorf("demo tournament %q: expected 3 top participants", s.Name)
		}
	}
}

func TestOpen(t *testing.T) {
	store := repositories.NewMemoryStore()
	if err := SeedDemoData(context.Background(), store, time.Now()); err != nil {
		t.Fatalf("SeedDemoData failed: %v", err)
	}

	open := newTestTournamentService(store).Open(context.Background())
	if len(open) != 2 {
		t.Fatalf("expected 2 open tournaments, got %d", len(open))
	}
	if open[0].Date.After(open[1].Date) {
		t.Error("open tournaments must be sorted by date asc")
	}

	t.Run("repository error yields empty list", func(t *testing.T) {
		svc := NewTournamentService(failingTournamentRepo{store.Tournaments()}, store.Results(), store.Registrations(), discardLogger())
		got := svc.Open(context.Background())
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil list, got %v", got)
		}
	})
}

func TestTournamentAdminOperations(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := newTestTournamentService(store)
	ctx := context.Background()

	date := time.Now().Add(20 * 24 * time.Hour)
	input := TournamentInput{
		Name:                 "  Летняя школа КМО  ",
		Date:                 date,
		RegistrationDeadline: date.Add(-5 * 24 * time.Hour),
	}

	created, err := svc.Create(ctx, input)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Name != "Летняя школа КМО" || created.Format != models.FormatOffline || !created.IsActive {
		t.Errorf("unexpected tournament: %+v", created)
	}

	t.Run("validation", func(t *testing.T) {
		bad := input
		bad.Name = " "
		if _, err := svc.Create(ctx, bad); !errors.Is(err, ErrTournamentNameRequired) {
			t.Errorf("expected ErrTournamentNameRequired, got %v", err)
		}

		bad = input
		bad.RegistrationDeadline = date.Add(time.Hour)
		if _, err := svc.Create(ctx, bad); !errors.Is(err, ErrTournamentInvalidDates) {
			t.Errorf("expected ErrTournamentInvalidDates, got %v", err)
		}

		bad = input
		bad.Format = "remote"
		if _, err := svc.Create(ctx, bad); !errors.Is(err, ErrTournamentInvalidFmt) {
			t.Errorf("expected ErrTournamentInvalidFmt, got %v", err)
		}

		bad = input
		zero := 0
		bad.MaxParticipants = &zero
		if _, err := svc.Create(ctx, bad); !errors.Is(err, ErrTournamentInvalidCap) {
			t.Errorf("expected ErrTournamentInvalidCap, got %v", err)
		}
	})

	t.Run("update", func(t *testing.T) {
		inactive := false
		upd := input
		upd.Format = models.FormatOnline
		upd.IsActive = &inactive

		updated, err := svc.Update(ctx, created.ID, upd)
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if updated.Format != models.FormatOnline || updated.IsActive {
			t.Errorf("unexpected tournament after update: %+v", updated)
		}

		if _, err := svc.Update(ctx, uuid.New(), input); !errors.Is(err, ErrTournamentNotFound) {
			t.Errorf("expected ErrTournamentNotFound, got %v", err)
		}
	})

	t.Run("record result", func(t *testing.T) {
		user := &models.User{Email: "winner@example.com", Role: models.RoleParticipant}
		if err := store.Users().Create(ctx, user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}
		if err := store.Profiles().Upsert(ctx, &models.Profile{ID: user.ID, FirstName: "Анна", LastName: "Смирнова"}); err != nil {
			t.Fatalf("failed to create profile: %v", err)
		}

		if _, err := svc.RecordResult(ctx, created.ID, ResultInput{ProfileID: user.ID, Place: 0}); !errors.Is(err, ErrInvalidPlace) {
			t.Errorf("expected ErrInvalidPlace, got %v", err)
		}
		if _, err := svc.RecordResult(ctx, created.ID, ResultInput{ProfileID: uuid.New(), Place: 1}); !errors.Is(err, ErrProfileNotFound) {
			t.Errorf("expected ErrProfileNotFound, got %v", err)
		}

		if _, err := svc.RecordResult(ctx, created.ID, ResultInput{ProfileID: user.ID, Place: 2, Score: 80}); err != nil {
			t.Fatalf("RecordResult failed: %v", err)
		}
		// Повторная запись обновляет место.
		if _, err := svc.RecordResult(ctx, created.ID, ResultInput{ProfileID: user.ID, Place: 1, Score: 95}); err != nil {
			t.Fatalf("RecordResult failed: %v", err)
		}

		got, err := svc.GetByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if len(got.Results) != 1 || got.Results[0].Place != 1 || got.Results[0].FirstName != "Анна" {
			t.Errorf("unexpected results: %+v", got.Results)
		}
	})

	t.Run("list registrations of unknown tournament", func(t *testing.T) {
		if _, err := svc.ListRegistrations(ctx, uuid.New()); !errors.Is(err, ErrTournamentNotFound) {
			t.Errorf("expected ErrTournamentNotFound, got %v", err)
		}
	})
}
