package repositories

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/kmo-registration/models"
	"github.com/google/uuid"
)

func seedTournament(t *testing.T, store *MemoryStore, date time.Time, active bool) *models.Tournament {
	t.Helper()
	tournament := &models.Tournament{
		Name:                 "Турнир " + date.Format("2006-01-02"),
		Date:                 date,
		RegistrationDeadline: date.Add(-24 * time.Hour),
		Format:               models.FormatOffline,
		IsActive:             active,
	}
	if err := store.Tournaments().Create(context.Background(), tournament); err != nil {
		t.Fatalf("failed to create tournament: %v", err)
	}
	return tournament
}

func seedUser(t *testing.T, store *MemoryStore, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Role: models.RoleParticipant}
	if err := store.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func TestMemoryUsersUniqueEmail(t *testing.T) {
	store := NewMemoryStore()
	seedUser(t, store, "a@example.com")

	err := store.Users().Create(context.Background(), &models.User{Email: "a@example.com"})
	if !errors.Is(err, ErrUserEmailConflict) {
		t.Errorf("expected ErrUserEmailConflict, got %v", err)
	}
	if _, err := store.Users().GetByEmail(context.Background(), "missing@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestMemoryTournamentLists(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()

	past := seedTournament(t, store, now.Add(-10*24*time.Hour), true)
	soon := seedTournament(t, store, now.Add(5*24*time.Hour), true)
	later := seedTournament(t, store, now.Add(20*24*time.Hour), true)
	seedTournament(t, store, now.Add(30*24*time.Hour), false)

	recent, err := store.Tournaments().ListRecent(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != later.ID || recent[1].ID != soon.ID {
		t.Errorf("unexpected recent order: %+v", recent)
	}

	open, err := store.Tournaments().ListOpen(context.Background(), now)
	if err != nil {
		t.Fatalf("ListOpen failed: %v", err)
	}
	if len(open) != 2 || open[0].ID != soon.ID || open[1].ID != later.ID {
		t.Errorf("unexpected open list: %+v", open)
	}
	for _, o := range open {
		if o.ID == past.ID {
			t.Error("past tournament must not be open")
		}
	}
}

func TestMemoryRegistrationCapacity(t *testing.T) {
	store := NewMemoryStore()
	tournament := seedTournament(t, store, time.Now().Add(48*time.Hour), true)
	capacity := 3

	const attempts = 10
	users := make([]*models.User, attempts)
	for i := range users {
		users[i] = seedUser(t, store, uuid.NewString()+"@example.com")
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		full     int
	)
	for _, u := range users {
		wg.Add(1)
		go func(userID uuid.UUID) {
			defer wg.Done()
			err := store.Registrations().Create(context.Background(), &models.Registration{UserID: userID, TournamentID: tournament.ID}, &capacity)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, ErrRegistrationCapacityReached):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(u.ID)
	}
	wg.Wait()

	if accepted != capacity || full != attempts-capacity {
		t.Errorf("expected %d accepted and %d rejected, got %d and %d", capacity, attempts-capacity, accepted, full)
	}
	count, _ := store.Registrations().CountByTournament(context.Background(), tournament.ID)
	if count != capacity {
		t.Errorf("expected count %d, got %d", capacity, count)
	}
}

func TestMemoryRegistrationConstraints(t *testing.T) {
	store := NewMemoryStore()
	tournament := seedTournament(t, store, time.Now().Add(48*time.Hour), true)
	user := seedUser(t, store, "b@example.com")
	ctx := context.Background()

	if err := store.Registrations().Create(ctx, &models.Registration{UserID: user.ID, TournamentID: tournament.ID}, nil); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Registrations().Create(ctx, &models.Registration{UserID: user.ID, TournamentID: tournament.ID}, nil); !errors.Is(err, ErrRegistrationConflict) {
		t.Errorf("expected ErrRegistrationConflict, got %v", err)
	}
	if err := store.Registrations().Create(ctx, &models.Registration{UserID: uuid.New(), TournamentID: tournament.ID}, nil); !errors.Is(err, ErrRegistrationUserInvalid) {
		t.Errorf("expected ErrRegistrationUserInvalid, got %v", err)
	}
	if err := store.Registrations().Create(ctx, &models.Registration{UserID: user.ID, TournamentID: uuid.New()}, nil); !errors.Is(err, ErrRegistrationTournamentInvalid) {
		t.Errorf("expected ErrRegistrationTournamentInvalid, got %v", err)
	}

	regs, err := store.Registrations().ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(regs) != 1 || regs[0].Tournament == nil || regs[0].Tournament.ID != tournament.ID {
		t.Errorf("unexpected registrations: %+v", regs)
	}
}

func TestMemoryResultsSortedByPlace(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	tournament := seedTournament(t, store, time.Now().Add(-48*time.Hour), true)

	for place := 3; place >= 1; place-- {
		u := seedUser(t, store, uuid.NewString()+"@example.com")
		if err := store.Profiles().Upsert(ctx, &models.Profile{ID: u.ID, FirstName: "Имя", LastName: "Фамилия"}); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
		if err := store.Results().Upsert(ctx, &models.TournamentResult{TournamentID: tournament.ID, ProfileID: u.ID, Place: place}); err != nil {
			t.Fatalf("Upsert result failed: %v", err)
		}
	}

	grouped, err := store.Results().ListByTournaments(ctx, []uuid.UUID{tournament.ID})
	if err != nil {
		t.Fatalf("ListByTournaments failed: %v", err)
	}
	results := grouped[tournament.ID]
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Place != i+1 || r.FirstName != "Имя" {
			t.Errorf("unexpected result at %d: %+v", i, r)
		}
	}

	if err := store.Results().Upsert(ctx, &models.TournamentResult{TournamentID: tournament.ID, ProfileID: uuid.New(), Place: 1}); !errors.Is(err, ErrResultProfileInvalid) {
		t.Errorf("expected ErrResultProfileInvalid, got %v", err)
	}
}
