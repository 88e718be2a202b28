package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/kmo-registration/models"
	"github.com/google/uuid"
)

// MemoryStore - хранилище в памяти для демо-режима (без DATABASE_URL) и тестов.
// Реализует те же ограничения уникальности, что и схема PostgreSQL.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[uuid.UUID]models.User
	profiles      map[uuid.UUID]models.Profile
	tournaments   map[uuid.UUID]models.Tournament
	registrations []models.Registration
	results       []models.TournamentResult
	now           func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[uuid.UUID]models.User),
		profiles:    make(map[uuid.UUID]models.Profile),
		tournaments: make(map[uuid.UUID]models.Tournament),
		now:         time.Now,
	}
}

func (s *MemoryStore) Users() UserRepository                 { return &memoryUserRepository{s} }
func (s *MemoryStore) Profiles() ProfileRepository           { return &memoryProfileRepository{s} }
func (s *MemoryStore) Tournaments() TournamentRepository     { return &memoryTournamentRepository{s} }
func (s *MemoryStore) Registrations() RegistrationRepository { return &memoryRegistrationRepository{s} }
func (s *MemoryStore) Results() ResultRepository             { return &memoryResultRepository{s} }

type memoryUserRepository struct{ s *MemoryStore }

func (r *memoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return ErrUserEmailConflict
		}
		if user.YandexID != nil && u.YandexID != nil && *u.YandexID == *user.YandexID {
			return ErrUserYandexConflict
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = r.s.now()
	r.s.users[user.ID] = *user
	return nil
}

func (r *memoryUserRepository) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (r *memoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r *memoryUserRepository) GetByYandexID(_ context.Context, yandexID string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.YandexID != nil && *u.YandexID == yandexID })
}

func (r *memoryUserRepository) find(match func(models.User) bool) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memoryUserRepository) Update(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; !ok {
		return ErrUserNotFound
	}
	for id, u := range r.s.users {
		if id != user.ID && u.Email == user.Email {
			return ErrUserEmailConflict
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

type memoryProfileRepository struct{ s *MemoryStore }

func (r *memoryProfileRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return &p, nil
}

func (r *memoryProfileRepository) Upsert(_ context.Context, p *models.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if existing, ok := r.s.profiles[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
		p.AvatarKey = existing.AvatarKey
	} else {
		p.CreatedAt = r.s.now()
	}
	r.s.profiles[p.ID] = *p
	return nil
}

func (r *memoryProfileRepository) UpdateAvatarKey(_ context.Context, id uuid.UUID, avatarKey *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.profiles[id]
	if !ok {
		return ErrProfileNotFound
	}
	p.AvatarKey = avatarKey
	p.UpdatedAt = r.s.now()
	r.s.profiles[id] = p
	return nil
}

type memoryTournamentRepository struct{ s *MemoryStore }

func (r *memoryTournamentRepository) Create(_ context.Context, t *models.Tournament) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = r.s.now()
	}
	stored := *t
	stored.Results = nil
	r.s.tournaments[t.ID] = stored
	return nil
}

func (r *memoryTournamentRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Tournament, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tournaments[id]
	if !ok {
		return nil, ErrTournamentNotFound
	}
	return &t, nil
}

func (r *memoryTournamentRepository) Update(_ context.Context, t *models.Tournament) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.tournaments[t.ID]
	if !ok {
		return ErrTournamentNotFound
	}
	t.CreatedAt = existing.CreatedAt
	stored := *t
	stored.Results = nil
	r.s.tournaments[t.ID] = stored
	return nil
}

func (r *memoryTournamentRepository) ListRecent(_ context.Context, limit int) ([]models.Tournament, error) {
	list := r.filter(func(t models.Tournament) bool { return t.IsActive })
	sort.SliceStable(list, func(i, j int) bool { return list[i].Date.After(list[j].Date) })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *memoryTournamentRepository) ListOpen(_ context.Context, now time.Time) ([]models.Tournament, error) {
	list := r.filter(func(t models.Tournament) bool { return t.RegistrationOpen(now) })
	sort.SliceStable(list, func(i, j int) bool { return list[i].Date.Before(list[j].Date) })
	return list, nil
}

func (r *memoryTournamentRepository) filter(keep func(models.Tournament) bool) []models.Tournament {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]models.Tournament, 0, len(r.s.tournaments))
	for _, t := range r.s.tournaments {
		if keep(t) {
			list = append(list, t)
		}
	}
	return list
}

type memoryRegistrationRepository struct{ s *MemoryStore }

func (r *memoryRegistrationRepository) Create(_ context.Context, reg *models.Registration, maxParticipants *int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[reg.UserID]; !ok {
		return ErrRegistrationUserInvalid
	}
	if _, ok := r.s.tournaments[reg.TournamentID]; !ok {
		return ErrRegistrationTournamentInvalid
	}

	count := 0
	for _, existing := range r.s.registrations {
		if existing.TournamentID != reg.TournamentID {
			continue
		}
		if existing.UserID == reg.UserID {
			return ErrRegistrationConflict
		}
		count++
	}
	if maxParticipants != nil && count >= *maxParticipants {
		return ErrRegistrationCapacityReached
	}

	if reg.ID == uuid.Nil {
		reg.ID = uuid.New()
	}
	reg.CreatedAt = r.s.now()
	r.s.registrations = append(r.s.registrations, models.Registration{
		ID:           reg.ID,
		UserID:       reg.UserID,
		TournamentID: reg.TournamentID,
		CreatedAt:    reg.CreatedAt,
	})
	return nil
}

func (r *memoryRegistrationRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Registration, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]models.Registration, 0)
	for _, reg := range r.s.registrations {
		if reg.UserID != userID {
			continue
		}
		if t, ok := r.s.tournaments[reg.TournamentID]; ok {
			reg.Tournament = &t
		}
		list = append(list, reg)
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Tournament == nil || list[j].Tournament == nil {
			return false
		}
		return list[i].Tournament.Date.Before(list[j].Tournament.Date)
	})
	return list, nil
}

func (r *memoryRegistrationRepository) ListByTournament(_ context.Context, tournamentID uuid.UUID) ([]models.Registration, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]models.Registration, 0)
	for _, reg := range r.s.registrations {
		if reg.TournamentID != tournamentID {
			continue
		}
		p, ok := r.s.profiles[reg.UserID]
		if !ok {
			p = models.Profile{ID: reg.UserID}
		}
		reg.Profile = &p
		list = append(list, reg)
	}
	return list, nil
}

func (r *memoryRegistrationRepository) CountByTournament(_ context.Context, tournamentID uuid.UUID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	count := 0
	for _, reg := range r.s.registrations {
		if reg.TournamentID == tournamentID {
			count++
		}
	}
	return count, nil
}

type memoryResultRepository struct{ s *MemoryStore }

func (r *memoryResultRepository) Upsert(_ context.Context, res *models.TournamentResult) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tournaments[res.TournamentID]; !ok {
		return ErrResultTournamentInvalid
	}
	if _, ok := r.s.profiles[res.ProfileID]; !ok {
		return ErrResultProfileInvalid
	}

	for i, existing := range r.s.results {
		if existing.TournamentID == res.TournamentID && existing.ProfileID == res.ProfileID {
			res.ID = existing.ID
			r.s.results[i].Place = res.Place
			r.s.results[i].Score = res.Score
			return nil
		}
	}

	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	r.s.results = append(r.s.results, models.TournamentResult{
		ID:           res.ID,
		TournamentID: res.TournamentID,
		ProfileID:    res.ProfileID,
		Place:        res.Place,
		Score:        res.Score,
	})
	return nil
}

func (r *memoryResultRepository) ListByTournaments(_ context.Context, tournamentIDs []uuid.UUID) (map[uuid.UUID][]models.TournamentResult, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	wanted := make(map[uuid.UUID]bool, len(tournamentIDs))
	for _, id := range tournamentIDs {
		wanted[id] = true
	}

	grouped := make(map[uuid.UUID][]models.TournamentResult, len(tournamentIDs))
	for _, res := range r.s.results {
		if !wanted[res.TournamentID] {
			continue
		}
		if p, ok := r.s.profiles[res.ProfileID]; ok {
			res.FirstName = p.FirstName
			res.LastName = p.LastName
		}
		grouped[res.TournamentID] = append(grouped[res.TournamentID], res)
	}
	for id := range grouped {
		list := grouped[id]
		sort.SliceStable(list, func(i, j int) bool { return list[i].Place < list[j].Place })
	}
	return grouped, nil
}
