package services

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aylin/missionhub/internal/app/models"
	"github.com/aylin/missionhub/internal/app/repositories"
	"github.com/aylin/missionhub/internal/pkg/apperrors"
)

// fakeMissionStore mirrors the conditional counter semantics of the real
// repository in memory.
type fakeMissionStore struct {
	mu       sync.Mutex
	missions map[int64]*models.Mission

	incrementErr  error
	decrementErr  error
	incrementGate chan struct{} // when set, IncrementParticipants blocks until closed
}

func newFakeMissionStore(missions ...*models.Mission) *fakeMissionStore {
	s := &fakeMissionStore{missions: make(map[int64]*models.Mission)}
	for _, m := range missions {
		s.missions[m.ID] = m
	}
	return s
}

func (s *fakeMissionStore) get(id int64) models.Mission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.missions[id]
}

func (s *fakeMissionStore) GetAll(ctx context.Context, category, search *string, page, pageSize int) ([]models.Mission, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Mission
	for _, m := range s.missions {
		if category != nil && string(m.Category) != *category {
			continue
		}
		out = append(out, *m)
	}
	return out, int64(len(out)), nil
}

func (s *fakeMissionStore) GetByID(ctx context.Context, id int64) (*models.Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.missions[id]
	if !ok {
		return nil, apperrors.ErrMissionNotFound
	}
	copied := *m
	return &copied, nil
}

func (s *fakeMissionStore) Create(ctx context.Context, mission *models.Mission) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := int64(len(s.missions) + 1)
	mission.ID = id
	copied := *mission
	s.missions[id] = &copied
	return id, nil
}

func (s *fakeMissionStore) Update(ctx context.Context, id int64, update *repositories.MissionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.missions[id]
	if !ok {
		return apperrors.ErrMissionNotFound
	}
	if update.Title != nil {
		m.Title = *update.Title
	}
	if update.MaxParticipants != nil {
		m.MaxParticipants = *update.MaxParticipants
	}
	return nil
}

func (s *fakeMissionStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.missions[id]; !ok {
		return apperrors.ErrMissionNotFound
	}
	delete(s.missions, id)
	return nil
}

func (s *fakeMissionStore) IncrementParticipants(ctx context.Context, missionID int64) error {
	if s.incrementGate != nil {
		<-s.incrementGate
	}
	if s.incrementErr != nil {
		return s.incrementErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.missions[missionID]
	if !ok {
		return apperrors.ErrMissionNotFound
	}
	if m.CurrentParticipants >= m.MaxParticipants {
		return apperrors.ErrMissionFull
	}
	m.CurrentParticipants++
	return nil
}

func (s *fakeMissionStore) DecrementParticipants(ctx context.Context, missionID int64) error {
	if s.decrementErr != nil {
		return s.decrementErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.missions[missionID]
	if !ok {
		return apperrors.ErrMissionNotFound
	}
	if m.CurrentParticipants > 0 {
		m.CurrentParticipants--
	}
	return nil
}

// fakeParticipationStore enforces the one-row-per-pair invariant the way the
// unique constraint does, surfacing a 23505 error on duplicate insert.
type fakeParticipationStore struct {
	mu     sync.Mutex
	rows   map[int64]*models.Participation
	nextID int64

	insertErr error
	findErr   error
}

func newFakeParticipationStore() *fakeParticipationStore {
	return &fakeParticipationStore{rows: make(map[int64]*models.Participation), nextID: 1}
}

func (s *fakeParticipationStore) rowCount(userID, missionID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.rows {
		if p.UserID == userID && p.MissionID == missionID {
			n++
		}
	}
	return n
}

func (s *fakeParticipationStore) GetByID(ctx context.Context, id int64) (*models.Participation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[id]
	if !ok {
		return nil, apperrors.ErrParticipationNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *fakeParticipationStore) FindByUserAndMission(ctx context.Context, userID, missionID int64) (*models.Participation, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.rows {
		if p.UserID == userID && p.MissionID == missionID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeParticipationStore) Insert(ctx context.Context, userID, missionID int64) (*models.Participation, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.rows {
		if p.UserID == userID && p.MissionID == missionID {
			return nil, &pgconn.PgError{Code: "23505", ConstraintName: "participations_user_id_mission_id_key"}
		}
	}
	p := &models.Participation{
		ID:         s.nextID,
		UserID:     userID,
		MissionID:  missionID,
		Status:     models.StatusEnrolled,
		EnrolledAt: time.Now(),
	}
	s.nextID++
	s.rows[p.ID] = p
	copied := *p
	return &copied, nil
}

func (s *fakeParticipationStore) UpdateStatus(ctx context.Context, id int64, status models.ParticipationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[id]
	if !ok {
		return apperrors.ErrParticipationNotFound
	}
	p.Status = status
	return nil
}

func (s *fakeParticipationStore) Reactivate(ctx context.Context, id int64) (*models.Participation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[id]
	if !ok {
		return nil, apperrors.ErrParticipationNotFound
	}
	p.Status = models.StatusEnrolled
	p.EnrolledAt = time.Now()
	copied := *p
	return &copied, nil
}

func (s *fakeParticipationStore) ListByUser(ctx context.Context, userID int64, status *models.ParticipationStatus) ([]models.ParticipationWithMission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ParticipationWithMission
	for _, p := range s.rows {
		if p.UserID != userID {
			continue
		}
		if status != nil && p.Status != *status {
			continue
		}
		out = append(out, models.ParticipationWithMission{Participation: *p})
	}
	return out, nil
}

func (s *fakeParticipationStore) GetSchedule(ctx context.Context, userID int64) ([]models.ScheduleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ScheduleEntry
	for _, p := range s.rows {
		if p.UserID == userID && p.Status != models.StatusCancelled {
			out = append(out, models.ScheduleEntry{Status: p.Status})
		}
	}
	return out, nil
}

type fakeUserStore struct {
	mu     sync.Mutex
	users  map[int64]*models.User
	nextID int64
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[int64]*models.User), nextID: 1}
	for _, u := range users {
		s.users[u.ID] = u
		if u.ID >= s.nextID {
			s.nextID = u.ID + 1
		}
	}
	return s
}

func (s *fakeUserStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *fakeUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (s *fakeUserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeUserStore) Create(ctx context.Context, user *models.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	user.ID = id
	copied := *user
	s.users[id] = &copied
	return id, nil
}

func (s *fakeUserStore) UpdateProfile(ctx context.Context, id int64, fullName, bio, avatarURL *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	if fullName != nil {
		u.FullName = *fullName
	}
	if bio != nil {
		u.Bio = bio
	}
	if avatarURL != nil {
		u.AvatarURL = avatarURL
	}
	return nil
}

type fakeTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[string]*models.RefreshToken)}
}

func (s *fakeTokenStore) Create(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = &models.RefreshToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	return nil
}

func (s *fakeTokenStore) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok {
		return nil, apperrors.ErrTokenNotFound
	}
	copied := *t
	return &copied, nil
}

func (s *fakeTokenStore) Revoke(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok {
		return apperrors.ErrTokenNotFound
	}
	t.Revoked = true
	return nil
}

func (s *fakeTokenStore) RevokeAllForUser(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}
