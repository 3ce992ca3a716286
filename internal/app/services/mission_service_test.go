package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aylin/missionhub/internal/app/cache"
	"github.com/aylin/missionhub/internal/app/models"
	"github.com/aylin/missionhub/internal/app/models/dto"
	"github.com/aylin/missionhub/internal/pkg/apperrors"
)

// listCountingStore counts list fetches to observe cache behavior
type listCountingStore struct {
	*fakeMissionStore
	listCalls atomic.Int32
}

func (s *listCountingStore) GetAll(ctx context.Context, category, search *string, page, pageSize int) ([]models.Mission, int64, error) {
	s.listCalls.Add(1)
	return s.fakeMissionStore.GetAll(ctx, category, search, page, pageSize)
}

func newTestMissionService(missions MissionStore, participations ParticipationStore, ttls CacheTTLs) (MissionService, *cache.QueryCache) {
	qc := cache.NewQueryCache(0, zerolog.Nop())
	return NewMissionService(missions, participations, qc, ttls), qc
}

func TestListMissionsServedFromCache(t *testing.T) {
	missions := &listCountingStore{fakeMissionStore: newFakeMissionStore(testMission(1, 2, 10))}
	svc, _ := newTestMissionService(missions, newFakeParticipationStore(), CacheTTLs{MissionList: 5 * time.Minute})

	first, err := svc.ListMissions(context.Background(), dto.MissionFilterRequest{})
	require.NoError(t, err)
	require.Len(t, first.Missions, 1)

	_, err = svc.ListMissions(context.Background(), dto.MissionFilterRequest{})
	require.NoError(t, err)
	assert.Equal(t, int32(1), missions.listCalls.Load())
}

func TestListMissionsDistinctFiltersAreDistinctEntries(t *testing.T) {
	missions := &listCountingStore{fakeMissionStore: newFakeMissionStore(testMission(1, 2, 10))}
	svc, _ := newTestMissionService(missions, newFakeParticipationStore(), CacheTTLs{MissionList: 5 * time.Minute})

	_, err := svc.ListMissions(context.Background(), dto.MissionFilterRequest{})
	require.NoError(t, err)

	category := "planting"
	_, err = svc.ListMissions(context.Background(), dto.MissionFilterRequest{Category: &category})
	require.NoError(t, err)
	assert.Equal(t, int32(2), missions.listCalls.Load())
}

func TestMissionDetailAlwaysFetchesFresh(t *testing.T) {
	counting := &listCountingStore{fakeMissionStore: newFakeMissionStore(testMission(1, 2, 10))}
	svc, _ := newTestMissionService(counting, newFakeParticipationStore(), CacheTTLs{MissionDetail: 0})

	detail, err := svc.GetMissionDetail(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, detail.CurrentParticipants)
	assert.False(t, detail.IsUserRegistered)

	// Counter moves underneath; a zero TTL detail read must see it
	require.NoError(t, counting.IncrementParticipants(context.Background(), 1))
	detail, err = svc.GetMissionDetail(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, detail.CurrentParticipants)
}

func TestMissionDetailCarriesViewerEnrollment(t *testing.T) {
	missions := newFakeMissionStore(testMission(1, 0, 10))
	participations := newFakeParticipationStore()
	p, err := participations.Insert(context.Background(), 7, 1)
	require.NoError(t, err)

	svc, _ := newTestMissionService(missions, participations, CacheTTLs{})

	detail, err := svc.GetMissionDetail(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.True(t, detail.IsUserRegistered)
	require.NotNil(t, detail.ParticipationID)
	assert.Equal(t, p.ID, *detail.ParticipationID)

	other, err := svc.GetMissionDetail(context.Background(), 1, 8)
	require.NoError(t, err)
	assert.False(t, other.IsUserRegistered)
}

func TestGetMissionDetailNotFound(t *testing.T) {
	svc, _ := newTestMissionService(newFakeMissionStore(), newFakeParticipationStore(), CacheTTLs{})

	_, err := svc.GetMissionDetail(context.Background(), 42, 0)
	assert.ErrorIs(t, err, apperrors.ErrMissionNotFound)
}

func TestCreateMissionInvalidatesLists(t *testing.T) {
	missions := &listCountingStore{fakeMissionStore: newFakeMissionStore()}
	svc, _ := newTestMissionService(missions, newFakeParticipationStore(), CacheTTLs{MissionList: 5 * time.Minute})

	_, err := svc.ListMissions(context.Background(), dto.MissionFilterRequest{})
	require.NoError(t, err)

	created, err := svc.CreateMission(context.Background(), 99, &dto.CreateMissionRequest{
		Title:           "Park planting",
		Description:     "Plant saplings in the city park",
		Category:        "planting",
		Location:        "Central Park",
		Date:            time.Now().Add(72 * time.Hour),
		DurationHours:   4,
		MaxParticipants: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, created.CurrentParticipants)

	// The stale list entry triggers a refetch that sees the new mission
	require.Eventually(t, func() bool {
		resp, err := svc.ListMissions(context.Background(), dto.MissionFilterRequest{})
		return err == nil && len(resp.Missions) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestCreateMissionRejectsUnknownCategory(t *testing.T) {
	svc, _ := newTestMissionService(newFakeMissionStore(), newFakeParticipationStore(), CacheTTLs{})

	_, err := svc.CreateMission(context.Background(), 99, &dto.CreateMissionRequest{Category: "bake-sale"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCategory)
}

func TestUpdateMissionRequiresOwnership(t *testing.T) {
	missions := newFakeMissionStore(testMission(1, 0, 10))
	svc, _ := newTestMissionService(missions, newFakeParticipationStore(), CacheTTLs{})

	title := "New title"
	_, err := svc.UpdateMission(context.Background(), 1, 7, &dto.UpdateMissionRequest{Title: &title})
	assert.ErrorIs(t, err, apperrors.ErrNotOwner)

	resp, err := svc.UpdateMission(context.Background(), 1, 99, &dto.UpdateMissionRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, resp.Title)
}

func TestUpdateMissionCannotShrinkBelowEnrollment(t *testing.T) {
	missions := newFakeMissionStore(testMission(1, 5, 10))
	svc, _ := newTestMissionService(missions, newFakeParticipationStore(), CacheTTLs{})

	smaller := 3
	_, err := svc.UpdateMission(context.Background(), 1, 99, &dto.UpdateMissionRequest{MaxParticipants: &smaller})
	assert.Error(t, err)
}

func TestDeleteMissionRequiresOwnership(t *testing.T) {
	missions := newFakeMissionStore(testMission(1, 0, 10))
	svc, _ := newTestMissionService(missions, newFakeParticipationStore(), CacheTTLs{})

	err := svc.DeleteMission(context.Background(), 1, 7)
	assert.ErrorIs(t, err, apperrors.ErrNotOwner)

	require.NoError(t, svc.DeleteMission(context.Background(), 1, 99))
	_, err = svc.GetMissionDetail(context.Background(), 1, 0)
	assert.ErrorIs(t, err, apperrors.ErrMissionNotFound)
}
