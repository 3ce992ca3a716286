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
)

func TestComputeStatsPartitionsByDate(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	entries := []models.ScheduleEntry{
		{Status: models.StatusCompleted, Date: now.Add(-72 * time.Hour), DurationHours: 2},
		{Status: models.StatusEnrolled, Date: now.Add(48 * time.Hour), DurationHours: 5},
	}

	stats := ComputeStats(entries, now)
	assert.Equal(t, 2, stats.EnrolledMissionsCount)
	assert.Equal(t, 1, stats.UpcomingMissionsCount)
	assert.Equal(t, 1, stats.TotalMissionsDone)
	assert.Equal(t, 2, stats.TotalHoursVolunteered)
}

func TestComputeStatsPastEnrollmentCountsAsDone(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	entries := []models.ScheduleEntry{
		// Never explicitly completed, but the mission date has passed
		{Status: models.StatusEnrolled, Date: now.Add(-24 * time.Hour), DurationHours: 4},
	}

	stats := ComputeStats(entries, now)
	assert.Equal(t, 1, stats.TotalMissionsDone)
	assert.Equal(t, 0, stats.UpcomingMissionsCount)
	assert.Equal(t, 4, stats.TotalHoursVolunteered)
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil, time.Now())
	assert.Equal(t, models.UserStats{}, stats)
}

// scheduleCountingStore counts schedule fetches to observe cache hits
type scheduleCountingStore struct {
	*fakeParticipationStore
	calls atomic.Int32
}

func (s *scheduleCountingStore) GetSchedule(ctx context.Context, userID int64) ([]models.ScheduleEntry, error) {
	s.calls.Add(1)
	return s.fakeParticipationStore.GetSchedule(ctx, userID)
}

func TestGetStatsServedFromCacheUntilInvalidated(t *testing.T) {
	users := newFakeUserStore(&models.User{ID: 7, Email: "a@b.co", FullName: "Aylin"})
	participations := &scheduleCountingStore{fakeParticipationStore: newFakeParticipationStore()}
	qc := cache.NewQueryCache(0, zerolog.Nop())
	svc := NewUserService(users, participations, qc, CacheTTLs{UserStats: 5 * time.Minute})

	_, err := svc.GetStats(context.Background(), 7)
	require.NoError(t, err)
	_, err = svc.GetStats(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int32(1), participations.calls.Load())
}

func TestUpdateProfile(t *testing.T) {
	users := newFakeUserStore(&models.User{ID: 7, Email: "a@b.co", FullName: "Aylin"})
	participations := newFakeParticipationStore()
	qc := cache.NewQueryCache(0, zerolog.Nop())
	svc := NewUserService(users, participations, qc, CacheTTLs{})

	name := "Aylin Demir"
	bio := "Weekend volunteer"
	resp, err := svc.UpdateProfile(context.Background(), 7, &dto.UpdateProfileRequest{FullName: &name, Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, name, resp.FullName)
	require.NotNil(t, resp.Bio)
	assert.Equal(t, bio, *resp.Bio)
}
