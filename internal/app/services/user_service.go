package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aylin/missionhub/internal/app/cache"
	"github.com/aylin/missionhub/internal/app/models"
	"github.com/aylin/missionhub/internal/app/models/dto"
	"github.com/aylin/missionhub/internal/pkg/logger"
)

// UserService handles profile access and volunteering statistics
type UserService interface {
	GetProfile(ctx context.Context, userID int64) (*dto.UserResponse, error)
	UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserResponse, error)
	GetStats(ctx context.Context, userID int64) (*dto.UserStatsResponse, error)
}

type userService struct {
	users          UserStore
	participations ParticipationStore
	cache          *cache.QueryCache
	ttls           CacheTTLs
	logger         zerolog.Logger
}

// NewUserService creates a new user service
func NewUserService(users UserStore, participations ParticipationStore, queryCache *cache.QueryCache, ttls CacheTTLs) UserService {
	return &userService{
		users:          users,
		participations: participations,
		cache:          queryCache,
		ttls:           ttls,
		logger:         logger.WithField("service", "user"),
	}
}

// GetProfile returns the user's profile
func (s *userService) GetProfile(ctx context.Context, userID int64) (*dto.UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := dto.FromUser(user)
	return &resp, nil
}

// UpdateProfile applies a partial profile update
func (s *userService) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	if err := s.users.UpdateProfile(ctx, userID, req.FullName, req.Bio, req.AvatarURL); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", userID).Msg("Profile updated")
	resp := dto.FromUser(user)
	return &resp, nil
}

// GetStats computes the user's volunteering statistics through the cache
func (s *userService) GetStats(ctx context.Context, userID int64) (*dto.UserStatsResponse, error) {
	value, err := s.cache.ReadThrough(ctx, userStatsKey(userID), s.ttls.UserStats, func(ctx context.Context) (interface{}, error) {
		entries, err := s.participations.GetSchedule(ctx, userID)
		if err != nil {
			return nil, err
		}
		return ComputeStats(entries, time.Now()), nil
	})
	if err != nil {
		if cached, ok := value.(models.UserStats); ok {
			resp := dto.FromUserStats(cached)
			return &resp, nil
		}
		return nil, err
	}
	stats := value.(models.UserStats)
	resp := dto.FromUserStats(stats)
	return &resp, nil
}

// ComputeStats partitions a user's non-cancelled schedule into upcoming and
// done. An entry counts as done once its mission date has passed or it was
// explicitly marked completed; volunteered hours accumulate over done
// entries only.
func ComputeStats(entries []models.ScheduleEntry, now time.Time) models.UserStats {
	var stats models.UserStats
	for _, entry := range entries {
		stats.EnrolledMissionsCount++
		if entry.Status == models.StatusCompleted || entry.Date.Before(now) {
			stats.TotalMissionsDone++
			stats.TotalHoursVolunteered += entry.DurationHours
		} else {
			stats.UpcomingMissionsCount++
		}
	}
	return stats
}
