package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aylin/missionhub/internal/app/cache"
	"github.com/aylin/missionhub/internal/app/models"
	"github.com/aylin/missionhub/internal/app/models/dto"
	"github.com/aylin/missionhub/internal/app/repositories"
	"github.com/aylin/missionhub/internal/pkg/apperrors"
	"github.com/aylin/missionhub/internal/pkg/helpers"
	"github.com/aylin/missionhub/internal/pkg/logger"
)

// MissionService handles mission listing, detail and organizer CRUD
type MissionService interface {
	ListMissions(ctx context.Context, filter dto.MissionFilterRequest) (*dto.MissionListResponse, error)
	GetMissionDetail(ctx context.Context, missionID, userID int64) (*dto.MissionDetailResponse, error)
	CreateMission(ctx context.Context, organizerID int64, req *dto.CreateMissionRequest) (*dto.MissionResponse, error)
	UpdateMission(ctx context.Context, missionID, organizerID int64, req *dto.UpdateMissionRequest) (*dto.MissionResponse, error)
	DeleteMission(ctx context.Context, missionID, organizerID int64) error
}

type missionService struct {
	missions       MissionStore
	participations ParticipationStore
	cache          *cache.QueryCache
	ttls           CacheTTLs
	logger         zerolog.Logger
}

// NewMissionService creates a new mission service
func NewMissionService(missions MissionStore, participations ParticipationStore, queryCache *cache.QueryCache, ttls CacheTTLs) MissionService {
	return &missionService{
		missions:       missions,
		participations: participations,
		cache:          queryCache,
		ttls:           ttls,
		logger:         logger.WithField("service", "mission"),
	}
}

// ListMissions returns a filtered, paginated mission page through the cache.
// A stale page is served immediately while a background refetch runs.
func (s *missionService) ListMissions(ctx context.Context, filter dto.MissionFilterRequest) (*dto.MissionListResponse, error) {
	page, pageSize := helpers.NormalizePagination(filter.Page, filter.PageSize)
	key := missionListKey(filter.Category, filter.Search, page, pageSize)

	value, err := s.cache.ReadThrough(ctx, key, s.ttls.MissionList, func(ctx context.Context) (interface{}, error) {
		missions, total, err := s.missions.GetAll(ctx, filter.Category, filter.Search, page, pageSize)
		if err != nil {
			return nil, err
		}
		items := make([]dto.MissionResponse, 0, len(missions))
		for i := range missions {
			items = append(items, dto.FromMission(&missions[i]))
		}
		return dto.MissionListResponse{
			Missions:   items,
			Pagination: helpers.NewPaginationInfo(total, page, pageSize),
		}, nil
	})
	if err != nil {
		if cached, ok := value.(dto.MissionListResponse); ok {
			return &cached, nil
		}
		return nil, err
	}
	resp := value.(dto.MissionListResponse)
	return &resp, nil
}

// GetMissionDetail returns a mission joined with the viewer's enrollment
// state. The detail TTL is zero in production, so every read fetches fresh
// state and the cache entry exists only as the optimistic-patch target.
// userID zero means an anonymous viewer.
func (s *missionService) GetMissionDetail(ctx context.Context, missionID, userID int64) (*dto.MissionDetailResponse, error) {
	key := missionDetailKey(missionID, userID)

	value, err := s.cache.ReadThrough(ctx, key, s.ttls.MissionDetail, func(ctx context.Context) (interface{}, error) {
		mission, err := s.missions.GetByID(ctx, missionID)
		if err != nil {
			return nil, err
		}
		detail := dto.MissionDetailResponse{MissionResponse: dto.FromMission(mission)}
		if userID != 0 {
			participation, err := s.participations.FindByUserAndMission(ctx, userID, missionID)
			if err != nil {
				return nil, err
			}
			if participation != nil && participation.Status == models.StatusEnrolled {
				detail.IsUserRegistered = true
				id := participation.ID
				detail.ParticipationID = &id
			}
		}
		return detail, nil
	})
	if err != nil {
		if cached, ok := value.(dto.MissionDetailResponse); ok {
			return &cached, nil
		}
		return nil, err
	}
	detail := value.(dto.MissionDetailResponse)
	return &detail, nil
}

// CreateMission creates a mission owned by the organizer
func (s *missionService) CreateMission(ctx context.Context, organizerID int64, req *dto.CreateMissionRequest) (*dto.MissionResponse, error) {
	if !models.ValidCategory(models.MissionCategory(req.Category)) {
		return nil, apperrors.ErrInvalidCategory
	}

	mission := &models.Mission{
		Title:           req.Title,
		Description:     req.Description,
		Category:        models.MissionCategory(req.Category),
		Location:        req.Location,
		Date:            req.Date,
		DurationHours:   req.DurationHours,
		MaxParticipants: req.MaxParticipants,
		ImageURL:        req.ImageURL,
		OrganizerID:     organizerID,
	}
	id, err := s.missions.Create(ctx, mission)
	if err != nil {
		return nil, err
	}

	created, err := s.missions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(missionListPrefix())
	s.logger.Info().Int64("mission_id", id).Int64("organizer_id", organizerID).Msg("Mission created")
	resp := dto.FromMission(created)
	return &resp, nil
}

// UpdateMission applies a partial update after an ownership check
func (s *missionService) UpdateMission(ctx context.Context, missionID, organizerID int64, req *dto.UpdateMissionRequest) (*dto.MissionResponse, error) {
	mission, err := s.missions.GetByID(ctx, missionID)
	if err != nil {
		return nil, err
	}
	if mission.OrganizerID != organizerID {
		return nil, apperrors.ErrNotOwner
	}
	if req.Category != nil && !models.ValidCategory(models.MissionCategory(*req.Category)) {
		return nil, apperrors.ErrInvalidCategory
	}
	if req.MaxParticipants != nil && *req.MaxParticipants < mission.CurrentParticipants {
		return nil, apperrors.NewConflictError("maximum participants cannot drop below current enrollment")
	}

	var category *models.MissionCategory
	if req.Category != nil {
		c := models.MissionCategory(*req.Category)
		category = &c
	}

	update := &repositories.MissionUpdate{
		Title:           req.Title,
		Description:     req.Description,
		Category:        category,
		Location:        req.Location,
		Date:            req.Date,
		DurationHours:   req.DurationHours,
		MaxParticipants: req.MaxParticipants,
		ImageURL:        req.ImageURL,
	}
	if err := s.missions.Update(ctx, missionID, update); err != nil {
		return nil, err
	}

	updated, err := s.missions.GetByID(ctx, missionID)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(missionListPrefix(), missionDetailPrefix(missionID))
	s.logger.Info().Int64("mission_id", missionID).Msg("Mission updated")
	resp := dto.FromMission(updated)
	return &resp, nil
}

// DeleteMission removes a mission after an ownership check
func (s *missionService) DeleteMission(ctx context.Context, missionID, organizerID int64) error {
	mission, err := s.missions.GetByID(ctx, missionID)
	if err != nil {
		return err
	}
	if mission.OrganizerID != organizerID {
		return apperrors.ErrNotOwner
	}

	if err := s.missions.Delete(ctx, missionID); err != nil {
		return err
	}

	s.cache.Invalidate(missionListPrefix(), missionDetailPrefix(missionID))
	s.logger.Info().Int64("mission_id", missionID).Msg("Mission deleted")
	return nil
}
