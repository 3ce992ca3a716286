package services

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aylin/missionhub/internal/app/cache"
	"github.com/aylin/missionhub/internal/app/models"
	"github.com/aylin/missionhub/internal/app/models/dto"
	"github.com/aylin/missionhub/internal/pkg/apperrors"
	"github.com/aylin/missionhub/internal/pkg/dberrors"
	"github.com/aylin/missionhub/internal/pkg/logger"
)

// EnrollmentService coordinates enrollment mutations: it serializes actions
// per (user, mission), applies optimistic cache patches with exact rollback,
// drives the atomic capacity counters and fans out cache invalidations.
type EnrollmentService interface {
	Enroll(ctx context.Context, userID, missionID int64) (*models.Participation, error)
	Cancel(ctx context.Context, userID, participationID int64) error
	Complete(ctx context.Context, userID, participationID int64) error
	ListMine(ctx context.Context, userID int64, status *models.ParticipationStatus) ([]models.ParticipationWithMission, error)
	CheckEnrollment(ctx context.Context, userID, missionID int64) (*models.Participation, error)
}

type enrollmentService struct {
	missions       MissionStore
	participations ParticipationStore
	cache          *cache.QueryCache
	guard          *actionGuard
	ttls           CacheTTLs
	logger         zerolog.Logger
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(missions MissionStore, participations ParticipationStore, queryCache *cache.QueryCache, ttls CacheTTLs) EnrollmentService {
	return &enrollmentService{
		missions:       missions,
		participations: participations,
		cache:          queryCache,
		guard:          newActionGuard(),
		ttls:           ttls,
		logger:         logger.WithField("service", "enrollment"),
	}
}

// actionGuard rejects a second enroll or cancel on the same mission by the
// same user while one is still in flight. Distinct users never block each
// other; cross-user capacity races are settled by the counter statement.
type actionGuard struct {
	mu       sync.Mutex
	inFlight map[guardKey]struct{}
}

type guardKey struct {
	userID    int64
	missionID int64
}

func newActionGuard() *actionGuard {
	return &actionGuard{inFlight: make(map[guardKey]struct{})}
}

func (g *actionGuard) tryAcquire(userID, missionID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := guardKey{userID: userID, missionID: missionID}
	if _, held := g.inFlight[key]; held {
		return false
	}
	g.inFlight[key] = struct{}{}
	return true
}

func (g *actionGuard) release(userID, missionID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, guardKey{userID: userID, missionID: missionID})
}

// enrollmentFanOut is the invalidation set shared by every enrollment
// mutation: the mission's detail for all viewers, every mission list page,
// the user's own missions and the user's stats.
func enrollmentFanOut(missionID, userID int64) []cache.Key {
	return []cache.Key{
		missionDetailPrefix(missionID),
		missionListPrefix(),
		myMissionsPrefix(userID),
		userStatsKey(userID),
	}
}

// Enroll registers the user on a mission. Capacity is enforced by the
// conditional counter increment; the participation row is written only after
// a slot has been claimed, and the slot is released if the write fails.
func (s *enrollmentService) Enroll(ctx context.Context, userID, missionID int64) (*models.Participation, error) {
	if !s.guard.tryAcquire(userID, missionID) {
		return nil, apperrors.ErrEnrollmentInFlight
	}
	defer s.guard.release(userID, missionID)

	snapshot := s.cache.Optimistic(missionDetailKey(missionID, userID), func(value interface{}) interface{} {
		detail, ok := value.(dto.MissionDetailResponse)
		if !ok {
			return value
		}
		detail.CurrentParticipants++
		detail.SpotsLeft = detail.MaxParticipants - detail.CurrentParticipants
		detail.IsUserRegistered = true
		return detail
	})

	participation, err := s.enroll(ctx, userID, missionID)
	if err != nil {
		snapshot.Restore()
		return nil, err
	}

	s.cache.Invalidate(enrollmentFanOut(missionID, userID)...)
	s.logger.Info().Int64("user_id", userID).Int64("mission_id", missionID).
		Int64("participation_id", participation.ID).Msg("User enrolled in mission")
	return participation, nil
}

func (s *enrollmentService) enroll(ctx context.Context, userID, missionID int64) (*models.Participation, error) {
	existing, err := s.participations.FindByUserAndMission(ctx, userID, missionID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if existing.Status == models.StatusEnrolled {
			return nil, apperrors.ErrAlreadyEnrolled
		}
		// Re-enrollment reuses the existing row so the one-row-per-pair
		// invariant holds across cancel and re-enroll cycles.
		if err := s.missions.IncrementParticipants(ctx, missionID); err != nil {
			return nil, err
		}
		participation, err := s.participations.Reactivate(ctx, existing.ID)
		if err != nil {
			s.releaseSlot(ctx, missionID)
			return nil, err
		}
		return participation, nil
	}

	if err := s.missions.IncrementParticipants(ctx, missionID); err != nil {
		return nil, err
	}
	participation, err := s.participations.Insert(ctx, userID, missionID)
	if err != nil {
		s.releaseSlot(ctx, missionID)
		if dberrors.IsDuplicateConstraintError(err, "participations_user_id_mission_id_key") {
			// Lost a race against a concurrent enroll for the same pair.
			return nil, apperrors.ErrAlreadyEnrolled
		}
		return nil, err
	}
	return participation, nil
}

// releaseSlot compensates a claimed counter slot after a failed row write.
// A failed decrement leaves the counter high rather than risking a negative
// value, so it is logged and not retried here.
func (s *enrollmentService) releaseSlot(ctx context.Context, missionID int64) {
	if err := s.missions.DecrementParticipants(ctx, missionID); err != nil {
		s.logger.Error().Err(err).Int64("mission_id", missionID).
			Msg("Failed to release claimed participant slot")
	}
}

// Cancel withdraws the user's own enrollment. A participation that is
// already cancelled is rejected so the counter is never decremented twice
// for the same row.
func (s *enrollmentService) Cancel(ctx context.Context, userID, participationID int64) error {
	participation, err := s.participations.GetByID(ctx, participationID)
	if err != nil {
		return err
	}
	if participation.UserID != userID {
		return apperrors.ErrNotOwner
	}
	if participation.Status == models.StatusCancelled {
		return apperrors.ErrAlreadyCancelled
	}

	missionID := participation.MissionID
	if !s.guard.tryAcquire(userID, missionID) {
		return apperrors.ErrEnrollmentInFlight
	}
	defer s.guard.release(userID, missionID)

	snapshot := s.cache.Optimistic(missionDetailKey(missionID, userID), func(value interface{}) interface{} {
		detail, ok := value.(dto.MissionDetailResponse)
		if !ok {
			return value
		}
		if detail.CurrentParticipants > 0 {
			detail.CurrentParticipants--
		}
		detail.SpotsLeft = detail.MaxParticipants - detail.CurrentParticipants
		detail.IsUserRegistered = false
		detail.ParticipationID = nil
		return detail
	})

	if err := s.participations.UpdateStatus(ctx, participationID, models.StatusCancelled); err != nil {
		snapshot.Restore()
		return err
	}
	if err := s.missions.DecrementParticipants(ctx, missionID); err != nil {
		// The row is already cancelled; surface the error and let the stale
		// entries refetch the authoritative state.
		snapshot.Restore()
		s.cache.Invalidate(enrollmentFanOut(missionID, userID)...)
		return err
	}

	s.cache.Invalidate(enrollmentFanOut(missionID, userID)...)
	s.logger.Info().Int64("user_id", userID).Int64("mission_id", missionID).
		Int64("participation_id", participationID).Msg("User cancelled enrollment")
	return nil
}

// Complete marks the user's enrollment as completed. The participant stays
// counted on the mission; only cancellation frees a slot.
func (s *enrollmentService) Complete(ctx context.Context, userID, participationID int64) error {
	participation, err := s.participations.GetByID(ctx, participationID)
	if err != nil {
		return err
	}
	if participation.UserID != userID {
		return apperrors.ErrNotOwner
	}
	if participation.Status != models.StatusEnrolled {
		return apperrors.NewConflictError("only an active enrollment can be completed")
	}

	if err := s.participations.UpdateStatus(ctx, participationID, models.StatusCompleted); err != nil {
		return err
	}

	s.cache.Invalidate(myMissionsPrefix(userID), userStatsKey(userID))
	s.logger.Info().Int64("user_id", userID).Int64("participation_id", participationID).
		Msg("User completed mission")
	return nil
}

// ListMine returns the user's participations joined with their missions,
// newest first, optionally filtered by status.
func (s *enrollmentService) ListMine(ctx context.Context, userID int64, status *models.ParticipationStatus) ([]models.ParticipationWithMission, error) {
	value, err := s.cache.ReadThrough(ctx, myMissionsKey(userID, status), s.ttls.MissionList, func(ctx context.Context) (any, error) {
		return s.participations.ListByUser(ctx, userID, status)
	})
	if err != nil {
		if cached, ok := value.([]models.ParticipationWithMission); ok {
			return cached, nil
		}
		return nil, err
	}
	return value.([]models.ParticipationWithMission), nil
}

// CheckEnrollment reports the user's active enrollment on a mission, or nil
// when there is none.
func (s *enrollmentService) CheckEnrollment(ctx context.Context, userID, missionID int64) (*models.Participation, error) {
	participation, err := s.participations.FindByUserAndMission(ctx, userID, missionID)
	if err != nil {
		return nil, err
	}
	if participation == nil || participation.Status != models.StatusEnrolled {
		return nil, nil
	}
	return participation, nil
}
