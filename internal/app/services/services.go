package services

import (
	"context"
	"strconv"
	"time"

	"github.com/aylin/missionhub/internal/app/cache"
	"github.com/aylin/missionhub/internal/app/models"
	"github.com/aylin/missionhub/internal/app/repositories"
)

// CacheTTLs carries the freshness window of each query class. MissionDetail
// is zero in production so enrollment state is never served stale.
type CacheTTLs struct {
	MissionList   time.Duration
	MissionDetail time.Duration
	UserStats     time.Duration
}

// MissionStore is the mission persistence surface consumed by services
type MissionStore interface {
	GetAll(ctx context.Context, category, search *string, page, pageSize int) ([]models.Mission, int64, error)
	GetByID(ctx context.Context, id int64) (*models.Mission, error)
	Create(ctx context.Context, mission *models.Mission) (int64, error)
	Update(ctx context.Context, id int64, update *repositories.MissionUpdate) error
	Delete(ctx context.Context, id int64) error
	IncrementParticipants(ctx context.Context, missionID int64) error
	DecrementParticipants(ctx context.Context, missionID int64) error
}

// ParticipationStore is the participation persistence surface consumed by services
type ParticipationStore interface {
	GetByID(ctx context.Context, id int64) (*models.Participation, error)
	FindByUserAndMission(ctx context.Context, userID, missionID int64) (*models.Participation, error)
	Insert(ctx context.Context, userID, missionID int64) (*models.Participation, error)
	UpdateStatus(ctx context.Context, id int64, status models.ParticipationStatus) error
	Reactivate(ctx context.Context, id int64) (*models.Participation, error)
	ListByUser(ctx context.Context, userID int64, status *models.ParticipationStatus) ([]models.ParticipationWithMission, error)
	GetSchedule(ctx context.Context, userID int64) ([]models.ScheduleEntry, error)
}

// UserStore is the user persistence surface consumed by services
type UserStore interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *models.User) (int64, error)
	UpdateProfile(ctx context.Context, id int64, fullName, bio, avatarURL *string) error
}

// TokenStore is the refresh-token persistence surface consumed by services
type TokenStore interface {
	Create(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
}

// Cache key builders. Keys follow the entity:op:params scheme so one
// invalidation prefix covers every parameterization of a query class.

func missionListPrefix() cache.Key {
	return cache.NewKey("missions", "list")
}

func missionListKey(category, search *string, page, pageSize int) cache.Key {
	cat, q := "", ""
	if category != nil {
		cat = *category
	}
	if search != nil {
		q = *search
	}
	return cache.NewKey("missions", "list", cat, q, strconv.Itoa(page), strconv.Itoa(pageSize))
}

func missionDetailPrefix(missionID int64) cache.Key {
	return cache.NewKey("missions", "detail", strconv.FormatInt(missionID, 10))
}

// missionDetailKey is keyed per viewer: the detail carries the viewer's own
// enrollment state
func missionDetailKey(missionID, userID int64) cache.Key {
	return cache.NewKey("missions", "detail", strconv.FormatInt(missionID, 10), "u"+strconv.FormatInt(userID, 10))
}

func myMissionsPrefix(userID int64) cache.Key {
	return cache.NewKey("participations", "mine", strconv.FormatInt(userID, 10))
}

func myMissionsKey(userID int64, status *models.ParticipationStatus) cache.Key {
	st := "all"
	if status != nil {
		st = string(*status)
	}
	return cache.NewKey("participations", "mine", strconv.FormatInt(userID, 10), st)
}

func userStatsKey(userID int64) cache.Key {
	return cache.NewKey("users", "stats", strconv.FormatInt(userID, 10))
}
