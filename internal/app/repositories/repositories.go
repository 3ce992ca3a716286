package repositories

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/aylin/missionhub/internal/pkg/apperrors"
	"github.com/aylin/missionhub/internal/pkg/dberrors"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository          *UserRepository
	MissionRepository       *MissionRepository
	ParticipationRepository *ParticipationRepository
	TokenRepository         *TokenRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:          NewUserRepository(db),
		MissionRepository:       NewMissionRepository(db),
		ParticipationRepository: NewParticipationRepository(db),
		TokenRepository:         NewTokenRepository(db),
	}
}

// queryError wraps a statement failure, surfacing transport and availability
// problems as ErrBackendUnavailable so the error middleware can answer with
// service-unavailable instead of a generic server error.
func queryError(msg string, err error) error {
	if dberrors.IsConnectionError(err) {
		return fmt.Errorf("%s: %w: %v", msg, apperrors.ErrBackendUnavailable, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
