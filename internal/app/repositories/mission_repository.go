package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/aylin/missionhub/internal/app/models"
	"github.com/aylin/missionhub/internal/pkg/apperrors"
	"github.com/aylin/missionhub/internal/pkg/dberrors"
)

// missionColumns are the columns scanned into a models.Mission
var missionColumns = []string{
	"id", "title", "description", "category", "location", "date",
	"duration_hours", "max_participants", "current_participants",
	"image_url", "organizer_id", "created_at", "updated_at",
}

// MissionRepository handles database operations for missions
type MissionRepository struct {
	db *pgxpool.Pool
}

// NewMissionRepository creates a new MissionRepository
func NewMissionRepository(db *pgxpool.Pool) *MissionRepository {
	return &MissionRepository{db: db}
}

func scanMission(row pgx.Row) (*models.Mission, error) {
	var mission models.Mission
	err := row.Scan(
		&mission.ID,
		&mission.Title,
		&mission.Description,
		&mission.Category,
		&mission.Location,
		&mission.Date,
		&mission.DurationHours,
		&mission.MaxParticipants,
		&mission.CurrentParticipants,
		&mission.ImageURL,
		&mission.OrganizerID,
		&mission.CreatedAt,
		&mission.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &mission, nil
}

// GetAll retrieves missions with optional category and search filters,
// ordered by date ascending
func (r *MissionRepository) GetAll(ctx context.Context, category, search *string, page, pageSize int) ([]models.Mission, int64, error) {
	query := squirrel.Select(append(missionColumns, "COUNT(*) OVER() AS total_count")...).
		From("missions").
		OrderBy("date ASC").
		PlaceholderFormat(squirrel.Dollar)

	if category != nil && *category != "" {
		query = query.Where("category = ?", *category)
	}

	if search != nil && *search != "" {
		pattern := "%" + *search + "%"
		query = query.Where("(title ILIKE ? OR description ILIKE ?)", pattern, pattern)
	}

	if pageSize > 0 {
		offset := uint64((page - 1) * pageSize)
		query = query.Limit(uint64(pageSize)).Offset(offset)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, queryError("error executing query", err)
	}
	defer rows.Close()

	missions := []models.Mission{}
	var total int64
	for rows.Next() {
		var mission models.Mission
		err := rows.Scan(
			&mission.ID,
			&mission.Title,
			&mission.Description,
			&mission.Category,
			&mission.Location,
			&mission.Date,
			&mission.DurationHours,
			&mission.MaxParticipants,
			&mission.CurrentParticipants,
			&mission.ImageURL,
			&mission.OrganizerID,
			&mission.CreatedAt,
			&mission.UpdatedAt,
			&total,
		)
		if err != nil {
			return nil, 0, queryError("error scanning row", err)
		}
		missions = append(missions, mission)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, queryError("error iterating rows", err)
	}

	return missions, total, nil
}

// GetByID retrieves a mission by ID
func (r *MissionRepository) GetByID(ctx context.Context, id int64) (*models.Mission, error) {
	query := squirrel.Select(missionColumns...).
		From("missions").
		Where("id = ?", id).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	mission, err := scanMission(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMissionNotFound
		}
		return nil, queryError("error executing query", err)
	}

	return mission, nil
}

// Create inserts a new mission with a zero participant counter
func (r *MissionRepository) Create(ctx context.Context, mission *models.Mission) (int64, error) {
	query := squirrel.Insert("missions").
		Columns("title", "description", "category", "location", "date",
			"duration_hours", "max_participants", "current_participants",
			"image_url", "organizer_id").
		Values(mission.Title, mission.Description, mission.Category, mission.Location,
			mission.Date, mission.DurationHours, mission.MaxParticipants, 0,
			mission.ImageURL, mission.OrganizerID).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		return 0, queryError("error executing query", err)
	}

	return id, nil
}

// Update applies the non-nil fields of the update to a mission.
// current_participants is deliberately not updatable here.
func (r *MissionRepository) Update(ctx context.Context, id int64, update *MissionUpdate) error {
	query := squirrel.Update("missions").
		Set("updated_at", squirrel.Expr("NOW()")).
		Where("id = ?", id).
		PlaceholderFormat(squirrel.Dollar)

	if update.Title != nil {
		query = query.Set("title", *update.Title)
	}
	if update.Description != nil {
		query = query.Set("description", *update.Description)
	}
	if update.Category != nil {
		query = query.Set("category", *update.Category)
	}
	if update.Location != nil {
		query = query.Set("location", *update.Location)
	}
	if update.Date != nil {
		query = query.Set("date", *update.Date)
	}
	if update.DurationHours != nil {
		query = query.Set("duration_hours", *update.DurationHours)
	}
	if update.MaxParticipants != nil {
		query = query.Set("max_participants", *update.MaxParticipants)
	}
	if update.ImageURL != nil {
		query = query.Set("image_url", *update.ImageURL)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	result, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		// A concurrent enrollment can push the counter past a shrinking
		// max_participants between the service pre-check and this statement.
		if dberrors.IsCheckViolation(err, "missions_participant_bounds") {
			return apperrors.NewConflictError("maximum participants cannot drop below current enrollment")
		}
		return queryError("error executing query", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrMissionNotFound
	}

	return nil
}

// Delete removes a mission
func (r *MissionRepository) Delete(ctx context.Context, id int64) error {
	query := squirrel.Delete("missions").
		Where("id = ?", id).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	result, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return queryError("error executing query", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrMissionNotFound
	}

	return nil
}

// IncrementParticipants atomically increments the participant counter of a
// mission, rejecting the increment when the mission is at capacity. The
// conditional statement is the authority on capacity; client-side pre-checks
// are advisory only.
func (r *MissionRepository) IncrementParticipants(ctx context.Context, missionID int64) error {
	const sql = `
		UPDATE missions
		SET current_participants = current_participants + 1, updated_at = NOW()
		WHERE id = $1 AND current_participants < max_participants
	`

	result, err := r.db.Exec(ctx, sql, missionID)
	if err != nil {
		return queryError("error incrementing participants", err)
	}

	if result.RowsAffected() == 0 {
		// Zero rows means either the mission is gone or it is full
		if _, err := r.GetByID(ctx, missionID); err != nil {
			return err
		}
		return apperrors.ErrMissionFull
	}

	return nil
}

// DecrementParticipants atomically decrements the participant counter of a
// mission, floored at zero
func (r *MissionRepository) DecrementParticipants(ctx context.Context, missionID int64) error {
	const sql = `
		UPDATE missions
		SET current_participants = current_participants - 1, updated_at = NOW()
		WHERE id = $1 AND current_participants > 0
	`

	result, err := r.db.Exec(ctx, sql, missionID)
	if err != nil {
		return queryError("error decrementing participants", err)
	}

	if result.RowsAffected() == 0 {
		// Distinguish a missing mission from a counter already at zero
		if _, err := r.GetByID(ctx, missionID); err != nil {
			return err
		}
	}

	return nil
}

// MissionUpdate carries the updatable fields of a mission
type MissionUpdate struct {
	Title           *string
	Description     *string
	Category        *models.MissionCategory
	Location        *string
	Date            *time.Time
	DurationHours   *int
	MaxParticipants *int
	ImageURL        *string
}
