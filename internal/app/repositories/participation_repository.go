package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/aylin/missionhub/internal/app/models"
	"github.com/aylin/missionhub/internal/pkg/apperrors"
)

// ParticipationRepository handles database operations for participations
type ParticipationRepository struct {
	db *pgxpool.Pool
}

// NewParticipationRepository creates a new ParticipationRepository
func NewParticipationRepository(db *pgxpool.Pool) *ParticipationRepository {
	return &ParticipationRepository{db: db}
}

// GetByID retrieves a participation by ID
func (r *ParticipationRepository) GetByID(ctx context.Context, id int64) (*models.Participation, error) {
	query := squirrel.Select("id", "user_id", "mission_id", "status", "enrolled_at").
		From("participations").
		Where("id = ?", id).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var p models.Participation
	err = r.db.QueryRow(ctx, sql, args...).Scan(&p.ID, &p.UserID, &p.MissionID, &p.Status, &p.EnrolledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrParticipationNotFound
		}
		return nil, queryError("error executing query", err)
	}

	return &p, nil
}

// FindByUserAndMission retrieves the participation for a (user, mission) pair
// regardless of status. Returns nil without error when no row exists.
func (r *ParticipationRepository) FindByUserAndMission(ctx context.Context, userID, missionID int64) (*models.Participation, error) {
	query := squirrel.Select("id", "user_id", "mission_id", "status", "enrolled_at").
		From("participations").
		Where("user_id = ? AND mission_id = ?", userID, missionID).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var p models.Participation
	err = r.db.QueryRow(ctx, sql, args...).Scan(&p.ID, &p.UserID, &p.MissionID, &p.Status, &p.EnrolledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, queryError("error executing query", err)
	}

	return &p, nil
}

// Insert creates a new participation with status enrolled. The unique
// constraint on (user_id, mission_id) backs the one-row-per-pair invariant
// against concurrent inserts.
func (r *ParticipationRepository) Insert(ctx context.Context, userID, missionID int64) (*models.Participation, error) {
	query := squirrel.Insert("participations").
		Columns("user_id", "mission_id", "status").
		Values(userID, missionID, models.StatusEnrolled).
		Suffix("RETURNING id, enrolled_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	p := models.Participation{
		UserID:    userID,
		MissionID: missionID,
		Status:    models.StatusEnrolled,
	}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&p.ID, &p.EnrolledAt)
	if err != nil {
		return nil, queryError("error executing query", err)
	}

	return &p, nil
}

// UpdateStatus transitions a participation to the given status in place.
// Rows are never deleted; cancel and complete are status transitions.
func (r *ParticipationRepository) UpdateStatus(ctx context.Context, id int64, status models.ParticipationStatus) error {
	query := squirrel.Update("participations").
		Set("status", status).
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
		return apperrors.ErrParticipationNotFound
	}

	return nil
}

// Reactivate transitions a previously cancelled or completed participation
// back to enrolled, refreshing its enrollment timestamp. Re-enrollment reuses
// the existing row rather than inserting a duplicate.
func (r *ParticipationRepository) Reactivate(ctx context.Context, id int64) (*models.Participation, error) {
	const sql = `
		UPDATE participations
		SET status = $1, enrolled_at = NOW()
		WHERE id = $2
		RETURNING id, user_id, mission_id, status, enrolled_at
	`

	var p models.Participation
	err := r.db.QueryRow(ctx, sql, models.StatusEnrolled, id).Scan(
		&p.ID, &p.UserID, &p.MissionID, &p.Status, &p.EnrolledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrParticipationNotFound
		}
		return nil, queryError("error executing query", err)
	}

	return &p, nil
}

// ListByUser retrieves the user's participations joined with their mission
// snapshots, ordered by enrollment timestamp descending. A nil status returns
// participations across all statuses.
func (r *ParticipationRepository) ListByUser(ctx context.Context, userID int64, status *models.ParticipationStatus) ([]models.ParticipationWithMission, error) {
	query := squirrel.Select(
		"p.id", "p.user_id", "p.mission_id", "p.status", "p.enrolled_at",
		"m.id", "m.title", "m.description", "m.category", "m.location", "m.date",
		"m.duration_hours", "m.max_participants", "m.current_participants",
		"m.image_url", "m.organizer_id", "m.created_at", "m.updated_at",
	).
		From("participations p").
		Join("missions m ON m.id = p.mission_id").
		Where("p.user_id = ?", userID).
		OrderBy("p.enrolled_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	if status != nil {
		query = query.Where("p.status = ?", *status)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, queryError("error executing query", err)
	}
	defer rows.Close()

	participations := []models.ParticipationWithMission{}
	for rows.Next() {
		var pm models.ParticipationWithMission
		err := rows.Scan(
			&pm.ID, &pm.UserID, &pm.MissionID, &pm.Status, &pm.EnrolledAt,
			&pm.Mission.ID, &pm.Mission.Title, &pm.Mission.Description,
			&pm.Mission.Category, &pm.Mission.Location, &pm.Mission.Date,
			&pm.Mission.DurationHours, &pm.Mission.MaxParticipants,
			&pm.Mission.CurrentParticipants, &pm.Mission.ImageURL,
			&pm.Mission.OrganizerID, &pm.Mission.CreatedAt, &pm.Mission.UpdatedAt,
		)
		if err != nil {
			return nil, queryError("error scanning row", err)
		}
		participations = append(participations, pm)
	}

	if err := rows.Err(); err != nil {
		return nil, queryError("error iterating rows", err)
	}

	return participations, nil
}

// GetSchedule retrieves the status and mission schedule fields of the user's
// non-cancelled participations. This is the read behind the stats computation.
func (r *ParticipationRepository) GetSchedule(ctx context.Context, userID int64) ([]models.ScheduleEntry, error) {
	query := squirrel.Select("p.status", "m.date", "m.duration_hours").
		From("participations p").
		Join("missions m ON m.id = p.mission_id").
		Where("p.user_id = ? AND p.status <> ?", userID, models.StatusCancelled).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, queryError("error executing query", err)
	}
	defer rows.Close()

	entries := []models.ScheduleEntry{}
	for rows.Next() {
		var entry models.ScheduleEntry
		if err := rows.Scan(&entry.Status, &entry.Date, &entry.DurationHours); err != nil {
			return nil, queryError("error scanning row", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, queryError("error iterating rows", err)
	}

	return entries, nil
}
