package seed

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/aylin/missionhub/internal/app/models"
	"github.com/aylin/missionhub/internal/app/repositories"
	"github.com/aylin/missionhub/internal/pkg/auth"
)

// CreateDefaultData populates a demo organizer account and a handful of
// sample missions on an empty database. Startup proceeds even when seeding
// fails partially.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	userRepo := repositories.NewUserRepository(dbPool)
	missionRepo := repositories.NewMissionRepository(dbPool)

	lgr.Info().Msg("Checking/Creating default data...")
	var finalErr error

	const organizerEmail = "organizer@missionhub.app"

	exists, err := userRepo.EmailExists(ctx, organizerEmail)
	if err != nil {
		lgr.Error().Err(err).Msg("Error checking if demo organizer exists")
		return err
	}
	if exists {
		lgr.Info().Msg("Demo organizer already exists, skipping seeding")
		return nil
	}

	hash, err := auth.HashPassword("Organizer123!")
	if err != nil {
		lgr.Error().Err(err).Msg("Error hashing demo organizer password")
		return err
	}

	organizerID, err := userRepo.Create(ctx, &models.User{
		Email:        organizerEmail,
		PasswordHash: hash,
		FullName:     "MissionHub Organizer",
	})
	if err != nil {
		lgr.Error().Err(err).Msg("Error creating demo organizer")
		return err
	}
	lgr.Info().Int64("user_id", organizerID).Msg("Demo organizer created")

	missions := []models.Mission{
		{
			Title:           "Riverside Cleanup",
			Description:     "Collect litter along the riverside walking path. Gloves and bags provided.",
			Category:        models.CategoryCleanup,
			Location:        "Riverside Park, North Gate",
			Date:            time.Now().AddDate(0, 0, 7),
			DurationHours:   3,
			MaxParticipants: 25,
			OrganizerID:     organizerID,
		},
		{
			Title:           "Community Tree Planting",
			Description:     "Plant native saplings on the hillside to restore the old grove.",
			Category:        models.CategoryPlanting,
			Location:        "Green Hill Reserve",
			Date:            time.Now().AddDate(0, 0, 14),
			DurationHours:   5,
			MaxParticipants: 40,
			OrganizerID:     organizerID,
		},
		{
			Title:           "Recycling Workshop for Kids",
			Description:     "Teach primary school children how to sort household waste.",
			Category:        models.CategoryWorkshop,
			Location:        "City Library, Room 2",
			Date:            time.Now().AddDate(0, 0, 10),
			DurationHours:   2,
			MaxParticipants: 12,
			OrganizerID:     organizerID,
		},
	}

	for i := range missions {
		id, err := missionRepo.Create(ctx, &missions[i])
		if err != nil {
			lgr.Error().Err(err).Str("title", missions[i].Title).Msg("Error creating sample mission")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		lgr.Info().Int64("mission_id", id).Str("title", missions[i].Title).Msg("Sample mission created")
	}

	lgr.Info().Msg("Default data check/creation finished.")
	return finalErr
}
