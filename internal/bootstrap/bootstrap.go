package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/aylin/missionhub/internal/app/cache"
	appControllers "github.com/aylin/missionhub/internal/app/controllers"
	appMigrations "github.com/aylin/missionhub/internal/app/migrations"
	appRepos "github.com/aylin/missionhub/internal/app/repositories"
	appRoutes "github.com/aylin/missionhub/internal/app/routes"
	appServices "github.com/aylin/missionhub/internal/app/services"
	"github.com/aylin/missionhub/internal/config"
	"github.com/aylin/missionhub/internal/db"
	appMiddleware "github.com/aylin/missionhub/internal/middleware"
	pkgAuth "github.com/aylin/missionhub/internal/pkg/auth"
	"github.com/aylin/missionhub/internal/pkg/helpers"
	"github.com/aylin/missionhub/internal/pkg/logger"
	"github.com/aylin/missionhub/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	AuthService             appServices.AuthService
	MissionService          appServices.MissionService
	EnrollmentService       appServices.EnrollmentService
	UserService             appServices.UserService
	AuthController          *appControllers.AuthController
	MissionController       *appControllers.MissionController
	ParticipationController *appControllers.ParticipationController
	UserController          *appControllers.UserController
	AuthMiddleware          *appMiddleware.AuthMiddleware
	Repos                   *appRepos.Repositories
	JWTService              *pkgAuth.JWTService
	QueryCache              *cache.QueryCache
	Logger                  zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and
// seeds default data.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbPool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		dbPool.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}
	if err := migrator.MigrateFromDirectory(migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	if err := seed.CreateDefaultData(context.Background(), dbPool, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	// Opportunistic cleanup of expired refresh tokens
	if deleted, err := appRepos.NewTokenRepository(dbPool).DeleteExpired(context.Background()); err != nil {
		lgr.Warn().Err(err).Msg("Failed to delete expired refresh tokens")
	} else if deleted > 0 {
		lgr.Info().Int64("count", deleted).Msg("Deleted expired refresh tokens")
	}

	return dbPool, nil
}

// BuildDependencies initializes repositories, the query cache, services and
// controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)

	deps.QueryCache = cache.NewQueryCache(cfg.Cache.RefetchRetries, lgr)

	ttls := appServices.CacheTTLs{
		MissionList:   helpers.ParseDuration(cfg.Cache.MissionListTTL, 5*time.Minute),
		MissionDetail: helpers.ParseDuration(cfg.Cache.MissionDetailTTL, 0),
		UserStats:     helpers.ParseDuration(cfg.Cache.UserStatsTTL, 5*time.Minute),
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	deps.AuthService = appServices.NewAuthService(
		deps.Repos.UserRepository,
		deps.Repos.TokenRepository,
		deps.JWTService,
	)
	deps.MissionService = appServices.NewMissionService(
		deps.Repos.MissionRepository,
		deps.Repos.ParticipationRepository,
		deps.QueryCache,
		ttls,
	)
	deps.EnrollmentService = appServices.NewEnrollmentService(
		deps.Repos.MissionRepository,
		deps.Repos.ParticipationRepository,
		deps.QueryCache,
		ttls,
	)
	deps.UserService = appServices.NewUserService(
		deps.Repos.UserRepository,
		deps.Repos.ParticipationRepository,
		deps.QueryCache,
		ttls,
	)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService)
	deps.MissionController = appControllers.NewMissionController(deps.MissionService)
	deps.ParticipationController = appControllers.NewParticipationController(deps.EnrollmentService)
	deps.UserController = appControllers.NewUserController(deps.UserService)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(appMiddleware.RequestLogger(), gin.Recovery())

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.MissionController,
		deps.ParticipationController,
		deps.UserController,
		deps.AuthMiddleware,
	)

	return router
}
