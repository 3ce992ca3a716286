package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aylin/missionhub/internal/app/controllers"
	"github.com/aylin/missionhub/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	missionController *controllers.MissionController,
	participationController *controllers.ParticipationController,
	userController *controllers.UserController,
	authMiddleware *middleware.AuthMiddleware,
) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/refresh", authController.RefreshToken)
	}

	// --- Mission read routes ---
	// Public, but a valid token personalizes the detail with the caller's
	// enrollment state.
	missions := v1.Group("/missions")
	missions.Use(authMiddleware.OptionalJWTAuth())
	{
		missions.GET("", missionController.ListMissions)
		missions.GET("/:id", missionController.GetMission)
	}

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.POST("/auth/logout", authController.Logout)

		missionsProtected := authenticated.Group("/missions")
		{
			missionsProtected.POST("", missionController.CreateMission)
			missionsProtected.PUT("/:id", missionController.UpdateMission)
			missionsProtected.DELETE("/:id", missionController.DeleteMission)

			missionsProtected.POST("/:id/enroll", participationController.Enroll)
			missionsProtected.GET("/:id/enrollment", participationController.CheckEnrollment)
		}

		participations := authenticated.Group("/participations")
		{
			participations.GET("/mine", participationController.MyMissions)
			participations.DELETE("/:id", participationController.Cancel)
			participations.POST("/:id/complete", participationController.Complete)
		}

		users := authenticated.Group("/users")
		{
			users.GET("/me", userController.GetProfile)
			users.PUT("/me", userController.UpdateProfile)
			users.GET("/me/stats", userController.GetStats)
		}
	}
}
