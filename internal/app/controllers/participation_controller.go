package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aylin/missionhub/internal/app/models"
	"github.com/aylin/missionhub/internal/app/models/dto"
	"github.com/aylin/missionhub/internal/app/services"
	"github.com/aylin/missionhub/internal/middleware"
)

// ParticipationController handles enrollment related operations
type ParticipationController struct {
	enrollmentService services.EnrollmentService
}

// NewParticipationController creates a new ParticipationController
func NewParticipationController(enrollmentService services.EnrollmentService) *ParticipationController {
	return &ParticipationController{enrollmentService: enrollmentService}
}

// Enroll handles enrolling the caller in a mission
// @Summary Enroll in a mission
// @Description Registers the authenticated user on a mission. Fails when the mission is full, when the user is already enrolled, or when another action on the mission is still in progress.
// @Tags participations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Mission ID"
// @Success 201 {object} dto.APIResponse{data=dto.ParticipationResponse} "Enrolled successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid mission ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Failure 404 {object} dto.ErrorResponse "Mission not found"
// @Failure 409 {object} dto.ErrorResponse "Mission full, already enrolled, or action in flight"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /missions/{id}/enroll [post]
func (c *ParticipationController) Enroll(ctx *gin.Context) {
	missionID, ok := parseIDParam(ctx, "id", "Mission ID")
	if !ok {
		return
	}

	userID := middleware.CurrentUserID(ctx)
	participation, err := c.enrollmentService.Enroll(ctx.Request.Context(), userID, missionID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.FromParticipation(participation)))
}

// Cancel handles cancelling the caller's enrollment
// @Summary Cancel an enrollment
// @Description Cancels the authenticated user's own participation. A participation that is already cancelled cannot be cancelled again.
// @Tags participations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Participation ID"
// @Success 200 {object} dto.APIResponse "Enrollment cancelled successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid participation ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Failure 403 {object} dto.ErrorResponse "Participation belongs to another user"
// @Failure 404 {object} dto.ErrorResponse "Participation not found"
// @Failure 409 {object} dto.ErrorResponse "Already cancelled or action in flight"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /participations/{id} [delete]
func (c *ParticipationController) Cancel(ctx *gin.Context) {
	participationID, ok := parseIDParam(ctx, "id", "Participation ID")
	if !ok {
		return
	}

	userID := middleware.CurrentUserID(ctx)
	if err := c.enrollmentService.Cancel(ctx.Request.Context(), userID, participationID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewMessageResponse("Enrollment cancelled successfully"))
}

// Complete handles marking the caller's participation as completed
// @Summary Complete a participation
// @Description Marks the authenticated user's own active participation as completed.
// @Tags participations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Participation ID"
// @Success 200 {object} dto.APIResponse "Participation completed successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid participation ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Failure 403 {object} dto.ErrorResponse "Participation belongs to another user"
// @Failure 404 {object} dto.ErrorResponse "Participation not found"
// @Failure 409 {object} dto.ErrorResponse "Participation is not active"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /participations/{id}/complete [post]
func (c *ParticipationController) Complete(ctx *gin.Context) {
	participationID, ok := parseIDParam(ctx, "id", "Participation ID")
	if !ok {
		return
	}

	userID := middleware.CurrentUserID(ctx)
	if err := c.enrollmentService.Complete(ctx.Request.Context(), userID, participationID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewMessageResponse("Participation completed successfully"))
}

// MyMissions handles listing the caller's participations
// @Summary List my missions
// @Description Retrieves the authenticated user's participations joined with their missions, newest enrollment first, optionally filtered by status.
// @Tags participations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status" Enums(enrolled, cancelled, completed)
// @Success 200 {object} dto.APIResponse{data=dto.MyMissionsResponse} "Participations retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid status filter"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /participations/mine [get]
func (c *ParticipationController) MyMissions(ctx *gin.Context) {
	var status *models.ParticipationStatus
	if statusStr := ctx.Query("status"); statusStr != "" {
		s := models.ParticipationStatus(statusStr)
		if s != models.StatusEnrolled && s != models.StatusCancelled && s != models.StatusCompleted {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid status filter")
			errorDetail = errorDetail.WithDetails("Status must be one of: enrolled, cancelled, completed")
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}
		status = &s
	}

	userID := middleware.CurrentUserID(ctx)
	participations, err := c.enrollmentService.ListMine(ctx.Request.Context(), userID, status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	items := make([]dto.ParticipationWithMissionResponse, 0, len(participations))
	for i := range participations {
		items = append(items, dto.FromParticipationWithMission(&participations[i]))
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.MyMissionsResponse{Participations: items}))
}

// CheckEnrollment handles checking the caller's enrollment on a mission
// @Summary Check enrollment
// @Description Reports whether the authenticated user has an active enrollment on the mission.
// @Tags participations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Mission ID"
// @Success 200 {object} dto.APIResponse{data=dto.EnrollmentStatusResponse} "Enrollment state retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid mission ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /missions/{id}/enrollment [get]
func (c *ParticipationController) CheckEnrollment(ctx *gin.Context) {
	missionID, ok := parseIDParam(ctx, "id", "Mission ID")
	if !ok {
		return
	}

	userID := middleware.CurrentUserID(ctx)
	participation, err := c.enrollmentService.CheckEnrollment(ctx.Request.Context(), userID, missionID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	response := dto.EnrollmentStatusResponse{Enrolled: participation != nil}
	if participation != nil {
		id := participation.ID
		response.ParticipationID = &id
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}
