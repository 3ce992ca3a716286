package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aylin/missionhub/internal/app/models/dto"
	"github.com/aylin/missionhub/internal/app/services"
	"github.com/aylin/missionhub/internal/middleware"
	"github.com/aylin/missionhub/internal/pkg/helpers"
)

// MissionController handles mission related operations
type MissionController struct {
	missionService services.MissionService
}

// NewMissionController creates a new MissionController
func NewMissionController(missionService services.MissionService) *MissionController {
	return &MissionController{missionService: missionService}
}

// ListMissions handles retrieving missions with optional filtering
// @Summary List missions
// @Description Retrieves a paginated list of missions, optionally filtered by category or a text search over title and description.
// @Tags missions
// @Accept json
// @Produce json
// @Param category query string false "Filter by category" Enums(cleanup, planting, workshop, awareness, recycling)
// @Param search query string false "Search in title and description"
// @Param page query int false "Page number (1-based)" default(1) minimum(1)
// @Param size query int false "Page size (default: 10, max: 100)" default(10) minimum(1) maximum(100)
// @Success 200 {object} dto.APIResponse{data=dto.MissionListResponse} "Missions retrieved successfully"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /missions [get]
func (c *MissionController) ListMissions(ctx *gin.Context) {
	page, pageSize := helpers.ParsePaginationParams(ctx)

	filter := dto.MissionFilterRequest{Page: page, PageSize: pageSize}
	if category := ctx.Query("category"); category != "" {
		filter.Category = &category
	}
	if search := ctx.Query("search"); search != "" {
		filter.Search = &search
	}

	response, err := c.missionService.ListMissions(ctx.Request.Context(), filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}

// GetMission handles retrieving a single mission
// @Summary Get mission by ID
// @Description Retrieves a mission together with the caller's enrollment state when authenticated.
// @Tags missions
// @Accept json
// @Produce json
// @Param id path int true "Mission ID"
// @Success 200 {object} dto.APIResponse{data=dto.MissionDetailResponse} "Mission retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid mission ID"
// @Failure 404 {object} dto.ErrorResponse "Mission not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /missions/{id} [get]
func (c *MissionController) GetMission(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Mission ID")
	if !ok {
		return
	}

	userID := middleware.CurrentUserID(ctx)
	detail, err := c.missionService.GetMissionDetail(ctx.Request.Context(), id, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(detail))
}

// CreateMission handles creating a new mission
// @Summary Create a mission
// @Description Creates a new mission. The authenticated user becomes the organizer.
// @Tags missions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateMissionRequest true "Mission details"
// @Success 201 {object} dto.APIResponse{data=dto.MissionResponse} "Mission created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request parameters"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /missions [post]
func (c *MissionController) CreateMission(ctx *gin.Context) {
	var req dto.CreateMissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	organizerID := middleware.CurrentUserID(ctx)
	mission, err := c.missionService.CreateMission(ctx.Request.Context(), organizerID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(mission))
}

// UpdateMission handles updating a mission
// @Summary Update a mission
// @Description Applies a partial update to a mission. Only the organizer can update it.
// @Tags missions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Mission ID"
// @Param request body dto.UpdateMissionRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=dto.MissionResponse} "Mission updated successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request parameters"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Failure 403 {object} dto.ErrorResponse "Caller is not the organizer"
// @Failure 404 {object} dto.ErrorResponse "Mission not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /missions/{id} [put]
func (c *MissionController) UpdateMission(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Mission ID")
	if !ok {
		return
	}

	var req dto.UpdateMissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	organizerID := middleware.CurrentUserID(ctx)
	mission, err := c.missionService.UpdateMission(ctx.Request.Context(), id, organizerID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(mission))
}

// DeleteMission handles deleting a mission
// @Summary Delete a mission
// @Description Deletes a mission and its participations. Only the organizer can delete it.
// @Tags missions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Mission ID"
// @Success 200 {object} dto.APIResponse "Mission deleted successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid mission ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Failure 403 {object} dto.ErrorResponse "Caller is not the organizer"
// @Failure 404 {object} dto.ErrorResponse "Mission not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /missions/{id} [delete]
func (c *MissionController) DeleteMission(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Mission ID")
	if !ok {
		return
	}

	organizerID := middleware.CurrentUserID(ctx)
	if err := c.missionService.DeleteMission(ctx.Request.Context(), id, organizerID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewMessageResponse("Mission deleted successfully"))
}

// parseIDParam parses a numeric path parameter, rendering a 400 on failure
func parseIDParam(ctx *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid "+label)
		errorDetail = errorDetail.WithDetails(label + " must be a positive number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}
