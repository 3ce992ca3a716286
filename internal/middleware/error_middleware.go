package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aylin/missionhub/internal/app/models/dto"
	"github.com/aylin/missionhub/internal/pkg/apperrors"
	"github.com/aylin/missionhub/internal/pkg/logger"
)

// HandleAPIError maps service errors onto HTTP responses. Every controller
// funnels its error path through here so one error always renders the same
// status and code.
func HandleAPIError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrAlreadyEnrolled):
		respond(c, http.StatusConflict, dto.ErrorCodeAlreadyEnrolled, "Already enrolled in this mission")
	case errors.Is(err, apperrors.ErrMissionFull):
		respond(c, http.StatusConflict, dto.ErrorCodeMissionFull, "Mission is full")
	case errors.Is(err, apperrors.ErrAlreadyCancelled):
		respond(c, http.StatusConflict, dto.ErrorCodeAlreadyCancelled, "Participation already cancelled")
	case errors.Is(err, apperrors.ErrEnrollmentInFlight):
		respond(c, http.StatusConflict, dto.ErrorCodeOperationInFlight, "Another action on this mission is still in progress")
	case errors.Is(err, apperrors.ErrMissionNotFound):
		respond(c, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Mission not found")
	case errors.Is(err, apperrors.ErrParticipationNotFound):
		respond(c, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Participation not found")
	case errors.Is(err, apperrors.ErrUserNotFound):
		respond(c, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "User not found")
	case errors.Is(err, apperrors.ErrResourceNotFound):
		respond(c, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found")
	case errors.Is(err, apperrors.ErrNotOwner):
		respond(c, http.StatusForbidden, dto.ErrorCodeForbidden, "You do not own this resource")
	case errors.Is(err, apperrors.ErrPermissionDenied):
		respond(c, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied")
	case errors.Is(err, apperrors.ErrNotAuthenticated):
		respond(c, http.StatusUnauthorized, dto.ErrorCodeUnauthorized, "Authentication required")
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		respond(c, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials")
	case errors.Is(err, apperrors.ErrTokenExpired):
		respond(c, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired")
	case errors.Is(err, apperrors.ErrTokenInvalid):
		respond(c, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token")
	case errors.Is(err, apperrors.ErrTokenNotFound):
		respond(c, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound, "Token not found")
	case errors.Is(err, apperrors.ErrTokenRevoked):
		respond(c, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Token revoked")
	case errors.Is(err, apperrors.ErrEmailAlreadyExists):
		respond(c, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Email already exists")
	case errors.Is(err, apperrors.ErrConflict):
		respond(c, http.StatusConflict, dto.ErrorCodeConflict, conflictMessage(err))
	case errors.Is(err, apperrors.ErrInvalidCategory):
		respond(c, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Invalid mission category")
	case errors.Is(err, apperrors.ErrValidationFailed), errors.Is(err, apperrors.ErrBadRequest):
		respond(c, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed")
	case errors.Is(err, apperrors.ErrBackendUnavailable):
		respond(c, http.StatusServiceUnavailable, dto.ErrorCodeBackendUnavailable, "Backend temporarily unavailable")
	default:
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled API error")
		respond(c, http.StatusInternalServerError, dto.ErrorCodeInternalServer, "Internal server error")
	}
}

func respond(c *gin.Context, status int, code dto.ErrorCode, message string) {
	c.JSON(status, dto.NewErrorResponse(dto.NewErrorDetail(code, message)))
}

// conflictMessage surfaces the wrapped message of a domain conflict
func conflictMessage(err error) string {
	var custom *apperrors.CustomError
	if errors.As(err, &custom) && custom.Message != "" {
		return custom.Message
	}
	return "Conflict"
}

// HandleValidationError renders a 400 for request binding failures
func HandleValidationError(c *gin.Context, err error) {
	detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed").
		WithDetails(err.Error())
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
}
