package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aylin/missionhub/internal/app/models/dto"
	"github.com/aylin/missionhub/internal/pkg/apperrors"
)

func TestHandleAPIErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   dto.ErrorCode
	}{
		{"already enrolled", apperrors.ErrAlreadyEnrolled, http.StatusConflict, dto.ErrorCodeAlreadyEnrolled},
		{"mission full", apperrors.ErrMissionFull, http.StatusConflict, dto.ErrorCodeMissionFull},
		{"already cancelled", apperrors.ErrAlreadyCancelled, http.StatusConflict, dto.ErrorCodeAlreadyCancelled},
		{"in flight", apperrors.ErrEnrollmentInFlight, http.StatusConflict, dto.ErrorCodeOperationInFlight},
		{"mission not found", apperrors.ErrMissionNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{"participation not found", apperrors.ErrParticipationNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{"not owner", apperrors.ErrNotOwner, http.StatusForbidden, dto.ErrorCodeForbidden},
		{"not authenticated", apperrors.ErrNotAuthenticated, http.StatusUnauthorized, dto.ErrorCodeUnauthorized},
		{"invalid credentials", apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials},
		{"email exists", apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
		{"backend unavailable", apperrors.ErrBackendUnavailable, http.StatusServiceUnavailable, dto.ErrorCodeBackendUnavailable},
		{"unknown", assert.AnError, http.StatusInternalServerError, dto.ErrorCodeInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(recorder)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			HandleAPIError(c, tt.err)

			assert.Equal(t, tt.wantStatus, recorder.Code)

			var response dto.ErrorResponse
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
			assert.False(t, response.Success)
			require.NotNil(t, response.Error)
			assert.Equal(t, tt.wantCode, response.Error.Code)
		})
	}
}

func TestHandleAPIErrorWrappedConflictMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodPut, "/", nil)

	HandleAPIError(c, apperrors.NewConflictError("maximum participants cannot drop below current enrollment"))

	assert.Equal(t, http.StatusConflict, recorder.Code)

	var response dto.ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	require.NotNil(t, response.Error)
	assert.Equal(t, "maximum participants cannot drop below current enrollment", response.Error.Message)
}
