package dto

import (
	"time"

	"github.com/aylin/missionhub/internal/app/models"
)

// CreateMissionRequest represents a request to create a mission
type CreateMissionRequest struct {
	Title           string    `json:"title" binding:"required,min=3,max=200"`
	Description     string    `json:"description" binding:"required"`
	Category        string    `json:"category" binding:"required,oneof=cleanup planting workshop awareness recycling"`
	Location        string    `json:"location" binding:"required"`
	Date            time.Time `json:"date" binding:"required"`
	DurationHours   int       `json:"durationHours" binding:"required,min=1,max=24"`
	MaxParticipants int       `json:"maxParticipants" binding:"required,min=1"`
	ImageURL        *string   `json:"imageUrl,omitempty"`
}

// UpdateMissionRequest represents a request to update mission details
type UpdateMissionRequest struct {
	Title           *string    `json:"title,omitempty" binding:"omitempty,min=3,max=200"`
	Description     *string    `json:"description,omitempty"`
	Category        *string    `json:"category,omitempty" binding:"omitempty,oneof=cleanup planting workshop awareness recycling"`
	Location        *string    `json:"location,omitempty"`
	Date            *time.Time `json:"date,omitempty"`
	DurationHours   *int       `json:"durationHours,omitempty" binding:"omitempty,min=1,max=24"`
	MaxParticipants *int       `json:"maxParticipants,omitempty" binding:"omitempty,min=1"`
	ImageURL        *string    `json:"imageUrl,omitempty"`
}

// MissionFilterRequest represents filter and pagination parameters for listing missions
type MissionFilterRequest struct {
	Category *string
	Search   *string
	Page     int
	PageSize int
}

// MissionResponse represents a mission in API responses
type MissionResponse struct {
	ID                  int64     `json:"id"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	Category            string    `json:"category"`
	Location            string    `json:"location"`
	Date                time.Time `json:"date"`
	DurationHours       int       `json:"durationHours"`
	MaxParticipants     int       `json:"maxParticipants"`
	CurrentParticipants int       `json:"currentParticipants"`
	SpotsLeft           int       `json:"spotsLeft"`
	ImageURL            *string   `json:"imageUrl,omitempty"`
	OrganizerID         int64     `json:"organizerId"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// MissionDetailResponse is a mission joined with the viewer's enrollment state.
// This is the value held in the mission-detail cache entry and patched
// optimistically during enroll/cancel.
type MissionDetailResponse struct {
	MissionResponse
	IsUserRegistered bool   `json:"isUserRegistered"`
	ParticipationID  *int64 `json:"participationId,omitempty"`
}

// MissionListResponse represents the response for a list of missions with pagination
type MissionListResponse struct {
	Missions   []MissionResponse `json:"missions"`
	Pagination PaginationInfo    `json:"pagination"`
}

// FromMission converts a models.Mission to a MissionResponse
func FromMission(mission *models.Mission) MissionResponse {
	if mission == nil {
		return MissionResponse{}
	}

	return MissionResponse{
		ID:                  mission.ID,
		Title:               mission.Title,
		Description:         mission.Description,
		Category:            string(mission.Category),
		Location:            mission.Location,
		Date:                mission.Date,
		DurationHours:       mission.DurationHours,
		MaxParticipants:     mission.MaxParticipants,
		CurrentParticipants: mission.CurrentParticipants,
		SpotsLeft:           mission.SpotsLeft(),
		ImageURL:            mission.ImageURL,
		OrganizerID:         mission.OrganizerID,
		CreatedAt:           mission.CreatedAt,
		UpdatedAt:           mission.UpdatedAt,
	}
}
