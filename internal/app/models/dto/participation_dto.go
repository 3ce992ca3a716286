package dto

import (
	"time"

	"github.com/aylin/missionhub/internal/app/models"
)

// ParticipationResponse represents a participation in API responses
type ParticipationResponse struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	MissionID  int64     `json:"missionId"`
	Status     string    `json:"status"`
	EnrolledAt time.Time `json:"enrolledAt"`
}

// ParticipationWithMissionResponse is a participation joined with its mission snapshot
type ParticipationWithMissionResponse struct {
	ParticipationResponse
	Mission MissionResponse `json:"mission"`
}

// MyMissionsResponse represents the response for the user's own participations
type MyMissionsResponse struct {
	Participations []ParticipationWithMissionResponse `json:"participations"`
}

// EnrollmentStatusResponse reports whether the caller is enrolled in a mission
type EnrollmentStatusResponse struct {
	Enrolled        bool   `json:"enrolled"`
	ParticipationID *int64 `json:"participationId,omitempty"`
}

// UserStatsResponse represents derived volunteering statistics for a user
type UserStatsResponse struct {
	EnrolledMissionsCount int `json:"enrolledMissionsCount"`
	UpcomingMissionsCount int `json:"upcomingMissionsCount"`
	TotalMissionsDone     int `json:"totalMissionsCompleted"`
	TotalHoursVolunteered int `json:"totalHoursVolunteered"`
}

// FromParticipation converts a models.Participation to a ParticipationResponse
func FromParticipation(p *models.Participation) ParticipationResponse {
	if p == nil {
		return ParticipationResponse{}
	}

	return ParticipationResponse{
		ID:         p.ID,
		UserID:     p.UserID,
		MissionID:  p.MissionID,
		Status:     string(p.Status),
		EnrolledAt: p.EnrolledAt,
	}
}

// FromParticipationWithMission converts a joined row to its response form
func FromParticipationWithMission(p *models.ParticipationWithMission) ParticipationWithMissionResponse {
	if p == nil {
		return ParticipationWithMissionResponse{}
	}

	return ParticipationWithMissionResponse{
		ParticipationResponse: FromParticipation(&p.Participation),
		Mission:               FromMission(&p.Mission),
	}
}

// FromUserStats converts models.UserStats to its response form
func FromUserStats(s models.UserStats) UserStatsResponse {
	return UserStatsResponse{
		EnrolledMissionsCount: s.EnrolledMissionsCount,
		UpcomingMissionsCount: s.UpcomingMissionsCount,
		TotalMissionsDone:     s.TotalMissionsDone,
		TotalHoursVolunteered: s.TotalHoursVolunteered,
	}
}
