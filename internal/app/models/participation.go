package models

import "time"

// Participation represents one user's relationship to one mission.
// At most one row exists per (user, mission) pair regardless of status:
// cancellation transitions the row, re-enrollment transitions it back.
type Participation struct {
	ID         int64               `json:"id" db:"id"`
	UserID     int64               `json:"userId" db:"user_id"`
	MissionID  int64               `json:"missionId" db:"mission_id"`
	Status     ParticipationStatus `json:"status" db:"status"`
	EnrolledAt time.Time           `json:"enrolledAt" db:"enrolled_at"`
}

// IsActive reports whether the participation still counts toward the
// mission's participant counter
func (p *Participation) IsActive() bool {
	return p.Status != StatusCancelled
}

// ParticipationWithMission is a participation row joined with a snapshot of
// its mission, as consumed by the my-missions view
type ParticipationWithMission struct {
	Participation
	Mission Mission `json:"mission"`
}

// ScheduleEntry pairs a participation status with the schedule fields of its
// mission, as scanned by the stats computation
type ScheduleEntry struct {
	Status        ParticipationStatus
	Date          time.Time
	DurationHours int
}

// UserStats holds counts derived from a user's non-cancelled participations
// joined with mission dates. Recomputed on demand, never stored.
type UserStats struct {
	EnrolledMissionsCount int `json:"enrolledMissionsCount"`
	UpcomingMissionsCount int `json:"upcomingMissionsCount"`
	TotalMissionsDone     int `json:"totalMissionsCompleted"`
	TotalHoursVolunteered int `json:"totalHoursVolunteered"`
}
