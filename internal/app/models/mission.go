package models

import "time"

// Mission represents a scheduled volunteering event with fixed capacity.
// CurrentParticipants is a denormalized counter maintained solely through the
// conditional increment/decrement statements in MissionRepository; it is never
// written by client-computed arithmetic.
type Mission struct {
	ID                  int64           `json:"id" db:"id"`
	Title               string          `json:"title" db:"title"`
	Description         string          `json:"description" db:"description"`
	Category            MissionCategory `json:"category" db:"category"`
	Location            string          `json:"location" db:"location"`
	Date                time.Time       `json:"date" db:"date"`
	DurationHours       int             `json:"durationHours" db:"duration_hours"`
	MaxParticipants     int             `json:"maxParticipants" db:"max_participants"`
	CurrentParticipants int             `json:"currentParticipants" db:"current_participants"`
	ImageURL            *string         `json:"imageUrl,omitempty" db:"image_url"`
	OrganizerID         int64           `json:"organizerId" db:"organizer_id"`
	CreatedAt           time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time       `json:"updatedAt" db:"updated_at"`
}

// SpotsLeft returns the remaining capacity
func (m *Mission) SpotsLeft() int {
	left := m.MaxParticipants - m.CurrentParticipants
	if left < 0 {
		return 0
	}
	return left
}

// IsFull reports whether the mission has reached capacity
func (m *Mission) IsFull() bool {
	return m.CurrentParticipants >= m.MaxParticipants
}
