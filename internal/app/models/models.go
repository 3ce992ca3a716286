package models

// MissionCategory defines the kind of environmental mission
type MissionCategory string

const (
	CategoryCleanup   MissionCategory = "cleanup"
	CategoryPlanting  MissionCategory = "planting"
	CategoryWorkshop  MissionCategory = "workshop"
	CategoryAwareness MissionCategory = "awareness"
	CategoryRecycling MissionCategory = "recycling"
)

// ValidCategory reports whether the category is one of the known values
func ValidCategory(c MissionCategory) bool {
	switch c {
	case CategoryCleanup, CategoryPlanting, CategoryWorkshop, CategoryAwareness, CategoryRecycling:
		return true
	}
	return false
}

// ParticipationStatus defines the lifecycle state of a participation
type ParticipationStatus string

const (
	StatusEnrolled  ParticipationStatus = "enrolled"
	StatusCancelled ParticipationStatus = "cancelled"
	StatusCompleted ParticipationStatus = "completed"
)
