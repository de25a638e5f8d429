package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Service is a bookable treatment. CenterID is nil for catalog-wide services
// offered at every center. LaneIDs, when set, pins the service to specific
// lanes and takes precedence over group-level affinity.
type Service struct {
	ID              uuid.UUID   `json:"id" db:"id"`
	CenterID        *uuid.UUID  `json:"center_id,omitempty" db:"center_id"`
	Name            string      `json:"name" db:"name" validate:"required"`
	DurationMinutes int         `json:"duration_minutes" db:"duration_minutes" validate:"required,gt=0"`
	PriceCents      int         `json:"price_cents" db:"price_cents" validate:"gte=0"`
	GroupID         *uuid.UUID  `json:"group_id,omitempty" db:"group_id"`
	LaneIDs         []uuid.UUID `json:"lane_ids,omitempty" db:"lane_ids"`
	Active          bool        `json:"active" db:"active"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

// TreatmentGroup categorizes services and can carry its own lane affinity.
// LaneID is the legacy single-lane form kept for older catalog rows; LaneIDs
// supersedes it when present.
type TreatmentGroup struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	Name      string      `json:"name" db:"name" validate:"required"`
	LaneIDs   []uuid.UUID `json:"lane_ids,omitempty" db:"lane_ids"`
	LaneID    *uuid.UUID  `json:"lane_id,omitempty" db:"lane_id"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}

// AffinityLaneIDs returns the group's lane affinity, folding the legacy
// single-lane column into the list form.
func (g *TreatmentGroup) AffinityLaneIDs() []uuid.UUID {
	if len(g.LaneIDs) > 0 {
		return g.LaneIDs
	}
	if g.LaneID != nil {
		return []uuid.UUID{*g.LaneID}
	}
	return nil
}
