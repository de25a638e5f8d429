package center

import (
	"time"

	"github.com/google/uuid"
)

// Center is a physical location guests book treatments at. Open and close
// times bound the daily booking window, interpreted in the center's timezone.
type Center struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" validate:"required"`
	Timezone  string    `json:"timezone" db:"timezone"`
	OpenTime  string    `json:"open_time" db:"open_time"`
	CloseTime string    `json:"close_time" db:"close_time"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Lane is a bookable room or station within a center. Capacity is the number
// of simultaneous bookings it admits. BlockedUntil hides the lane from
// availability until the given instant; AllowedGroupIDs, when non-empty,
// restricts the lane to services of those treatment groups.
type Lane struct {
	ID              uuid.UUID   `json:"id" db:"id"`
	CenterID        uuid.UUID   `json:"center_id" db:"center_id" validate:"required"`
	Name            string      `json:"name" db:"name" validate:"required"`
	Position        int         `json:"position" db:"position"`
	Capacity        int         `json:"capacity" db:"capacity"`
	Active          bool        `json:"active" db:"active"`
	BlockedUntil    *time.Time  `json:"blocked_until,omitempty" db:"blocked_until"`
	AllowedGroupIDs []uuid.UUID `json:"allowed_group_ids,omitempty" db:"allowed_group_ids"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

// Blocked reports whether the lane is administratively hidden at t.
func (l *Lane) Blocked(t time.Time) bool {
	return l.BlockedUntil != nil && t.Before(*l.BlockedUntil)
}

// AllowsGroup reports whether the lane may host services of the given
// treatment group. An empty restriction list allows every group.
func (l *Lane) AllowsGroup(groupID uuid.UUID) bool {
	if len(l.AllowedGroupIDs) == 0 {
		return true
	}
	for _, id := range l.AllowedGroupIDs {
		if id == groupID {
			return true
		}
	}
	return false
}

// LaneBlock is a scheduled maintenance or hold window on a lane. Bookings
// overlapping an active block are rejected.
type LaneBlock struct {
	ID        uuid.UUID `json:"id" db:"id"`
	LaneID    uuid.UUID `json:"lane_id" db:"lane_id" validate:"required"`
	CenterID  uuid.UUID `json:"center_id" db:"center_id" validate:"required"`
	StartTime time.Time `json:"start_time" db:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" db:"end_time" validate:"required"`
	Reason    *string   `json:"reason,omitempty" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Overlaps reports whether the block intersects the half-open range
// [start, end).
func (b *LaneBlock) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && b.EndTime.After(start)
}

// Employee is a staff member who can be assigned to bookings.
type Employee struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CenterID  uuid.UUID `json:"center_id" db:"center_id" validate:"required"`
	Name      string    `json:"name" db:"name" validate:"required"`
	Role      *string   `json:"role,omitempty" db:"role"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
