package catalog

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/balneo/balneo/internal/domain/center"
)

// DefaultDurationMinutes is assumed when a booking references a service that
// is missing from the catalog.
const DefaultDurationMinutes = 60

// ResolutionMode records which rule produced a lane affinity.
type ResolutionMode string

const (
	// ModeService: the service row pins its own lanes.
	ModeService ResolutionMode = "service"
	// ModeGroup: the treatment group pins lanes.
	ModeGroup ResolutionMode = "group"
	// ModeAllowed: lanes restricted by their allowed-group lists.
	ModeAllowed ResolutionMode = "allowed"
	// ModePositional: legacy name-based heuristic over lane positions.
	ModePositional ResolutionMode = "positional"
	// ModeAll: no affinity, every active lane is a candidate.
	ModeAll ResolutionMode = "all"
)

// Resolution is the outcome of resolving a service to candidate lanes within
// one center. Specific means the service carries a real affinity: when the
// resolved lanes are full the booking fails instead of spilling onto other
// lanes.
type Resolution struct {
	LaneIDs         []uuid.UUID
	Specific        bool
	Mode            ResolutionMode
	DurationMinutes int
}

// Contains reports whether laneID is among the resolved candidates.
func (r Resolution) Contains(laneID uuid.UUID) bool {
	for _, id := range r.LaneIDs {
		if id == laneID {
			return true
		}
	}
	return false
}

// ResolveLanes maps a service to its candidate lanes within a center. Rules
// apply in precedence order:
//
//  1. lanes pinned on the service row
//  2. lanes pinned on the treatment group (including the legacy single-lane column)
//  3. lanes whose allowed-group restriction admits the service's group, when
//     that actually narrows the set
//  4. positional heuristic from the group name, for catalogs predating
//     explicit affinity
//
// Otherwise every active lane is a candidate with no affinity. svc may be nil
// for bookings that reference a service deleted from the catalog; those get a
// default duration and no affinity.
func ResolveLanes(logger zerolog.Logger, svc *Service, group *TreatmentGroup, lanes []*center.Lane) Resolution {
	sorted := make([]*center.Lane, len(lanes))
	copy(sorted, lanes)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Position != sorted[j].Position {
			return sorted[i].Position < sorted[j].Position
		}
		return sorted[i].Name < sorted[j].Name
	})

	all := make([]uuid.UUID, 0, len(sorted))
	byID := make(map[uuid.UUID]bool, len(sorted))
	for _, l := range sorted {
		all = append(all, l.ID)
		byID[l.ID] = true
	}

	if svc == nil {
		return Resolution{LaneIDs: all, Mode: ModeAll, DurationMinutes: DefaultDurationMinutes}
	}

	duration := svc.DurationMinutes
	if duration <= 0 {
		duration = DefaultDurationMinutes
	}

	// 1. Service-level pinning, narrowed to lanes that exist in this center.
	if ids := intersect(svc.LaneIDs, byID); len(ids) > 0 {
		return Resolution{LaneIDs: ids, Specific: true, Mode: ModeService, DurationMinutes: duration}
	}

	// 2. Group-level pinning.
	if group != nil {
		if ids := intersect(group.AffinityLaneIDs(), byID); len(ids) > 0 {
			return Resolution{LaneIDs: ids, Specific: true, Mode: ModeGroup, DurationMinutes: duration}
		}
	}

	// 3. Allowed-group restrictions on the lanes themselves.
	if svc.GroupID != nil {
		var allowed []uuid.UUID
		for _, l := range sorted {
			if l.AllowsGroup(*svc.GroupID) {
				allowed = append(allowed, l.ID)
			}
		}
		if len(allowed) > 0 && len(allowed) < len(all) {
			return Resolution{LaneIDs: allowed, Specific: true, Mode: ModeAllowed, DurationMinutes: duration}
		}
	}

	// 4. Positional heuristic for catalogs without explicit affinity.
	if group != nil {
		if ids := positionalLanes(group.Name, sorted); len(ids) > 0 {
			logger.Warn().
				Str("service_id", svc.ID.String()).
				Str("group", group.Name).
				Msg("lane affinity resolved by positional heuristic; set explicit lane_ids on the group")
			return Resolution{LaneIDs: ids, Specific: true, Mode: ModePositional, DurationMinutes: duration}
		}
	}

	return Resolution{LaneIDs: all, Mode: ModeAll, DurationMinutes: duration}
}

func intersect(ids []uuid.UUID, byID map[uuid.UUID]bool) []uuid.UUID {
	var out []uuid.UUID
	for _, id := range ids {
		if byID[id] {
			out = append(out, id)
		}
	}
	return out
}

// positionalLanes encodes the historical floor layout: treatment rooms first,
// then the ritual room, then the four-hands room.
func positionalLanes(groupName string, sorted []*center.Lane) []uuid.UUID {
	name := strings.ToLower(groupName)
	switch {
	case strings.Contains(name, "cuatro manos"):
		if len(sorted) > 3 {
			return []uuid.UUID{sorted[3].ID}
		}
	case strings.Contains(name, "ritual"):
		if len(sorted) > 2 {
			return []uuid.UUID{sorted[2].ID}
		}
	case strings.Contains(name, "tratamiento"):
		if len(sorted) >= 2 {
			return []uuid.UUID{sorted[0].ID, sorted[1].ID}
		}
		if len(sorted) == 1 {
			return []uuid.UUID{sorted[0].ID}
		}
	}
	return nil
}
