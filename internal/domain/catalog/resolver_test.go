package catalog

import (
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/balneo/balneo/internal/domain/center"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func makeLanes(n int) []*center.Lane {
	lanes := make([]*center.Lane, n)
	for i := 0; i < n; i++ {
		lanes[i] = &center.Lane{ID: uuid.New(), Position: i + 1, Capacity: 1, Active: true}
	}
	return lanes
}

func TestResolveLanes_ServicePinningWins(t *testing.T) {
	lanes := makeLanes(4)
	group := &TreatmentGroup{ID: uuid.New(), Name: "Rituales", LaneIDs: []uuid.UUID{lanes[0].ID}}
	svc := &Service{
		ID:              uuid.New(),
		DurationMinutes: 50,
		GroupID:         &group.ID,
		LaneIDs:         []uuid.UUID{lanes[2].ID, lanes[3].ID},
	}

	res := ResolveLanes(testLogger(), svc, group, lanes)
	if res.Mode != ModeService || !res.Specific {
		t.Fatalf("mode = %s specific = %v, want service/true", res.Mode, res.Specific)
	}
	if len(res.LaneIDs) != 2 || !res.Contains(lanes[2].ID) || !res.Contains(lanes[3].ID) {
		t.Errorf("unexpected lanes: %v", res.LaneIDs)
	}
	if res.DurationMinutes != 50 {
		t.Errorf("duration = %d, want 50", res.DurationMinutes)
	}
}

func TestResolveLanes_ServicePinningIgnoresForeignLanes(t *testing.T) {
	lanes := makeLanes(2)
	foreign := uuid.New() // lane from another center
	svc := &Service{ID: uuid.New(), DurationMinutes: 30, LaneIDs: []uuid.UUID{foreign}}

	res := ResolveLanes(testLogger(), svc, nil, lanes)
	if res.Mode == ModeService {
		t.Error("pinning to lanes outside the center should not resolve as service mode")
	}
	if res.Specific {
		t.Error("no usable affinity should leave the resolution non-specific")
	}
}

func TestResolveLanes_GroupPinning(t *testing.T) {
	lanes := makeLanes(3)
	group := &TreatmentGroup{ID: uuid.New(), Name: "Circuitos", LaneIDs: []uuid.UUID{lanes[1].ID}}
	svc := &Service{ID: uuid.New(), DurationMinutes: 60, GroupID: &group.ID}

	res := ResolveLanes(testLogger(), svc, group, lanes)
	if res.Mode != ModeGroup || !res.Specific {
		t.Fatalf("mode = %s specific = %v, want group/true", res.Mode, res.Specific)
	}
	if len(res.LaneIDs) != 1 || res.LaneIDs[0] != lanes[1].ID {
		t.Errorf("unexpected lanes: %v", res.LaneIDs)
	}
}

func TestResolveLanes_LegacySingleLaneColumn(t *testing.T) {
	lanes := makeLanes(3)
	group := &TreatmentGroup{ID: uuid.New(), Name: "Circuitos", LaneID: &lanes[2].ID}
	svc := &Service{ID: uuid.New(), DurationMinutes: 60, GroupID: &group.ID}

	res := ResolveLanes(testLogger(), svc, group, lanes)
	if res.Mode != ModeGroup {
		t.Fatalf("mode = %s, want group", res.Mode)
	}
	if len(res.LaneIDs) != 1 || res.LaneIDs[0] != lanes[2].ID {
		t.Errorf("legacy lane_id column should resolve: %v", res.LaneIDs)
	}
}

func TestResolveLanes_AllowedGroupRestriction(t *testing.T) {
	lanes := makeLanes(3)
	groupID := uuid.New()
	otherGroup := uuid.New()
	lanes[0].AllowedGroupIDs = []uuid.UUID{groupID}
	lanes[1].AllowedGroupIDs = []uuid.UUID{otherGroup}
	// lanes[2] unrestricted

	group := &TreatmentGroup{ID: groupID, Name: "Masajes"}
	svc := &Service{ID: uuid.New(), DurationMinutes: 45, GroupID: &groupID}

	res := ResolveLanes(testLogger(), svc, group, lanes)
	if res.Mode != ModeAllowed || !res.Specific {
		t.Fatalf("mode = %s specific = %v, want allowed/true", res.Mode, res.Specific)
	}
	if len(res.LaneIDs) != 2 || !res.Contains(lanes[0].ID) || !res.Contains(lanes[2].ID) {
		t.Errorf("unexpected lanes: %v", res.LaneIDs)
	}
}

func TestResolveLanes_AllowedGroupNoNarrowingFallsThrough(t *testing.T) {
	// No lane carries a restriction, so the allowed set equals the full set
	// and must not be treated as an affinity.
	lanes := makeLanes(2)
	groupID := uuid.New()
	group := &TreatmentGroup{ID: groupID, Name: "Masajes"}
	svc := &Service{ID: uuid.New(), DurationMinutes: 45, GroupID: &groupID}

	res := ResolveLanes(testLogger(), svc, group, lanes)
	if res.Mode != ModeAll || res.Specific {
		t.Errorf("mode = %s specific = %v, want all/false", res.Mode, res.Specific)
	}
}

func TestResolveLanes_PositionalHeuristic(t *testing.T) {
	lanes := makeLanes(4)
	svcID := uuid.New()

	cases := []struct {
		groupName string
		wantLanes []uuid.UUID
	}{
		{"Tratamientos faciales", []uuid.UUID{lanes[0].ID, lanes[1].ID}},
		{"Ritual de spa", []uuid.UUID{lanes[2].ID}},
		{"Masaje cuatro manos", []uuid.UUID{lanes[3].ID}},
	}
	for _, tc := range cases {
		t.Run(tc.groupName, func(t *testing.T) {
			group := &TreatmentGroup{ID: uuid.New(), Name: tc.groupName}
			svc := &Service{ID: svcID, DurationMinutes: 60, GroupID: &group.ID}
			res := ResolveLanes(testLogger(), svc, group, lanes)
			if res.Mode != ModePositional || !res.Specific {
				t.Fatalf("mode = %s specific = %v, want positional/true", res.Mode, res.Specific)
			}
			if len(res.LaneIDs) != len(tc.wantLanes) {
				t.Fatalf("got %d lanes, want %d", len(res.LaneIDs), len(tc.wantLanes))
			}
			for _, id := range tc.wantLanes {
				if !res.Contains(id) {
					t.Errorf("missing lane %s", id)
				}
			}
		})
	}
}

func TestResolveLanes_PositionalHeuristicTooFewLanes(t *testing.T) {
	lanes := makeLanes(2) // no lane at position 3 or 4
	group := &TreatmentGroup{ID: uuid.New(), Name: "Ritual de spa"}
	svc := &Service{ID: uuid.New(), DurationMinutes: 60, GroupID: &group.ID}

	res := ResolveLanes(testLogger(), svc, group, lanes)
	if res.Mode != ModeAll || res.Specific {
		t.Errorf("mode = %s specific = %v, want all/false", res.Mode, res.Specific)
	}
}

func TestResolveLanes_OrderedByPosition(t *testing.T) {
	// Lanes arrive unsorted; the heuristic must use layout positions.
	a := &center.Lane{ID: uuid.New(), Position: 2, Name: "Cabina 2"}
	b := &center.Lane{ID: uuid.New(), Position: 1, Name: "Cabina 1"}
	c := &center.Lane{ID: uuid.New(), Position: 3, Name: "Sala Ritual"}
	group := &TreatmentGroup{ID: uuid.New(), Name: "Ritual nocturno"}
	svc := &Service{ID: uuid.New(), DurationMinutes: 60, GroupID: &group.ID}

	res := ResolveLanes(testLogger(), svc, group, []*center.Lane{a, b, c})
	if len(res.LaneIDs) != 1 || res.LaneIDs[0] != c.ID {
		t.Errorf("expected the position-3 lane, got %v", res.LaneIDs)
	}
}

func TestResolveLanes_UnknownService(t *testing.T) {
	lanes := makeLanes(3)
	res := ResolveLanes(testLogger(), nil, nil, lanes)
	if res.Mode != ModeAll || res.Specific {
		t.Fatalf("mode = %s specific = %v, want all/false", res.Mode, res.Specific)
	}
	if res.DurationMinutes != DefaultDurationMinutes {
		t.Errorf("duration = %d, want default %d", res.DurationMinutes, DefaultDurationMinutes)
	}
	if len(res.LaneIDs) != 3 {
		t.Errorf("expected all lanes as candidates, got %v", res.LaneIDs)
	}
}

func TestResolveLanes_NoLanes(t *testing.T) {
	svc := &Service{ID: uuid.New(), DurationMinutes: 60}
	res := ResolveLanes(testLogger(), svc, nil, nil)
	if len(res.LaneIDs) != 0 || res.Specific {
		t.Errorf("empty center should yield no candidates: %+v", res)
	}
}
