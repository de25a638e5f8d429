package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
)

type mockServiceRepo struct {
	services map[uuid.UUID]*Service
}

func newMockServiceRepo() *mockServiceRepo {
	return &mockServiceRepo{services: make(map[uuid.UUID]*Service)}
}

func (m *mockServiceRepo) Create(_ context.Context, s *Service) error {
	s.ID = uuid.New()
	m.services[s.ID] = s
	return nil
}

func (m *mockServiceRepo) GetByID(_ context.Context, id uuid.UUID) (*Service, error) {
	s, ok := m.services[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return s, nil
}

func (m *mockServiceRepo) Update(_ context.Context, s *Service) error {
	if _, ok := m.services[s.ID]; !ok {
		return fmt.Errorf("not found")
	}
	m.services[s.ID] = s
	return nil
}

func (m *mockServiceRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	s, ok := m.services[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	s.Active = false
	return nil
}

func (m *mockServiceRepo) ListForCenter(_ context.Context, centerID uuid.UUID, limit, offset int) ([]*Service, int, error) {
	var items []*Service
	for _, s := range m.services {
		if !s.Active {
			continue
		}
		if s.CenterID == nil || *s.CenterID == centerID {
			items = append(items, s)
		}
	}
	return items, len(items), nil
}

type mockGroupRepo struct {
	groups map[uuid.UUID]*TreatmentGroup
}

func newMockGroupRepo() *mockGroupRepo {
	return &mockGroupRepo{groups: make(map[uuid.UUID]*TreatmentGroup)}
}

func (m *mockGroupRepo) Create(_ context.Context, g *TreatmentGroup) error {
	g.ID = uuid.New()
	m.groups[g.ID] = g
	return nil
}

func (m *mockGroupRepo) GetByID(_ context.Context, id uuid.UUID) (*TreatmentGroup, error) {
	g, ok := m.groups[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return g, nil
}

func (m *mockGroupRepo) Update(_ context.Context, g *TreatmentGroup) error {
	if _, ok := m.groups[g.ID]; !ok {
		return fmt.Errorf("not found")
	}
	m.groups[g.ID] = g
	return nil
}

func (m *mockGroupRepo) List(_ context.Context) ([]*TreatmentGroup, error) {
	var items []*TreatmentGroup
	for _, g := range m.groups {
		items = append(items, g)
	}
	return items, nil
}

func newTestCatalog() (*CatalogService, *mockServiceRepo, *mockGroupRepo) {
	services := newMockServiceRepo()
	groups := newMockGroupRepo()
	return NewCatalogService(services, groups), services, groups
}

func TestCreateService(t *testing.T) {
	svc, _, groups := newTestCatalog()
	ctx := context.Background()

	g := &TreatmentGroup{Name: "Masajes"}
	groups.Create(ctx, g)

	s := &Service{Name: "Masaje relajante", DurationMinutes: 50, PriceCents: 6500, GroupID: &g.ID}
	if err := svc.CreateService(ctx, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Active {
		t.Error("new service should be active")
	}
}

func TestCreateService_Validation(t *testing.T) {
	svc, _, _ := newTestCatalog()
	ctx := context.Background()

	cases := []struct {
		name string
		in   *Service
	}{
		{"missing name", &Service{DurationMinutes: 50}},
		{"zero duration", &Service{Name: "x", DurationMinutes: 0}},
		{"negative duration", &Service{Name: "x", DurationMinutes: -30}},
		{"off-grid duration", &Service{Name: "x", DurationMinutes: 47}},
		{"negative price", &Service{Name: "x", DurationMinutes: 30, PriceCents: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := svc.CreateService(ctx, tc.in); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	unknown := uuid.New()
	s := &Service{Name: "x", DurationMinutes: 30, GroupID: &unknown}
	if err := svc.CreateService(ctx, s); err == nil {
		t.Error("expected error for unknown group")
	}
}

func TestDeactivateService_HiddenFromListing(t *testing.T) {
	svc, services, _ := newTestCatalog()
	ctx := context.Background()
	centerID := uuid.New()

	s := &Service{Name: "Ritual de spa", DurationMinutes: 90, CenterID: &centerID}
	if err := svc.CreateService(ctx, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.DeactivateService(ctx, s.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items, _, _ := services.ListForCenter(ctx, centerID, 20, 0)
	if len(items) != 0 {
		t.Errorf("deactivated service should not be listed, got %d", len(items))
	}
}

func TestAffinityLaneIDs(t *testing.T) {
	l1, l2 := uuid.New(), uuid.New()

	both := &TreatmentGroup{LaneIDs: []uuid.UUID{l1}, LaneID: &l2}
	if ids := both.AffinityLaneIDs(); len(ids) != 1 || ids[0] != l1 {
		t.Errorf("lane_ids should supersede legacy lane_id, got %v", ids)
	}

	legacy := &TreatmentGroup{LaneID: &l2}
	if ids := legacy.AffinityLaneIDs(); len(ids) != 1 || ids[0] != l2 {
		t.Errorf("legacy lane_id should be folded in, got %v", ids)
	}

	none := &TreatmentGroup{}
	if ids := none.AffinityLaneIDs(); ids != nil {
		t.Errorf("expected nil affinity, got %v", ids)
	}
}
