package booking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/balneo/balneo/internal/domain/catalog"
	"github.com/balneo/balneo/internal/domain/center"
)

// -- In-memory collaborators --

type mockCenterDir struct {
	center    *center.Center
	lanes     []*center.Lane
	blocks    []*center.LaneBlock
	employees []*center.Employee
}

func (m *mockCenterDir) GetCenter(_ context.Context, id uuid.UUID) (*center.Center, error) {
	if m.center == nil || m.center.ID != id {
		return nil, fmt.Errorf("not found")
	}
	return m.center, nil
}

func (m *mockCenterDir) ListLanes(_ context.Context, centerID uuid.UUID, activeOnly bool) ([]*center.Lane, error) {
	var out []*center.Lane
	for _, l := range m.lanes {
		if l.CenterID != centerID {
			continue
		}
		if activeOnly && !l.Active {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (m *mockCenterDir) ListLaneBlocks(_ context.Context, centerID uuid.UUID, start, end time.Time) ([]*center.LaneBlock, error) {
	var out []*center.LaneBlock
	for _, b := range m.blocks {
		if b.CenterID == centerID && b.Overlaps(start, end) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockCenterDir) ListEmployees(_ context.Context, centerID uuid.UUID, activeOnly bool) ([]*center.Employee, error) {
	var out []*center.Employee
	for _, e := range m.employees {
		if e.CenterID != centerID {
			continue
		}
		if activeOnly && !e.Active {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

type mockCatalog struct {
	services map[uuid.UUID]*catalog.Service
	groups   map[uuid.UUID]*catalog.TreatmentGroup
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		services: make(map[uuid.UUID]*catalog.Service),
		groups:   make(map[uuid.UUID]*catalog.TreatmentGroup),
	}
}

func (m *mockCatalog) GetService(_ context.Context, id uuid.UUID) (*catalog.Service, error) {
	s, ok := m.services[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return s, nil
}

func (m *mockCatalog) GetGroup(_ context.Context, id uuid.UUID) (*catalog.TreatmentGroup, error) {
	g, ok := m.groups[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return g, nil
}

// mockRepo mirrors the conditional-insert semantics of the real store: the
// occupancy recount happens against its current contents. Like the real
// store it tolerates concurrent callers.
type mockRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*Booking
	failNext bool
	listErr  error
}

func newMockRepo() *mockRepo {
	return &mockRepo{bookings: make(map[uuid.UUID]*Booking)}
}

func (m *mockRepo) InsertIfAvailable(_ context.Context, b *Booking, capacity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return ErrConflict
	}
	bufferedStart := b.BookingDatetime.Add(-PrepBuffer)
	bufferedEnd := b.End().Add(PrepBuffer)
	count := 0
	for _, existing := range m.bookings {
		if existing.LaneID == b.LaneID && existing.Active() && existing.Overlaps(bufferedStart, bufferedEnd) {
			count++
		}
	}
	if count >= capacity {
		return ErrConflict
	}
	b.ID = uuid.New()
	m.bookings[b.ID] = b
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return ErrNotFound
	}
	b.Status = status
	return nil
}

func (m *mockRepo) SetPaymentStatus(_ context.Context, id uuid.UUID, status PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return ErrNotFound
	}
	b.PaymentStatus = status
	return nil
}

func (m *mockRepo) ListActiveByCenterAndRange(_ context.Context, centerID uuid.UUID, start, end time.Time) ([]*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*Booking
	for _, b := range m.bookings {
		if b.CenterID == centerID && b.Active() && b.Overlaps(start, end) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockRepo) ListByCenter(_ context.Context, centerID uuid.UUID, start, end time.Time, status *Status, limit, offset int) ([]*Booking, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Booking
	for _, b := range m.bookings {
		if b.CenterID != centerID || b.BookingDatetime.Before(start) || !b.BookingDatetime.Before(end) {
			continue
		}
		if status != nil && b.Status != *status {
			continue
		}
		out = append(out, b)
	}
	return out, len(out), nil
}

// -- Fixture --

type fixture struct {
	svc     *Service
	repo    *mockRepo
	dir     *mockCenterDir
	catalog *mockCatalog
	center  *center.Center
}

func newFixture(laneCount int) *fixture {
	c := &center.Center{
		ID:        uuid.New(),
		Name:      "Balneo Centro",
		Timezone:  "UTC",
		OpenTime:  "10:00",
		CloseTime: "22:00",
		Active:    true,
	}
	dir := &mockCenterDir{center: c}
	for i := 0; i < laneCount; i++ {
		dir.lanes = append(dir.lanes, &center.Lane{
			ID:       uuid.New(),
			CenterID: c.ID,
			Name:     fmt.Sprintf("Cabina %d", i+1),
			Position: i + 1,
			Capacity: 1,
			Active:   true,
		})
	}
	repo := newMockRepo()
	cat := newMockCatalog()
	svc := NewService(repo, dir, cat, zerolog.New(io.Discard)).
		WithClock(func() time.Time { return time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC) }).
		WithRand(rand.New(rand.NewSource(1)))
	return &fixture{svc: svc, repo: repo, dir: dir, catalog: cat, center: c}
}

func (f *fixture) addService(duration int, laneIDs ...uuid.UUID) *catalog.Service {
	s := &catalog.Service{
		ID:              uuid.New(),
		Name:            "Masaje",
		DurationMinutes: duration,
		PriceCents:      5000,
		LaneIDs:         laneIDs,
		Active:          true,
	}
	f.catalog.services[s.ID] = s
	return s
}

const testDate = "2026-09-01"

// -- Tests --

func TestCreateBooking_Success(t *testing.T) {
	f := newFixture(2)
	svc := f.addService(60)

	b, err := f.svc.CreateBooking(context.Background(), CreateBookingRequest{
		CenterID:  f.center.ID,
		ServiceID: &svc.ID,
		Date:      testDate,
		Time:      "12:00",
		GuestName: "Ana García",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != StatusPending || b.PaymentStatus != PaymentPending {
		t.Errorf("status = %s/%s, want pending/pending", b.Status, b.PaymentStatus)
	}
	if b.DurationMinutes != 60 {
		t.Errorf("duration = %d, want 60", b.DurationMinutes)
	}
	if b.TotalPriceCents != 5000 {
		t.Errorf("price = %d, want 5000", b.TotalPriceCents)
	}
	if b.LaneID == uuid.Nil {
		t.Error("lane must be assigned")
	}
	if b.ID == uuid.Nil {
		t.Error("booking must be persisted with an id")
	}
}

func TestCreateBooking_AffinityExhaustionFailsClosed(t *testing.T) {
	f := newFixture(3)
	laneA, laneB := f.dir.lanes[0], f.dir.lanes[1]
	svc := f.addService(60, laneA.ID, laneB.ID)

	until := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	laneA.BlockedUntil = &until
	laneB.BlockedUntil = &until
	// lane C stays free, but the service is pinned to A and B

	_, err := f.svc.CreateBooking(context.Background(), CreateBookingRequest{
		CenterID:  f.center.ID,
		ServiceID: &svc.ID,
		Date:      testDate,
		Time:      "12:00",
		GuestName: "Ana García",
	})
	if err != ErrNoAvailability {
		t.Fatalf("err = %v, want ErrNoAvailability", err)
	}
	if len(f.repo.bookings) != 0 {
		t.Error("no booking row may be written on affinity exhaustion")
	}
}

func TestCreateBooking_FallbackOnlyAmongUnblockedLanes(t *testing.T) {
	f := newFixture(3)
	svc := f.addService(60) // no affinity
	blocked := f.dir.lanes[2]
	until := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	blocked.BlockedUntil = &until

	seen := make(map[uuid.UUID]bool)
	for i := 0; i < 40; i++ {
		f.repo.bookings = map[uuid.UUID]*Booking{} // reset ledger each round
		b, err := f.svc.CreateBooking(context.Background(), CreateBookingRequest{
			CenterID:  f.center.ID,
			ServiceID: &svc.ID,
			Date:      testDate,
			Time:      "12:00",
			GuestName: "Ana García",
		})
		if err != nil {
			t.Fatalf("round %d: %v", i, err)
		}
		if b.LaneID == blocked.ID {
			t.Fatal("blocked lane must never be chosen")
		}
		seen[b.LaneID] = true
	}
	if len(seen) != 2 {
		t.Errorf("expected both unblocked lanes to be used, got %d", len(seen))
	}
}

func TestCreateBooking_ConcurrentSubmissions(t *testing.T) {
	f := newFixture(4)
	svc := f.addService(60)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.CreateBooking(context.Background(), CreateBookingRequest{
				CenterID:  f.center.ID,
				ServiceID: &svc.ID,
				Date:      testDate,
				Time:      "12:00",
				GuestName: fmt.Sprintf("Guest %d", i),
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for i, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrNoAvailability), errors.Is(err, ErrConflict):
		default:
			t.Fatalf("submission %d: unexpected error %v", i, err)
		}
	}
	if succeeded == 0 {
		t.Fatal("at least one concurrent submission must land")
	}
	if succeeded > 4 {
		t.Errorf("%d submissions landed on 4 capacity-1 lanes", succeeded)
	}
	if len(f.repo.bookings) != succeeded {
		t.Errorf("ledger holds %d rows, %d submissions succeeded", len(f.repo.bookings), succeeded)
	}
}

func TestCreateBooking_OutsideOperatingWindow(t *testing.T) {
	f := newFixture(1)
	svc := f.addService(60)

	for _, hhmm := range []string{"09:55", "23:55"} {
		_, err := f.svc.CreateBooking(context.Background(), CreateBookingRequest{
			CenterID:  f.center.ID,
			ServiceID: &svc.ID,
			Date:      testDate,
			Time:      hhmm,
			GuestName: "Ana García",
		})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: err = %v, want ErrInvalidInput", hhmm, err)
		}
	}
	if len(f.repo.bookings) != 0 {
		t.Error("no row may be written for out-of-window times")
	}

	// The closing tick is still on the grid.
	if _, err := f.svc.CreateBooking(context.Background(), CreateBookingRequest{
		CenterID:  f.center.ID,
		ServiceID: &svc.ID,
		Date:      testDate,
		Time:      "22:00",
		GuestName: "Ana García",
	}); err != nil {
		t.Fatalf("22:00 should be bookable: %v", err)
	}
}

func TestCreateBooking_PastTime(t *testing.T) {
	f := newFixture(1)
	svc := f.addService(60)
	f.svc.WithClock(func() time.Time { return time.Date(2026, 9, 1, 14, 7, 0, 0, time.UTC) })

	_, err := f.svc.CreateBooking(context.Background(), CreateBookingRequest{
		CenterID:  f.center.ID,
		ServiceID: &svc.ID,
		Date:      testDate,
		Time:      "14:00",
		GuestName: "Ana García",
	})
	if err != ErrPastTime {
		t.Fatalf("err = %v, want ErrPastTime", err)
	}

	if _, err := f.svc.CreateBooking(context.Background(), CreateBookingRequest{
		CenterID:  f.center.ID,
		ServiceID: &svc.ID,
		Date:      testDate,
		Time:      "14:10",
		GuestName: "Ana García",
	}); err != nil {
		t.Fatalf("14:10 should be bookable: %v", err)
	}
}

func TestCreateBooking_ConflictAtInsert(t *testing.T) {
	f := newFixture(1)
	svc := f.addService(60)
	f.repo.failNext = true // simulate losing the race after the pre-check

	_, err := f.svc.CreateBooking(context.Background(), CreateBookingRequest{
		CenterID:  f.center.ID,
		ServiceID: &svc.ID,
		Date:      testDate,
		Time:      "12:00",
		GuestName: "Ana García",
	})
	if err != ErrConflict {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestCreateBooking_CapacityEnforcedAtInsert(t *testing.T) {
	f := newFixture(1)
	svc := f.addService(60)

	req := CreateBookingRequest{
		CenterID:  f.center.ID,
		ServiceID: &svc.ID,
		Date:      testDate,
		Time:      "12:00",
		GuestName: "Ana García",
	}
	if _, err := f.svc.CreateBooking(context.Background(), req); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if _, err := f.svc.CreateBooking(context.Background(), req); err != ErrNoAvailability {
		t.Fatalf("second booking err = %v, want ErrNoAvailability", err)
	}
}

func TestCreateBooking_UnknownServiceDefaults(t *testing.T) {
	f := newFixture(1)
	unknown := uuid.New()

	b, err := f.svc.CreateBooking(context.Background(), CreateBookingRequest{
		CenterID:  f.center.ID,
		ServiceID: &unknown,
		Date:      testDate,
		Time:      "12:00",
		GuestName: "Ana García",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.DurationMinutes != catalog.DefaultDurationMinutes {
		t.Errorf("duration = %d, want default %d", b.DurationMinutes, catalog.DefaultDurationMinutes)
	}
	if b.TotalPriceCents != 0 {
		t.Errorf("price = %d, want 0 for unknown service", b.TotalPriceCents)
	}
}

func TestCreateBooking_AssignsEmployee(t *testing.T) {
	f := newFixture(1)
	svc := f.addService(60)
	active := &center.Employee{ID: uuid.New(), CenterID: f.center.ID, Name: "Lucía", Active: true}
	inactive := &center.Employee{ID: uuid.New(), CenterID: f.center.ID, Name: "Marta", Active: false}
	f.dir.employees = []*center.Employee{active, inactive}

	b, err := f.svc.CreateBooking(context.Background(), CreateBookingRequest{
		CenterID:  f.center.ID,
		ServiceID: &svc.ID,
		Date:      testDate,
		Time:      "12:00",
		GuestName: "Ana García",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.EmployeeID == nil || *b.EmployeeID != active.ID {
		t.Errorf("employee = %v, want the only active employee", b.EmployeeID)
	}
}

func TestCreateBooking_LaneBlockRespected(t *testing.T) {
	f := newFixture(1)
	svc := f.addService(60)
	l := f.dir.lanes[0]
	f.dir.blocks = []*center.LaneBlock{{
		ID:        uuid.New(),
		LaneID:    l.ID,
		CenterID:  f.center.ID,
		StartTime: time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC),
	}}

	_, err := f.svc.CreateBooking(context.Background(), CreateBookingRequest{
		CenterID:  f.center.ID,
		ServiceID: &svc.ID,
		Date:      testDate,
		Time:      "12:30",
		GuestName: "Ana García",
	})
	if err != ErrNoAvailability {
		t.Fatalf("err = %v, want ErrNoAvailability", err)
	}
}

func TestComputeAvailability_EndToEnd(t *testing.T) {
	f := newFixture(1)
	svc := f.addService(60)

	// Seed a noon booking through the service itself.
	if _, err := f.svc.CreateBooking(context.Background(), CreateBookingRequest{
		CenterID:  f.center.ID,
		ServiceID: &svc.ID,
		Date:      testDate,
		Time:      "12:00",
		GuestName: "Ana García",
	}); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	slots, err := f.svc.ComputeAvailability(context.Background(), f.center.ID, testDate, &svc.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s := slotAt(slots, "12:00"); !s.Disabled {
		t.Error("12:00 holds a booking, want disabled")
	}
	if s := slotAt(slots, "13:15"); s.Disabled {
		t.Errorf("13:15 clears the turnaround, want enabled: %+v", s)
	}
	if s := slotAt(slots, "10:45"); s.Disabled {
		t.Errorf("10:45 fits before the booking, want enabled: %+v", s)
	}
}

func TestCancelBookingFreesSlot(t *testing.T) {
	f := newFixture(1)
	svc := f.addService(60)
	req := CreateBookingRequest{
		CenterID:  f.center.ID,
		ServiceID: &svc.ID,
		Date:      testDate,
		Time:      "12:00",
		GuestName: "Ana García",
	}
	b, err := f.svc.CreateBooking(context.Background(), req)
	if err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if err := f.svc.CancelBooking(context.Background(), b.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.svc.CreateBooking(context.Background(), req); err != nil {
		t.Fatalf("slot should be free after cancellation: %v", err)
	}
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	f := newFixture(1)
	if err := f.svc.UpdateStatus(context.Background(), uuid.New(), Status("teleported")); err == nil {
		t.Error("expected validation error")
	}
}
