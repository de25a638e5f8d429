package booking

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/balneo/balneo/internal/domain/catalog"
	"github.com/balneo/balneo/internal/domain/center"
)

// CenterDirectory is the slice of center data the booking flow reads.
// Satisfied by *center.Service.
type CenterDirectory interface {
	GetCenter(ctx context.Context, id uuid.UUID) (*center.Center, error)
	ListLanes(ctx context.Context, centerID uuid.UUID, activeOnly bool) ([]*center.Lane, error)
	ListLaneBlocks(ctx context.Context, centerID uuid.UUID, start, end time.Time) ([]*center.LaneBlock, error)
	ListEmployees(ctx context.Context, centerID uuid.UUID, activeOnly bool) ([]*center.Employee, error)
}

// CatalogReader is the slice of the treatment catalog the booking flow reads.
// Satisfied by *catalog.CatalogService.
type CatalogReader interface {
	GetService(ctx context.Context, id uuid.UUID) (*catalog.Service, error)
	GetGroup(ctx context.Context, id uuid.UUID) (*catalog.TreatmentGroup, error)
}

type Service struct {
	repo    Repository
	centers CenterDirectory
	catalog CatalogReader
	logger  zerolog.Logger
	rngMu   sync.Mutex
	rng     *rand.Rand
	nowFn   func() time.Time
}

func NewService(repo Repository, centers CenterDirectory, cat CatalogReader, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		centers: centers,
		catalog: cat,
		logger:  logger,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		nowFn:   time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.nowFn = now
	return s
}

// WithRand overrides the randomness source used for fallback lane and
// employee assignment. Test hook.
func (s *Service) WithRand(r *rand.Rand) *Service {
	s.rng = r
	return s
}

// intn serializes draws from the shared randomness source. rand.Rand is not
// safe for concurrent use and handlers run on concurrent goroutines.
func (s *Service) intn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

// dayContext is the per-request snapshot availability and assignment run
// against.
type dayContext struct {
	center     *center.Center
	lanes      []*center.Lane
	blocks     []*center.LaneBlock
	bookings   []*Booking
	resolution catalog.Resolution
	dayStart   time.Time
	open       time.Time
	close      time.Time
	loc        *time.Location
}

func (s *Service) loadDay(ctx context.Context, centerID uuid.UUID, date string, serviceID *uuid.UUID) (*dayContext, error) {
	c, err := s.centers.GetCenter(ctx, centerID)
	if err != nil {
		return nil, fmt.Errorf("%w: center %s", ErrNotFound, centerID)
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("center has invalid timezone %q: %w", c.Timezone, err)
	}
	dayStart, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, date)
	}

	open, err := atClock(dayStart, c.OpenTime)
	if err != nil {
		return nil, fmt.Errorf("center has invalid open_time: %w", err)
	}
	close, err := atClock(dayStart, c.CloseTime)
	if err != nil {
		return nil, fmt.Errorf("center has invalid close_time: %w", err)
	}

	lanes, err := s.centers.ListLanes(ctx, centerID, true)
	if err != nil {
		return nil, err
	}

	// A service deleted from the catalog is not fatal: the resolver falls
	// back to a default duration and an unrestricted lane set.
	var svc *catalog.Service
	var group *catalog.TreatmentGroup
	if serviceID != nil {
		if svc, err = s.catalog.GetService(ctx, *serviceID); err != nil {
			s.logger.Warn().Str("service_id", serviceID.String()).Msg("booking references unknown service")
			svc = nil
		}
		if svc != nil && svc.GroupID != nil {
			if group, err = s.catalog.GetGroup(ctx, *svc.GroupID); err != nil {
				group = nil
			}
		}
	}
	resolution := catalog.ResolveLanes(s.logger, svc, group, lanes)

	// Bookings and blocks are fetched a little beyond the operating window
	// so buffered comparisons near the edges see their neighbors.
	margin := 2 * time.Hour
	blocks, err := s.centers.ListLaneBlocks(ctx, centerID, open.Add(-margin), close.Add(margin))
	if err != nil {
		return nil, err
	}
	bookings, err := s.repo.ListActiveByCenterAndRange(ctx, centerID, open.Add(-margin), close.Add(margin))
	if err != nil {
		return nil, err
	}

	return &dayContext{
		center:     c,
		lanes:      lanes,
		blocks:     blocks,
		bookings:   bookings,
		resolution: resolution,
		dayStart:   dayStart,
		open:       open,
		close:      close,
		loc:        loc,
	}, nil
}

func atClock(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute), nil
}

// ComputeAvailability returns the slot grid for one center, date and service.
// Pure over the fetched snapshot: rerunning with unchanged state yields the
// same grid.
func (s *Service) ComputeAvailability(ctx context.Context, centerID uuid.UUID, date string, serviceID *uuid.UUID) ([]TimeSlot, error) {
	day, err := s.loadDay(ctx, centerID, date, serviceID)
	if err != nil {
		return nil, err
	}

	candidates := lanesByID(day.lanes, day.resolution.LaneIDs)
	return ComputeSlots(AvailabilityInput{
		Open:            day.open,
		Close:           day.close,
		Now:             s.nowFn().In(day.loc),
		DurationMinutes: day.resolution.DurationMinutes,
		CandidateLanes:  candidates,
		Blocks:          day.blocks,
		Bookings:        day.bookings,
	}), nil
}

// CreateBookingRequest is the submission payload for a new appointment.
type CreateBookingRequest struct {
	CenterID   uuid.UUID  `json:"center_id" validate:"required"`
	ServiceID  *uuid.UUID `json:"service_id"`
	Date       string     `json:"date" validate:"required,datetime=2006-01-02"`
	Time       string     `json:"time" validate:"required"`
	GuestName  string     `json:"guest_name" validate:"required"`
	GuestEmail *string    `json:"guest_email" validate:"omitempty,email"`
	GuestPhone *string    `json:"guest_phone"`
	Notes      *string    `json:"notes"`
}

// CreateBooking is the authoritative assignment step. The lane set is
// re-resolved against the center's current lanes, a concrete lane and
// employee are chosen, and the insert is conditional on a capacity recount,
// so a slot that looked free during rendering can still fail here.
func (s *Service) CreateBooking(ctx context.Context, req CreateBookingRequest) (*Booking, error) {
	if req.GuestName == "" {
		return nil, fmt.Errorf("%w: guest_name is required", ErrInvalidInput)
	}

	day, err := s.loadDay(ctx, req.CenterID, req.Date, req.ServiceID)
	if err != nil {
		return nil, err
	}
	start, err := atClock(day.dayStart, req.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: time %q must be HH:MM", ErrInvalidInput, req.Time)
	}
	// The availability grid never offers ticks outside the operating window.
	if start.Before(day.open) || start.After(day.close) {
		return nil, fmt.Errorf("%w: time %s is outside the %s-%s window",
			ErrInvalidInput, req.Time, day.center.OpenTime, day.center.CloseTime)
	}

	now := s.nowFn().In(day.loc)
	if sameDay(start, now) && start.Before(now) {
		return nil, ErrPastTime
	}

	lane, err := s.pickLane(day, start)
	if err != nil {
		return nil, err
	}

	b := &Booking{
		CenterID:        req.CenterID,
		LaneID:          lane.ID,
		ServiceID:       req.ServiceID,
		GuestName:       req.GuestName,
		GuestEmail:      req.GuestEmail,
		GuestPhone:      req.GuestPhone,
		BookingDatetime: start,
		DurationMinutes: day.resolution.DurationMinutes,
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		Notes:           req.Notes,
	}

	if req.ServiceID != nil {
		if svc, err := s.catalog.GetService(ctx, *req.ServiceID); err == nil {
			b.TotalPriceCents = svc.PriceCents
		}
	}

	if emp := s.pickEmployee(ctx, req.CenterID); emp != nil {
		b.EmployeeID = &emp.ID
	}

	if err := s.repo.InsertIfAvailable(ctx, b, lane.Capacity); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("booking_id", b.ID.String()).
		Str("lane_id", lane.ID.String()).
		Str("mode", string(day.resolution.Mode)).
		Time("start", start).
		Msg("booking created")
	return b, nil
}

// pickLane chooses the concrete lane for a slot. A specific affinity fails
// closed: when every resolved lane is unavailable the booking is refused
// rather than spilled onto a lane meant for other treatments. Without
// affinity the choice is uniformly random among lanes not blocked at the
// slot.
func (s *Service) pickLane(day *dayContext, start time.Time) (*center.Lane, error) {
	duration := time.Duration(day.resolution.DurationMinutes) * time.Minute
	end := start.Add(duration)
	bufferedStart := start.Add(-PrepBuffer)
	bufferedEnd := end.Add(PrepBuffer)

	blocksByLane := make(map[uuid.UUID][]*center.LaneBlock)
	for _, b := range day.blocks {
		blocksByLane[b.LaneID] = append(blocksByLane[b.LaneID], b)
	}
	bookingsByLane := make(map[uuid.UUID][]*Booking)
	for _, b := range day.bookings {
		if b.Active() {
			bookingsByLane[b.LaneID] = append(bookingsByLane[b.LaneID], b)
		}
	}

	if day.resolution.Specific {
		for _, lane := range lanesByID(day.lanes, day.resolution.LaneIDs) {
			if laneFree(lane, start, end, bufferedStart, bufferedEnd, blocksByLane[lane.ID], bookingsByLane[lane.ID]) {
				return lane, nil
			}
		}
		return nil, ErrNoAvailability
	}

	var free []*center.Lane
	for _, lane := range lanesByID(day.lanes, day.resolution.LaneIDs) {
		if laneFree(lane, start, end, bufferedStart, bufferedEnd, blocksByLane[lane.ID], bookingsByLane[lane.ID]) {
			free = append(free, lane)
		}
	}
	if len(free) == 0 {
		return nil, ErrNoAvailability
	}
	return free[s.intn(len(free))], nil
}

func (s *Service) pickEmployee(ctx context.Context, centerID uuid.UUID) *center.Employee {
	employees, err := s.centers.ListEmployees(ctx, centerID, true)
	if err != nil || len(employees) == 0 {
		return nil
	}
	return employees[s.intn(len(employees))]
}

func lanesByID(lanes []*center.Lane, ids []uuid.UUID) []*center.Lane {
	byID := make(map[uuid.UUID]*center.Lane, len(lanes))
	for _, l := range lanes {
		byID[l.ID] = l
	}
	out := make([]*center.Lane, 0, len(ids))
	for _, id := range ids {
		if l, ok := byID[id]; ok {
			out = append(out, l)
		}
	}
	return out
}

// -- Reads and status transitions --

func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListBookings(ctx context.Context, centerID uuid.UUID, start, end time.Time, status *Status, limit, offset int) ([]*Booking, int, error) {
	if status != nil && !status.Valid() {
		return nil, 0, fmt.Errorf("invalid status %q", *status)
	}
	return s.repo.ListByCenter(ctx, centerID, start, end, status, limit, offset)
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

func (s *Service) SetPaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) error {
	return s.repo.SetPaymentStatus(ctx, id, status)
}

// CancelBooking releases the booking's place on its lane.
func (s *Service) CancelBooking(ctx context.Context, id uuid.UUID) error {
	return s.repo.UpdateStatus(ctx, id, StatusCancelled)
}
