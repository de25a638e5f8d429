package center

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	centers   CenterRepository
	lanes     LaneRepository
	blocks    LaneBlockRepository
	employees EmployeeRepository

	defaultOpen  string
	defaultClose string
}

func NewService(centers CenterRepository, lanes LaneRepository, blocks LaneBlockRepository, employees EmployeeRepository) *Service {
	return &Service{
		centers:      centers,
		lanes:        lanes,
		blocks:       blocks,
		employees:    employees,
		defaultOpen:  "10:00",
		defaultClose: "22:00",
	}
}

// WithBookingWindow overrides the open/close times applied to centers created
// without explicit ones.
func (s *Service) WithBookingWindow(open, close string) *Service {
	s.defaultOpen = open
	s.defaultClose = close
	return s
}

// -- Centers --

func (s *Service) CreateCenter(ctx context.Context, c *Center) error {
	if c.Name == "" {
		return fmt.Errorf("center name is required")
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/Madrid"
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.OpenTime == "" {
		c.OpenTime = s.defaultOpen
	}
	if c.CloseTime == "" {
		c.CloseTime = s.defaultClose
	}
	if err := validateWindow(c.OpenTime, c.CloseTime); err != nil {
		return err
	}
	c.Active = true
	return s.centers.Create(ctx, c)
}

func (s *Service) GetCenter(ctx context.Context, id uuid.UUID) (*Center, error) {
	return s.centers.GetByID(ctx, id)
}

func (s *Service) UpdateCenter(ctx context.Context, c *Center) error {
	if c.Name == "" {
		return fmt.Errorf("center name is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if err := validateWindow(c.OpenTime, c.CloseTime); err != nil {
		return err
	}
	return s.centers.Update(ctx, c)
}

func (s *Service) ListCenters(ctx context.Context, limit, offset int) ([]*Center, int, error) {
	return s.centers.List(ctx, limit, offset)
}

func validateWindow(open, close string) error {
	o, err := parseClock(open)
	if err != nil {
		return fmt.Errorf("invalid open_time %q", open)
	}
	c, err := parseClock(close)
	if err != nil {
		return fmt.Errorf("invalid close_time %q", close)
	}
	if !o.Before(c) {
		return fmt.Errorf("open_time must be before close_time")
	}
	return nil
}

func parseClock(v string) (time.Time, error) {
	return time.Parse("15:04", v)
}

// -- Lanes --

func (s *Service) CreateLane(ctx context.Context, l *Lane) error {
	if l.CenterID == uuid.Nil {
		return fmt.Errorf("center_id is required")
	}
	if l.Name == "" {
		return fmt.Errorf("lane name is required")
	}
	if l.Capacity < 1 {
		l.Capacity = 1
	}
	l.Active = true
	return s.lanes.Create(ctx, l)
}

func (s *Service) GetLane(ctx context.Context, id uuid.UUID) (*Lane, error) {
	return s.lanes.GetByID(ctx, id)
}

func (s *Service) UpdateLane(ctx context.Context, l *Lane) error {
	if l.Name == "" {
		return fmt.Errorf("lane name is required")
	}
	if l.Capacity < 1 {
		return fmt.Errorf("lane capacity must be at least 1")
	}
	return s.lanes.Update(ctx, l)
}

// BlockLane hides the lane from availability until the given time. A nil
// until clears the block.
func (s *Service) BlockLane(ctx context.Context, id uuid.UUID, until *time.Time) error {
	if _, err := s.lanes.GetByID(ctx, id); err != nil {
		return fmt.Errorf("lane not found: %w", err)
	}
	return s.lanes.SetBlockedUntil(ctx, id, until)
}

// DeactivateLane soft-deletes a lane. Existing bookings on it are untouched;
// the lane stops appearing in availability.
func (s *Service) DeactivateLane(ctx context.Context, id uuid.UUID) error {
	return s.lanes.Deactivate(ctx, id)
}

func (s *Service) ListLanes(ctx context.Context, centerID uuid.UUID, activeOnly bool) ([]*Lane, error) {
	return s.lanes.ListByCenter(ctx, centerID, activeOnly)
}

// -- Lane blocks --

func (s *Service) CreateLaneBlock(ctx context.Context, b *LaneBlock) error {
	if b.LaneID == uuid.Nil || b.CenterID == uuid.Nil {
		return fmt.Errorf("lane_id and center_id are required")
	}
	if !b.StartTime.Before(b.EndTime) {
		return fmt.Errorf("block end must be after start")
	}
	lane, err := s.lanes.GetByID(ctx, b.LaneID)
	if err != nil {
		return fmt.Errorf("lane not found: %w", err)
	}
	if lane.CenterID != b.CenterID {
		return fmt.Errorf("lane does not belong to center")
	}
	return s.blocks.Create(ctx, b)
}

func (s *Service) DeleteLaneBlock(ctx context.Context, id uuid.UUID) error {
	return s.blocks.Delete(ctx, id)
}

func (s *Service) ListLaneBlocks(ctx context.Context, centerID uuid.UUID, start, end time.Time) ([]*LaneBlock, error) {
	return s.blocks.ListByCenterAndRange(ctx, centerID, start, end)
}

// -- Employees --

func (s *Service) CreateEmployee(ctx context.Context, e *Employee) error {
	if e.CenterID == uuid.Nil {
		return fmt.Errorf("center_id is required")
	}
	if e.Name == "" {
		return fmt.Errorf("employee name is required")
	}
	e.Active = true
	return s.employees.Create(ctx, e)
}

func (s *Service) GetEmployee(ctx context.Context, id uuid.UUID) (*Employee, error) {
	return s.employees.GetByID(ctx, id)
}

func (s *Service) UpdateEmployee(ctx context.Context, e *Employee) error {
	if e.Name == "" {
		return fmt.Errorf("employee name is required")
	}
	return s.employees.Update(ctx, e)
}

func (s *Service) ListEmployees(ctx context.Context, centerID uuid.UUID, activeOnly bool) ([]*Employee, error) {
	return s.employees.ListByCenter(ctx, centerID, activeOnly)
}
