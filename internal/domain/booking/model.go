package booking

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
	StatusRequested Status = "requested"
	StatusNew       Status = "new"
	StatusOnline    Status = "online"
)

var validStatuses = map[Status]bool{
	StatusPending:   true,
	StatusConfirmed: true,
	StatusCompleted: true,
	StatusCancelled: true,
	StatusNoShow:    true,
	StatusRequested: true,
	StatusNew:       true,
	StatusOnline:    true,
}

func (s Status) Valid() bool { return validStatuses[s] }

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Booking is a committed appointment on a lane. ServiceID may be nil when the
// catalog row was deleted after booking; EmployeeID is nil when no staff was
// assigned. Cancelled bookings never count toward lane capacity.
type Booking struct {
	ID              uuid.UUID     `json:"id" db:"id"`
	CenterID        uuid.UUID     `json:"center_id" db:"center_id" validate:"required"`
	LaneID          uuid.UUID     `json:"lane_id" db:"lane_id"`
	EmployeeID      *uuid.UUID    `json:"employee_id,omitempty" db:"employee_id"`
	ServiceID       *uuid.UUID    `json:"service_id,omitempty" db:"service_id"`
	GuestName       string        `json:"guest_name" db:"guest_name"`
	GuestEmail      *string       `json:"guest_email,omitempty" db:"guest_email"`
	GuestPhone      *string       `json:"guest_phone,omitempty" db:"guest_phone"`
	BookingDatetime time.Time     `json:"booking_datetime" db:"booking_datetime"`
	DurationMinutes int           `json:"duration_minutes" db:"duration_minutes"`
	Status          Status        `json:"status" db:"status"`
	TotalPriceCents int           `json:"total_price_cents" db:"total_price_cents"`
	PaymentStatus   PaymentStatus `json:"payment_status" db:"payment_status"`
	Notes           *string       `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// End returns the instant the appointment finishes.
func (b *Booking) End() time.Time {
	return b.BookingDatetime.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

// Active reports whether the booking counts toward lane capacity.
func (b *Booking) Active() bool { return b.Status != StatusCancelled }

// Overlaps reports whether the booking's literal interval intersects the
// half-open range [start, end).
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.BookingDatetime.Before(end) && b.End().After(start)
}

// TimeSlot is one tick of the availability grid. Reason is set only when the
// slot is disabled.
type TimeSlot struct {
	Time     string `json:"time"`
	Disabled bool   `json:"disabled"`
	Reason   string `json:"reason,omitempty"`
}
