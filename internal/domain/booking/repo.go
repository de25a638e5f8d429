package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// InsertIfAvailable atomically recounts the lane's occupancy for the
	// booking's buffered interval and inserts only while the count stays
	// under capacity. Returns ErrConflict when the place was lost.
	InsertIfAvailable(ctx context.Context, b *Booking, capacity int) error

	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	SetPaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) error

	// ListActiveByCenterAndRange returns non-cancelled bookings whose
	// intervals overlap [start, end).
	ListActiveByCenterAndRange(ctx context.Context, centerID uuid.UUID, start, end time.Time) ([]*Booking, error)

	// ListByCenter pages bookings starting inside [start, end), newest page
	// first by booking time. A non-nil status narrows the listing.
	ListByCenter(ctx context.Context, centerID uuid.UUID, start, end time.Time, status *Status, limit, offset int) ([]*Booking, int, error)
}
