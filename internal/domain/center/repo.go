package center

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type CenterRepository interface {
	Create(ctx context.Context, c *Center) error
	GetByID(ctx context.Context, id uuid.UUID) (*Center, error)
	Update(ctx context.Context, c *Center) error
	List(ctx context.Context, limit, offset int) ([]*Center, int, error)
}

type LaneRepository interface {
	Create(ctx context.Context, l *Lane) error
	GetByID(ctx context.Context, id uuid.UUID) (*Lane, error)
	Update(ctx context.Context, l *Lane) error
	SetBlockedUntil(ctx context.Context, id uuid.UUID, until *time.Time) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	ListByCenter(ctx context.Context, centerID uuid.UUID, activeOnly bool) ([]*Lane, error)
}

type LaneBlockRepository interface {
	Create(ctx context.Context, b *LaneBlock) error
	GetByID(ctx context.Context, id uuid.UUID) (*LaneBlock, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByCenterAndRange(ctx context.Context, centerID uuid.UUID, start, end time.Time) ([]*LaneBlock, error)
}

type EmployeeRepository interface {
	Create(ctx context.Context, e *Employee) error
	GetByID(ctx context.Context, id uuid.UUID) (*Employee, error)
	Update(ctx context.Context, e *Employee) error
	ListByCenter(ctx context.Context, centerID uuid.UUID, activeOnly bool) ([]*Employee, error)
}
