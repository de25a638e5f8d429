package catalog

import (
	"context"

	"github.com/google/uuid"
)

type ServiceRepository interface {
	Create(ctx context.Context, s *Service) error
	GetByID(ctx context.Context, id uuid.UUID) (*Service, error)
	Update(ctx context.Context, s *Service) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	ListForCenter(ctx context.Context, centerID uuid.UUID, limit, offset int) ([]*Service, int, error)
}

type GroupRepository interface {
	Create(ctx context.Context, g *TreatmentGroup) error
	GetByID(ctx context.Context, id uuid.UUID) (*TreatmentGroup, error)
	Update(ctx context.Context, g *TreatmentGroup) error
	List(ctx context.Context) ([]*TreatmentGroup, error)
}
