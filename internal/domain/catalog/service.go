package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// CatalogService manages treatments and their groups.
type CatalogService struct {
	services ServiceRepository
	groups   GroupRepository
}

func NewCatalogService(services ServiceRepository, groups GroupRepository) *CatalogService {
	return &CatalogService{services: services, groups: groups}
}

func (s *CatalogService) CreateService(ctx context.Context, svc *Service) error {
	if svc.Name == "" {
		return fmt.Errorf("service name is required")
	}
	if svc.DurationMinutes <= 0 {
		return fmt.Errorf("duration_minutes must be positive")
	}
	if svc.DurationMinutes%5 != 0 {
		return fmt.Errorf("duration_minutes must be a multiple of 5")
	}
	if svc.PriceCents < 0 {
		return fmt.Errorf("price_cents must not be negative")
	}
	if svc.GroupID != nil {
		if _, err := s.groups.GetByID(ctx, *svc.GroupID); err != nil {
			return fmt.Errorf("treatment group not found: %w", err)
		}
	}
	svc.Active = true
	return s.services.Create(ctx, svc)
}

func (s *CatalogService) GetService(ctx context.Context, id uuid.UUID) (*Service, error) {
	return s.services.GetByID(ctx, id)
}

func (s *CatalogService) UpdateService(ctx context.Context, svc *Service) error {
	if svc.Name == "" {
		return fmt.Errorf("service name is required")
	}
	if svc.DurationMinutes <= 0 || svc.DurationMinutes%5 != 0 {
		return fmt.Errorf("duration_minutes must be a positive multiple of 5")
	}
	if svc.GroupID != nil {
		if _, err := s.groups.GetByID(ctx, *svc.GroupID); err != nil {
			return fmt.Errorf("treatment group not found: %w", err)
		}
	}
	return s.services.Update(ctx, svc)
}

func (s *CatalogService) DeactivateService(ctx context.Context, id uuid.UUID) error {
	return s.services.Deactivate(ctx, id)
}

func (s *CatalogService) ListServicesForCenter(ctx context.Context, centerID uuid.UUID, limit, offset int) ([]*Service, int, error) {
	return s.services.ListForCenter(ctx, centerID, limit, offset)
}

func (s *CatalogService) CreateGroup(ctx context.Context, g *TreatmentGroup) error {
	if g.Name == "" {
		return fmt.Errorf("group name is required")
	}
	return s.groups.Create(ctx, g)
}

func (s *CatalogService) GetGroup(ctx context.Context, id uuid.UUID) (*TreatmentGroup, error) {
	return s.groups.GetByID(ctx, id)
}

func (s *CatalogService) UpdateGroup(ctx context.Context, g *TreatmentGroup) error {
	if g.Name == "" {
		return fmt.Errorf("group name is required")
	}
	return s.groups.Update(ctx, g)
}

func (s *CatalogService) ListGroups(ctx context.Context) ([]*TreatmentGroup, error) {
	return s.groups.List(ctx)
}
