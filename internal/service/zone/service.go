package zone

import (
	"context"
	"errors"
	"strings"

	"fooddirect/internal/domain"
	zonerepo "fooddirect/internal/repository/zone"
)

type Service struct {
	repo zonerepo.Repository
}

func New(repo zonerepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, in domain.DeliveryZone) (*domain.DeliveryZone, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, errors.New("zone name required")
	}
	if in.FeeCents < 0 || in.MinOrderCents < 0 {
		return nil, errors.New("fee and minimum must not be negative")
	}
	return s.repo.Create(ctx, in)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.DeliveryZone, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]domain.DeliveryZone, error) {
	return s.repo.List(ctx, activeOnly)
}

func (s *Service) Update(ctx context.Context, id string, in zonerepo.UpdateInput) (*domain.DeliveryZone, error) {
	if in.FeeCents != nil && *in.FeeCents < 0 {
		return nil, errors.New("fee must not be negative")
	}
	if in.MinOrderCents != nil && *in.MinOrderCents < 0 {
		return nil, errors.New("minimum must not be negative")
	}
	return s.repo.Update(ctx, id, in)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
