package menu

import (
	"context"
	"errors"
	"strings"

	"fooddirect/internal/domain"
	menurepo "fooddirect/internal/repository/menu"
)

type Service struct {
	repo menurepo.Repository
}

func New(repo menurepo.Repository) *Service {
	return &Service{repo: repo}
}

// Storefront returns the customer-facing menu: active sections with their
// available items, in sort order.
type Section struct {
	domain.MenuSection
	Items []domain.MenuItem `json:"items"`
}

func (s *Service) Storefront(ctx context.Context) ([]Section, error) {
	sections, err := s.repo.ListSections(ctx, true)
	if err != nil {
		return nil, err
	}
	out := make([]Section, 0, len(sections))
	for _, sec := range sections {
		items, err := s.repo.ListItems(ctx, sec.ID, true)
		if err != nil {
			return nil, err
		}
		out = append(out, Section{MenuSection: sec, Items: items})
	}
	return out, nil
}

func (s *Service) CreateSection(ctx context.Context, in domain.MenuSection) (*domain.MenuSection, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, errors.New("section name required")
	}
	return s.repo.CreateSection(ctx, in)
}

func (s *Service) ListSections(ctx context.Context, activeOnly bool) ([]domain.MenuSection, error) {
	return s.repo.ListSections(ctx, activeOnly)
}

func (s *Service) UpdateSection(ctx context.Context, id string, in menurepo.SectionUpdate) (*domain.MenuSection, error) {
	return s.repo.UpdateSection(ctx, id, in)
}

// DeleteSection removes the section and, through the schema's cascade, its
// items.
func (s *Service) DeleteSection(ctx context.Context, id string) error {
	return s.repo.DeleteSection(ctx, id)
}

func (s *Service) CreateItem(ctx context.Context, in domain.MenuItem) (*domain.MenuItem, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, errors.New("item name required")
	}
	if in.SectionID == "" {
		return nil, errors.New("section required")
	}
	if in.PriceCents < 0 {
		return nil, errors.New("price must not be negative")
	}
	return s.repo.CreateItem(ctx, in)
}

func (s *Service) GetItem(ctx context.Context, id string) (*domain.MenuItem, error) {
	return s.repo.GetItem(ctx, id)
}

func (s *Service) ListItems(ctx context.Context, sectionID string, availableOnly bool) ([]domain.MenuItem, error) {
	return s.repo.ListItems(ctx, sectionID, availableOnly)
}

func (s *Service) UpdateItem(ctx context.Context, id string, in menurepo.ItemUpdate) (*domain.MenuItem, error) {
	if in.PriceCents != nil && *in.PriceCents < 0 {
		return nil, errors.New("price must not be negative")
	}
	return s.repo.UpdateItem(ctx, id, in)
}

func (s *Service) DeleteItem(ctx context.Context, id string) error {
	return s.repo.DeleteItem(ctx, id)
}
