package menu

import (
	"context"

	"fooddirect/internal/domain"
)

// SectionUpdate holds partial section edits; nil fields are left untouched.
type SectionUpdate struct {
	Name      *string `json:"name,omitempty"`
	SortOrder *int    `json:"sortOrder,omitempty"`
	Active    *bool   `json:"active,omitempty"`
}

// ItemUpdate holds partial item edits; nil fields are left untouched.
type ItemUpdate struct {
	SectionID   *string `json:"sectionId,omitempty"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	PriceCents  *int64  `json:"priceCents,omitempty"`
	ImageURL    *string `json:"imageUrl,omitempty"`
	Available   *bool   `json:"available,omitempty"`
	SortOrder   *int    `json:"sortOrder,omitempty"`
}

type Repository interface {
	CreateSection(ctx context.Context, s domain.MenuSection) (*domain.MenuSection, error)
	ListSections(ctx context.Context, activeOnly bool) ([]domain.MenuSection, error)
	UpdateSection(ctx context.Context, id string, in SectionUpdate) (*domain.MenuSection, error)
	DeleteSection(ctx context.Context, id string) error

	CreateItem(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error)
	GetItem(ctx context.Context, id string) (*domain.MenuItem, error)
	ListItems(ctx context.Context, sectionID string, availableOnly bool) ([]domain.MenuItem, error)
	UpdateItem(ctx context.Context, id string, in ItemUpdate) (*domain.MenuItem, error)
	DeleteItem(ctx context.Context, id string) error
}
