package zone

import (
	"context"

	"fooddirect/internal/domain"
)

// UpdateInput holds partial zone edits; nil fields are left untouched.
type UpdateInput struct {
	Name          *string `json:"name,omitempty"`
	FeeCents      *int64  `json:"feeCents,omitempty"`
	MinOrderCents *int64  `json:"minOrderCents,omitempty"`
	Active        *bool   `json:"active,omitempty"`
}

type Repository interface {
	Create(ctx context.Context, z domain.DeliveryZone) (*domain.DeliveryZone, error)
	GetByID(ctx context.Context, id string) (*domain.DeliveryZone, error)
	List(ctx context.Context, activeOnly bool) ([]domain.DeliveryZone, error)
	Update(ctx context.Context, id string, in UpdateInput) (*domain.DeliveryZone, error)
	Delete(ctx context.Context, id string) error
}
