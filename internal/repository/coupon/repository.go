package coupon

import (
	"context"

	"fooddirect/internal/domain"
)

// UpdateInput holds partial coupon edits; nil fields are left untouched.
type UpdateInput struct {
	Kind          *domain.CouponKind `json:"kind,omitempty"`
	Percent       *int               `json:"percent,omitempty"`
	AmountCents   *int64             `json:"amountCents,omitempty"`
	MinOrderCents *int64             `json:"minOrderCents,omitempty"`
	UsageLimit    *int               `json:"usageLimit,omitempty"`
	Active        *bool              `json:"active,omitempty"`
}

type Repository interface {
	Create(ctx context.Context, c domain.Coupon) (*domain.Coupon, error)
	GetByID(ctx context.Context, id string) (*domain.Coupon, error)
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	List(ctx context.Context) ([]domain.Coupon, error)
	Update(ctx context.Context, id string, in UpdateInput) (*domain.Coupon, error)
	IncrementUsage(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
