package order

import (
	"context"
	"time"

	"fooddirect/internal/domain"
)

// ListFilter enumerates every supported order filter. Status, type and flag
// filters are pushed into SQL; Search and the date range are applied by the
// service over the fetched set.
type ListFilter struct {
	Status   *domain.OrderStatus
	Type     *domain.FulfillmentType
	VIP      *bool
	Blocked  *bool
	DateFrom *time.Time
	DateTo   *time.Time
	Search   string
}

// UpdateStatusInput carries a status transition. The repository stamps the
// lifecycle timestamp matching the new status.
type UpdateStatusInput struct {
	Status          domain.OrderStatus
	Notes           *string
	CancelledReason *string
}

// UpdateInput holds partial order edits; nil fields are left untouched.
// Subtotal and total accompany item edits so the money breakdown stays
// consistent with the stored items.
type UpdateInput struct {
	CustomerInfo  *domain.CustomerInfo
	Items         []domain.OrderItem
	SubtotalCents *int64
	TotalCents    *int64
	Notes         *string
	IsVIP         *bool
	IsBlocked     *bool
}

type Repository interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByCode(ctx context.Context, code string) (*domain.Order, error)
	List(ctx context.Context, filter ListFilter, limit int) ([]domain.Order, error)
	ListDeliveredAsc(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, in UpdateStatusInput) (*domain.Order, error)
	Update(ctx context.Context, id string, in UpdateInput) (*domain.Order, error)
	Delete(ctx context.Context, id string) error
	CountAll(ctx context.Context) (int, error)
}
