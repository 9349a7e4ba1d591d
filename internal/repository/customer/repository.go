package customer

import (
	"context"
	"time"

	"fooddirect/internal/domain"
)

// UpdateInput holds partial customer edits; nil fields are left untouched.
type UpdateInput struct {
	Name        *string
	Address     *string
	TotalOrders *int
	TotalSpent  *int64
	IsVIP       *bool
	IsBlocked   *bool
	LastOrderAt *time.Time
}

type Repository interface {
	Create(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Customer, error)
	List(ctx context.Context, limit int) ([]domain.Customer, error)
	Update(ctx context.Context, id string, in UpdateInput) (*domain.Customer, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}
