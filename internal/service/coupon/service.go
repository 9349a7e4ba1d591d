package coupon

import (
	"context"
	"errors"
	"strings"
	"time"

	"fooddirect/internal/domain"
	couponrepo "fooddirect/internal/repository/coupon"
)

type Service struct {
	repo couponrepo.Repository
}

func New(repo couponrepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, in domain.Coupon) (*domain.Coupon, error) {
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	if in.Code == "" {
		return nil, errors.New("coupon code required")
	}
	switch in.Kind {
	case domain.CouponPercent:
		if in.Percent <= 0 || in.Percent > 100 {
			return nil, errors.New("percent must be between 1 and 100")
		}
	case domain.CouponFixed:
		if in.AmountCents <= 0 {
			return nil, errors.New("amount must be positive")
		}
	default:
		return nil, errors.New("kind must be percent or fixed")
	}
	return s.repo.Create(ctx, in)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Coupon, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]domain.Coupon, error) {
	return s.repo.List(ctx)
}

func (s *Service) Update(ctx context.Context, id string, in couponrepo.UpdateInput) (*domain.Coupon, error) {
	if in.Percent != nil && (*in.Percent <= 0 || *in.Percent > 100) {
		return nil, errors.New("percent must be between 1 and 100")
	}
	if in.AmountCents != nil && *in.AmountCents <= 0 {
		return nil, errors.New("amount must be positive")
	}
	return s.repo.Update(ctx, id, in)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Preview resolves a code for a given subtotal without consuming usage. The
// storefront uses it to show the discount before checkout.
func (s *Service) Preview(ctx context.Context, code string, subtotalCents int64) (*domain.Coupon, int64, error) {
	c, err := s.repo.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, 0, err
	}
	if !c.Usable(time.Now(), subtotalCents) {
		return nil, 0, errors.New("coupon not applicable")
	}
	return c, c.DiscountFor(subtotalCents), nil
}
