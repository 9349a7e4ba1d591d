package domain

import "time"

// CouponKind selects how the discount is computed.
type CouponKind string

const (
	CouponPercent CouponKind = "percent"
	CouponFixed   CouponKind = "fixed"
)

// Coupon is an admin-managed discount code. UsageCount is incremented when an
// order carrying the coupon is created, not when it is delivered.
type Coupon struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	Kind          CouponKind `json:"kind"`
	Percent       int        `json:"percent,omitempty"`
	AmountCents   int64      `json:"amountCents,omitempty"`
	MinOrderCents int64      `json:"minOrderCents"`
	UsageLimit    int        `json:"usageLimit"`
	UsageCount    int        `json:"usageCount"`
	Active        bool       `json:"active"`
	ValidFrom     *time.Time `json:"validFrom,omitempty"`
	ValidUntil    *time.Time `json:"validUntil,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// DiscountFor computes the discount this coupon grants on a subtotal.
func (c Coupon) DiscountFor(subtotalCents int64) int64 {
	switch c.Kind {
	case CouponPercent:
		return subtotalCents * int64(c.Percent) / 100
	case CouponFixed:
		if c.AmountCents > subtotalCents {
			return subtotalCents
		}
		return c.AmountCents
	}
	return 0
}

// Usable reports whether the coupon can be applied at the given time to the
// given subtotal.
func (c Coupon) Usable(now time.Time, subtotalCents int64) bool {
	if !c.Active {
		return false
	}
	if c.UsageLimit > 0 && c.UsageCount >= c.UsageLimit {
		return false
	}
	if c.MinOrderCents > 0 && subtotalCents < c.MinOrderCents {
		return false
	}
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return false
	}
	return true
}
