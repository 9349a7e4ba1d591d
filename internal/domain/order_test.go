package domain

import (
	"testing"
	"time"
)

func TestStatusTerminal(t *testing.T) {
	for _, s := range OrderStatuses {
		terminal := s == StatusDelivered || s == StatusCancelled
		if s.Terminal() != terminal {
			t.Fatalf("Terminal(%s) = %v, want %v", s, s.Terminal(), terminal)
		}
	}
}

func TestStatusCanTransition(t *testing.T) {
	if !StatusPendingWhatsApp.CanTransition(StatusPending) {
		t.Fatalf("expected pending_whatsapp -> pending to be allowed")
	}
	if !StatusPreparing.CanTransition(StatusDelivered) {
		t.Fatalf("expected preparing -> delivered to be allowed (statuses may be skipped)")
	}
	if !StatusPending.CanTransition(StatusCancelled) {
		t.Fatalf("expected cancellation from a non-terminal state")
	}
	if StatusDelivered.CanTransition(StatusCancelled) {
		t.Fatalf("terminal order must not transition")
	}
	if StatusCancelled.CanTransition(StatusPending) {
		t.Fatalf("terminal order must not transition")
	}
	if StatusPending.CanTransition(StatusPending) {
		t.Fatalf("self transition must be rejected")
	}
	if StatusPending.CanTransition(OrderStatus("bogus")) {
		t.Fatalf("unknown status must be rejected")
	}
}

func TestCouponDiscountFor(t *testing.T) {
	percent := Coupon{Kind: CouponPercent, Percent: 10}
	if got := percent.DiscountFor(5000); got != 500 {
		t.Fatalf("percent discount = %d, want 500", got)
	}
	fixed := Coupon{Kind: CouponFixed, AmountCents: 700}
	if got := fixed.DiscountFor(5000); got != 700 {
		t.Fatalf("fixed discount = %d, want 700", got)
	}
	if got := fixed.DiscountFor(300); got != 300 {
		t.Fatalf("fixed discount must not exceed subtotal, got %d", got)
	}
}

func TestCouponUsable(t *testing.T) {
	now := time.Now()
	later := now.Add(time.Hour)
	earlier := now.Add(-time.Hour)

	c := Coupon{Active: true}
	if !c.Usable(now, 1000) {
		t.Fatalf("active coupon without constraints should be usable")
	}

	c = Coupon{Active: false}
	if c.Usable(now, 1000) {
		t.Fatalf("inactive coupon must not be usable")
	}

	c = Coupon{Active: true, UsageLimit: 2, UsageCount: 2}
	if c.Usable(now, 1000) {
		t.Fatalf("exhausted coupon must not be usable")
	}

	c = Coupon{Active: true, MinOrderCents: 2000}
	if c.Usable(now, 1000) {
		t.Fatalf("below-minimum order must not qualify")
	}

	c = Coupon{Active: true, ValidFrom: &later}
	if c.Usable(now, 1000) {
		t.Fatalf("not-yet-valid coupon must not be usable")
	}

	c = Coupon{Active: true, ValidUntil: &earlier}
	if c.Usable(now, 1000) {
		t.Fatalf("expired coupon must not be usable")
	}
}
