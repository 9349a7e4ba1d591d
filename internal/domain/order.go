package domain

import "time"

// OrderStatus is the lifecycle state of an order. Transitions are driven by
// admin actions only; nothing advances an order automatically.
type OrderStatus string

const (
	StatusPendingWhatsApp OrderStatus = "pending_whatsapp"
	StatusPending         OrderStatus = "pending"
	StatusConfirmation    OrderStatus = "confirmation"
	StatusPreparing       OrderStatus = "preparing"
	StatusOutForDelivery  OrderStatus = "out-for-delivery"
	StatusDelivered       OrderStatus = "delivered"
	StatusCancelled       OrderStatus = "cancelled"
)

// OrderStatuses lists every valid status value.
var OrderStatuses = []OrderStatus{
	StatusPendingWhatsApp,
	StatusPending,
	StatusConfirmation,
	StatusPreparing,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
}

// Valid reports whether s is a known status value.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether an order in this status admits no further transitions.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether an order may move from s to next. Any
// non-terminal order may be moved to any other status (the admin status
// selector allows skipping intermediate steps); terminal orders are frozen.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if !next.Valid() || s.Terminal() {
		return false
	}
	return s != next
}

// FulfillmentType says how the order reaches the customer.
type FulfillmentType string

const (
	FulfillmentDelivery FulfillmentType = "delivery"
	FulfillmentPickup   FulfillmentType = "pickup"
	FulfillmentDineIn   FulfillmentType = "dine_in"
)

func (t FulfillmentType) Valid() bool {
	return t == FulfillmentDelivery || t == FulfillmentPickup || t == FulfillmentDineIn
}

// CustomerInfo is the contact snapshot captured at checkout. Orders keep
// their own copy; later customer edits never rewrite past orders.
type CustomerInfo struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address,omitempty"`
	TableNumber string `json:"tableNumber,omitempty"`
	PickupTime  string `json:"pickupTime,omitempty"`
}

// OrderItem is one menu line on an order with the price snapshotted at
// checkout time.
type OrderItem struct {
	MenuItemID     string `json:"menuItemId"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	Quantity       int    `json:"quantity"`
	LineTotalCents int64  `json:"lineTotalCents"`
	Note           string `json:"note,omitempty"`
}

// CouponSnapshot records the coupon as it was when applied.
type CouponSnapshot struct {
	ID            string `json:"id"`
	Code          string `json:"code"`
	DiscountCents int64  `json:"discountCents"`
}

// GeoPoint is an optional delivery location captured from the customer's browser.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Order is the authoritative record of a placed order.
type Order struct {
	ID           string          `json:"id"`
	Code         string          `json:"code"`
	CustomerInfo CustomerInfo    `json:"customerInfo"`
	Items        []OrderItem     `json:"items"`
	Type         FulfillmentType `json:"type"`

	SubtotalCents    int64 `json:"subtotalCents"`
	DeliveryFeeCents int64 `json:"deliveryFeeCents"`
	DiscountCents    int64 `json:"discountCents"`
	TotalCents       int64 `json:"totalCents"`

	Coupon *CouponSnapshot `json:"coupon,omitempty"`
	Geo    *GeoPoint       `json:"geo,omitempty"`
	ZoneID *string         `json:"zoneId,omitempty"`

	Status OrderStatus `json:"status"`
	Notes  string      `json:"notes,omitempty"`

	IsVIP     bool `json:"isVip"`
	IsBlocked bool `json:"isBlocked"`

	ConfirmedAt     *time.Time `json:"confirmedAt,omitempty"`
	PreparedAt      *time.Time `json:"preparedAt,omitempty"`
	DispatchedAt    *time.Time `json:"dispatchedAt,omitempty"`
	DeliveredAt     *time.Time `json:"deliveredAt,omitempty"`
	CancelledAt     *time.Time `json:"cancelledAt,omitempty"`
	CancelledReason string     `json:"cancelledReason,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Analytics is the derived snapshot pushed to the admin dashboard.
type Analytics struct {
	TotalOrders    int                 `json:"totalOrders"`
	ByStatus       map[OrderStatus]int `json:"byStatus"`
	TodayOrders    int                 `json:"todayOrders"`
	TodayRevenue   int64               `json:"todayRevenueCents"`
	RevenueCents   int64               `json:"revenueCents"`
	PendingActions int                 `json:"pendingActions"`
}
