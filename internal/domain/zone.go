package domain

import "time"

// DeliveryZone configures the fee and minimum order for a delivery area.
type DeliveryZone struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	FeeCents      int64     `json:"feeCents"`
	MinOrderCents int64     `json:"minOrderCents"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"createdAt"`
}
