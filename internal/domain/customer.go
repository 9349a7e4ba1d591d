package domain

import "time"

// Customer is the aggregate built from delivered orders. Phone number is the
// natural key; a customer row exists only because at least one of their
// orders reached delivered.
type Customer struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	PhoneNumber     string     `json:"phoneNumber"`
	Address         string     `json:"address,omitempty"`
	TotalOrders     int        `json:"totalOrders"`
	TotalSpentCents int64      `json:"totalSpentCents"`
	IsVIP           bool       `json:"isVip"`
	IsBlocked       bool       `json:"isBlocked"`
	FirstSeenAt     time.Time  `json:"firstSeenAt"`
	LastOrderAt     *time.Time `json:"lastOrderAt,omitempty"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}
