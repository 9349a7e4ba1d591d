package domain

import "time"

// MenuSection groups menu items on the storefront.
type MenuSection struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sortOrder"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// MenuItem is a dish offered on the menu.
type MenuItem struct {
	ID          string    `json:"id"`
	SectionID   string    `json:"sectionId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PriceCents  int64     `json:"priceCents"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Available   bool      `json:"available"`
	SortOrder   int       `json:"sortOrder"`
	CreatedAt   time.Time `json:"createdAt"`
}
