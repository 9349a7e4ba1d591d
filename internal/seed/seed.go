package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type itemSeed struct {
	Name        string
	Description string
	PriceCents  int64
	SortOrder   int
}

type sectionSeed struct {
	Name      string
	SortOrder int
	Items     []itemSeed
}

// Apply inserts basic seed data for manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	sections := []sectionSeed{
		{
			Name:      "Starters",
			SortOrder: 1,
			Items: []itemSeed{
				{Name: "Paneer Tikka", Description: "Char-grilled cottage cheese skewers", PriceCents: 25000, SortOrder: 1},
				{Name: "Veg Spring Rolls", Description: "Crisp rolls with sweet chili dip", PriceCents: 18000, SortOrder: 2},
			},
		},
		{
			Name:      "Mains",
			SortOrder: 2,
			Items: []itemSeed{
				{Name: "Butter Chicken", Description: "Creamy tomato gravy, served with rice", PriceCents: 42000, SortOrder: 1},
				{Name: "Dal Makhani", Description: "Slow-cooked black lentils", PriceCents: 32000, SortOrder: 2},
			},
		},
		{
			Name:      "Breads",
			SortOrder: 3,
			Items: []itemSeed{
				{Name: "Garlic Naan", Description: "Tandoor-baked, brushed with butter", PriceCents: 6000, SortOrder: 1},
			},
		},
	}

	for _, s := range sections {
		sectionID, err := ensureSection(ctx, pool, s)
		if err != nil {
			return fmt.Errorf("ensure section %s: %w", s.Name, err)
		}
		for _, item := range s.Items {
			if err := upsertItem(ctx, pool, sectionID, item); err != nil {
				return fmt.Errorf("upsert item %s: %w", item.Name, err)
			}
		}
	}

	if err := ensureZones(ctx, pool); err != nil {
		return fmt.Errorf("ensure zones: %w", err)
	}
	if err := ensureCoupon(ctx, pool); err != nil {
		return fmt.Errorf("ensure coupon: %w", err)
	}
	if err := ensureAdmin(ctx, pool, "admin@fooddirect.local", "ChangeMe123", "Owner"); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	return nil
}

func ensureSection(ctx context.Context, pool *pgxpool.Pool, s sectionSeed) (string, error) {
	var id string
	q := `SELECT id::text FROM menu_sections WHERE name = $1 LIMIT 1`
	err := pool.QueryRow(ctx, q, s.Name).Scan(&id)
	if err == nil {
		return id, nil
	}
	q = `
INSERT INTO menu_sections (name, sort_order, active)
VALUES ($1, $2, true)
RETURNING id::text
`
	if err := pool.QueryRow(ctx, q, s.Name, s.SortOrder).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func upsertItem(ctx context.Context, pool *pgxpool.Pool, sectionID string, item itemSeed) error {
	const q = `
INSERT INTO menu_items (section_id, name, description, price_cents, sort_order, available)
SELECT $1, $2, $3, $4, $5, true
WHERE NOT EXISTS (SELECT 1 FROM menu_items WHERE section_id = $1 AND name = $2)
`
	_, err := pool.Exec(ctx, q, sectionID, item.Name, item.Description, item.PriceCents, item.SortOrder)
	return err
}

func ensureZones(ctx context.Context, pool *pgxpool.Pool) error {
	zones := []struct {
		Name          string
		FeeCents      int64
		MinOrderCents int64
	}{
		{Name: "City Center", FeeCents: 2000, MinOrderCents: 15000},
		{Name: "Suburbs", FeeCents: 4000, MinOrderCents: 25000},
	}
	const q = `
INSERT INTO delivery_zones (name, fee_cents, min_order_cents, active)
SELECT $1, $2, $3, true
WHERE NOT EXISTS (SELECT 1 FROM delivery_zones WHERE name = $1)
`
	for _, z := range zones {
		if _, err := pool.Exec(ctx, q, z.Name, z.FeeCents, z.MinOrderCents); err != nil {
			return err
		}
	}
	return nil
}

func ensureCoupon(ctx context.Context, pool *pgxpool.Pool) error {
	const q = `
INSERT INTO coupons (code, kind, percent, min_order_cents, usage_limit, active)
VALUES ('WELCOME10', 'percent', 10, 20000, 0, true)
ON CONFLICT (code) DO NOTHING
`
	_, err := pool.Exec(ctx, q)
	return err
}

func ensureAdmin(ctx context.Context, pool *pgxpool.Pool, email, password, name string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO admins (email, password_hash, name)
SELECT $1, $2, $3
WHERE NOT EXISTS (SELECT 1 FROM admins WHERE lower(email) = lower($1))
`
	_, err = pool.Exec(ctx, q, email, string(hashed), name)
	return err
}
