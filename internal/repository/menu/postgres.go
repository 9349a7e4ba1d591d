package menu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"fooddirect/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const sectionColumns = `id::text, name, sort_order, active, created_at`
const itemColumns = `id::text, section_id::text, name, description, price_cents, image_url, available, sort_order, created_at`

func (r *postgresRepo) CreateSection(ctx context.Context, s domain.MenuSection) (*domain.MenuSection, error) {
	q := `
INSERT INTO menu_sections (name, sort_order, active)
VALUES ($1, $2, $3)
RETURNING ` + sectionColumns
	return r.scanSection(r.pool.QueryRow(ctx, q, s.Name, s.SortOrder, s.Active))
}

func (r *postgresRepo) ListSections(ctx context.Context, activeOnly bool) ([]domain.MenuSection, error) {
	q := `SELECT ` + sectionColumns + ` FROM menu_sections`
	if activeOnly {
		q += ` WHERE active`
	}
	q += ` ORDER BY sort_order ASC, created_at ASC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MenuSection
	for rows.Next() {
		s, err := r.scanSection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) UpdateSection(ctx context.Context, id string, in SectionUpdate) (*domain.MenuSection, error) {
	var sets []string
	var args []interface{}
	idx := 1
	addSet := func(col string, arg interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, arg)
		idx++
	}
	if in.Name != nil {
		addSet("name", *in.Name)
	}
	if in.SortOrder != nil {
		addSet("sort_order", *in.SortOrder)
	}
	if in.Active != nil {
		addSet("active", *in.Active)
	}
	if len(sets) == 0 {
		return nil, errors.New("no fields to update")
	}

	q := fmt.Sprintf(`UPDATE menu_sections SET %s WHERE id = $%d RETURNING `, strings.Join(sets, ", "), idx) + sectionColumns
	args = append(args, id)
	return r.scanSection(r.pool.QueryRow(ctx, q, args...))
}

func (r *postgresRepo) DeleteSection(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM menu_sections WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) CreateItem(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error) {
	q := `
INSERT INTO menu_items (section_id, name, description, price_cents, image_url, available, sort_order)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + itemColumns
	return r.scanItem(r.pool.QueryRow(
		ctx,
		q,
		item.SectionID,
		item.Name,
		item.Description,
		item.PriceCents,
		item.ImageURL,
		item.Available,
		item.SortOrder,
	))
}

func (r *postgresRepo) GetItem(ctx context.Context, id string) (*domain.MenuItem, error) {
	q := `SELECT ` + itemColumns + ` FROM menu_items WHERE id = $1 LIMIT 1`
	return r.scanItem(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) ListItems(ctx context.Context, sectionID string, availableOnly bool) ([]domain.MenuItem, error) {
	q := `SELECT ` + itemColumns + ` FROM menu_items`
	var conds []string
	var args []interface{}
	if sectionID != "" {
		conds = append(conds, fmt.Sprintf("section_id = $%d", len(args)+1))
		args = append(args, sectionID)
	}
	if availableOnly {
		conds = append(conds, "available")
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY sort_order ASC, created_at ASC`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MenuItem
	for rows.Next() {
		item, err := r.scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) UpdateItem(ctx context.Context, id string, in ItemUpdate) (*domain.MenuItem, error) {
	var sets []string
	var args []interface{}
	idx := 1
	addSet := func(col string, arg interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, arg)
		idx++
	}
	if in.SectionID != nil {
		addSet("section_id", *in.SectionID)
	}
	if in.Name != nil {
		addSet("name", *in.Name)
	}
	if in.Description != nil {
		addSet("description", *in.Description)
	}
	if in.PriceCents != nil {
		addSet("price_cents", *in.PriceCents)
	}
	if in.ImageURL != nil {
		addSet("image_url", *in.ImageURL)
	}
	if in.Available != nil {
		addSet("available", *in.Available)
	}
	if in.SortOrder != nil {
		addSet("sort_order", *in.SortOrder)
	}
	if len(sets) == 0 {
		return nil, errors.New("no fields to update")
	}

	q := fmt.Sprintf(`UPDATE menu_items SET %s WHERE id = $%d RETURNING `, strings.Join(sets, ", "), idx) + itemColumns
	args = append(args, id)
	return r.scanItem(r.pool.QueryRow(ctx, q, args...))
}

func (r *postgresRepo) DeleteItem(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) scanSection(row pgx.Row) (*domain.MenuSection, error) {
	var s domain.MenuSection
	if err := row.Scan(&s.ID, &s.Name, &s.SortOrder, &s.Active, &s.CreatedAt); err != nil {
		return nil, r.mapErr(err, "section")
	}
	return &s, nil
}

func (r *postgresRepo) scanItem(row pgx.Row) (*domain.MenuItem, error) {
	var item domain.MenuItem
	err := row.Scan(
		&item.ID,
		&item.SectionID,
		&item.Name,
		&item.Description,
		&item.PriceCents,
		&item.ImageURL,
		&item.Available,
		&item.SortOrder,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, r.mapErr(err, "item")
	}
	return &item, nil
}

func (r *postgresRepo) mapErr(err error, kind string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrAlreadyExists
	}
	r.logger.Printf("menu repo: scan %s error=%v", kind, err)
	return err
}
