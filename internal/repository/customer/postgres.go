package customer

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

const customerColumns = `
id::text, name, phone, address, total_orders, total_spent_cents, is_vip, is_blocked,
first_seen_at, last_order_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	q := `
INSERT INTO customers (name, phone, address, total_orders, total_spent_cents, is_vip, is_blocked, first_seen_at, last_order_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()), $9)
RETURNING ` + customerColumns
	var firstSeen interface{}
	if !c.FirstSeenAt.IsZero() {
		firstSeen = c.FirstSeenAt
	}
	return r.scanCustomer(r.pool.QueryRow(
		ctx,
		q,
		c.Name,
		c.PhoneNumber,
		c.Address,
		c.TotalOrders,
		c.TotalSpentCents,
		c.IsVIP,
		c.IsBlocked,
		firstSeen,
		c.LastOrderAt,
	))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	q := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1 LIMIT 1`
	return r.scanCustomer(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) GetByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	q := `SELECT ` + customerColumns + ` FROM customers WHERE phone = $1 LIMIT 1`
	return r.scanCustomer(r.pool.QueryRow(ctx, q, phone))
}

func (r *postgresRepo) List(ctx context.Context, limit int) ([]domain.Customer, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	q := `SELECT ` + customerColumns + ` FROM customers ORDER BY last_order_at DESC NULLS LAST LIMIT $1`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Customer
	for rows.Next() {
		c, err := r.scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) Update(ctx context.Context, id string, in UpdateInput) (*domain.Customer, error) {
	sets := []string{"updated_at = now()"}
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
	if in.Address != nil {
		addSet("address", *in.Address)
	}
	if in.TotalOrders != nil {
		addSet("total_orders", *in.TotalOrders)
	}
	if in.TotalSpent != nil {
		addSet("total_spent_cents", *in.TotalSpent)
	}
	if in.IsVIP != nil {
		addSet("is_vip", *in.IsVIP)
	}
	if in.IsBlocked != nil {
		addSet("is_blocked", *in.IsBlocked)
	}
	if in.LastOrderAt != nil {
		addSet("last_order_at", *in.LastOrderAt)
	}

	q := fmt.Sprintf(`UPDATE customers SET %s WHERE id = $%d RETURNING `, strings.Join(sets, ", "), idx) + customerColumns
	args = append(args, id)
	return r.scanCustomer(r.pool.QueryRow(ctx, q, args...))
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM customers`)
	return err
}

func (r *postgresRepo) scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.PhoneNumber,
		&c.Address,
		&c.TotalOrders,
		&c.TotalSpentCents,
		&c.IsVIP,
		&c.IsBlocked,
		&c.FirstSeenAt,
		&c.LastOrderAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("customer repo: scan error=%v", err)
		return nil, err
	}
	return &c, nil
}
