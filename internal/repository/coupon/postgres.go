package coupon

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

const couponColumns = `
id::text, code, kind, percent, amount_cents, min_order_cents, usage_limit, usage_count,
active, valid_from, valid_until, created_at`

func (r *postgresRepo) Create(ctx context.Context, c domain.Coupon) (*domain.Coupon, error) {
	q := `
INSERT INTO coupons (code, kind, percent, amount_cents, min_order_cents, usage_limit, active, valid_from, valid_until)
VALUES (upper($1), $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + couponColumns
	return r.scanCoupon(r.pool.QueryRow(
		ctx,
		q,
		c.Code,
		c.Kind,
		c.Percent,
		c.AmountCents,
		c.MinOrderCents,
		c.UsageLimit,
		c.Active,
		c.ValidFrom,
		c.ValidUntil,
	))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Coupon, error) {
	q := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1 LIMIT 1`
	return r.scanCoupon(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	q := `SELECT ` + couponColumns + ` FROM coupons WHERE code = upper($1) LIMIT 1`
	return r.scanCoupon(r.pool.QueryRow(ctx, q, code))
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Coupon, error) {
	q := `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Coupon
	for rows.Next() {
		c, err := r.scanCoupon(rows)
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

func (r *postgresRepo) Update(ctx context.Context, id string, in UpdateInput) (*domain.Coupon, error) {
	var sets []string
	var args []interface{}
	idx := 1
	addSet := func(col string, arg interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, arg)
		idx++
	}
	if in.Kind != nil {
		addSet("kind", *in.Kind)
	}
	if in.Percent != nil {
		addSet("percent", *in.Percent)
	}
	if in.AmountCents != nil {
		addSet("amount_cents", *in.AmountCents)
	}
	if in.MinOrderCents != nil {
		addSet("min_order_cents", *in.MinOrderCents)
	}
	if in.UsageLimit != nil {
		addSet("usage_limit", *in.UsageLimit)
	}
	if in.Active != nil {
		addSet("active", *in.Active)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	q := fmt.Sprintf(`UPDATE coupons SET %s WHERE id = $%d RETURNING `, strings.Join(sets, ", "), idx) + couponColumns
	args = append(args, id)
	return r.scanCoupon(r.pool.QueryRow(ctx, q, args...))
}

func (r *postgresRepo) IncrementUsage(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE coupons SET usage_count = usage_count + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) scanCoupon(row pgx.Row) (*domain.Coupon, error) {
	var c domain.Coupon
	err := row.Scan(
		&c.ID,
		&c.Code,
		&c.Kind,
		&c.Percent,
		&c.AmountCents,
		&c.MinOrderCents,
		&c.UsageLimit,
		&c.UsageCount,
		&c.Active,
		&c.ValidFrom,
		&c.ValidUntil,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("coupon repo: scan error=%v", err)
		return nil, err
	}
	return &c, nil
}
