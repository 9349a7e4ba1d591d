package zone

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

const zoneColumns = `id::text, name, fee_cents, min_order_cents, active, created_at`

func (r *postgresRepo) Create(ctx context.Context, z domain.DeliveryZone) (*domain.DeliveryZone, error) {
	q := `
INSERT INTO delivery_zones (name, fee_cents, min_order_cents, active)
VALUES ($1, $2, $3, $4)
RETURNING ` + zoneColumns
	return r.scanZone(r.pool.QueryRow(ctx, q, z.Name, z.FeeCents, z.MinOrderCents, z.Active))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.DeliveryZone, error) {
	q := `SELECT ` + zoneColumns + ` FROM delivery_zones WHERE id = $1 LIMIT 1`
	return r.scanZone(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) List(ctx context.Context, activeOnly bool) ([]domain.DeliveryZone, error) {
	q := `SELECT ` + zoneColumns + ` FROM delivery_zones`
	if activeOnly {
		q += ` WHERE active`
	}
	q += ` ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DeliveryZone
	for rows.Next() {
		z, err := r.scanZone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *z)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) Update(ctx context.Context, id string, in UpdateInput) (*domain.DeliveryZone, error) {
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
	if in.FeeCents != nil {
		addSet("fee_cents", *in.FeeCents)
	}
	if in.MinOrderCents != nil {
		addSet("min_order_cents", *in.MinOrderCents)
	}
	if in.Active != nil {
		addSet("active", *in.Active)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	q := fmt.Sprintf(`UPDATE delivery_zones SET %s WHERE id = $%d RETURNING `, strings.Join(sets, ", "), idx) + zoneColumns
	args = append(args, id)
	return r.scanZone(r.pool.QueryRow(ctx, q, args...))
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM delivery_zones WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) scanZone(row pgx.Row) (*domain.DeliveryZone, error) {
	var z domain.DeliveryZone
	err := row.Scan(&z.ID, &z.Name, &z.FeeCents, &z.MinOrderCents, &z.Active, &z.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("zone repo: scan error=%v", err)
		return nil, err
	}
	return &z, nil
}
