package order

import (
	"context"
	"encoding/json"
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

const orderColumns = `
id::text, code, customer_name, customer_phone, customer_address, table_number, pickup_time,
items, fulfillment_type, subtotal_cents, delivery_fee_cents, discount_cents, total_cents,
coupon, geo, zone_id::text, status, notes, is_vip, is_blocked,
confirmed_at, prepared_at, dispatched_at, delivered_at, cancelled_at, cancelled_reason,
created_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return nil, err
	}
	var couponJSON []byte
	if o.Coupon != nil {
		if couponJSON, err = json.Marshal(o.Coupon); err != nil {
			return nil, err
		}
	}
	var geoJSON []byte
	if o.Geo != nil {
		if geoJSON, err = json.Marshal(o.Geo); err != nil {
			return nil, err
		}
	}

	q := `
INSERT INTO orders (
    code, customer_name, customer_phone, customer_address, table_number, pickup_time,
    items, fulfillment_type, subtotal_cents, delivery_fee_cents, discount_cents, total_cents,
    coupon, geo, zone_id, status, notes, is_vip, is_blocked
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
RETURNING ` + orderColumns
	return r.scanOrder(r.pool.QueryRow(
		ctx,
		q,
		o.Code,
		o.CustomerInfo.Name,
		o.CustomerInfo.PhoneNumber,
		o.CustomerInfo.Address,
		o.CustomerInfo.TableNumber,
		o.CustomerInfo.PickupTime,
		itemsJSON,
		o.Type,
		o.SubtotalCents,
		o.DeliveryFeeCents,
		o.DiscountCents,
		o.TotalCents,
		couponJSON,
		geoJSON,
		o.ZoneID,
		o.Status,
		o.Notes,
		o.IsVIP,
		o.IsBlocked,
	))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 LIMIT 1`
	return r.scanOrder(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) GetByCode(ctx context.Context, code string) (*domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE upper(code) = upper($1) LIMIT 1`
	return r.scanOrder(r.pool.QueryRow(ctx, q, code))
}

func (r *postgresRepo) List(ctx context.Context, filter ListFilter, limit int) ([]domain.Order, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	var conds []string
	var args []interface{}
	idx := 1
	addCond := func(cond string, arg interface{}) {
		conds = append(conds, fmt.Sprintf(cond, idx))
		args = append(args, arg)
		idx++
	}
	if filter.Status != nil {
		addCond("status = $%d", *filter.Status)
	}
	if filter.Type != nil {
		addCond("fulfillment_type = $%d", *filter.Type)
	}
	if filter.VIP != nil {
		addCond("is_vip = $%d", *filter.VIP)
	}
	if filter.Blocked != nil {
		addCond("is_blocked = $%d", *filter.Blocked)
	}

	q := `SELECT ` + orderColumns + ` FROM orders`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", idx)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collectOrders(rows)
}

func (r *postgresRepo) ListDeliveredAsc(ctx context.Context) ([]domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE status = 'delivered' ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collectOrders(rows)
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, in UpdateStatusInput) (*domain.Order, error) {
	sets := []string{"status = $1", "updated_at = now()"}
	args := []interface{}{in.Status}
	idx := 2

	switch in.Status {
	case domain.StatusConfirmation:
		sets = append(sets, "confirmed_at = now()")
	case domain.StatusPreparing:
		sets = append(sets, "prepared_at = now()")
	case domain.StatusOutForDelivery:
		sets = append(sets, "dispatched_at = now()")
	case domain.StatusDelivered:
		sets = append(sets, "delivered_at = now()")
	case domain.StatusCancelled:
		sets = append(sets, "cancelled_at = now()")
	}
	if in.Notes != nil {
		sets = append(sets, fmt.Sprintf("notes = $%d", idx))
		args = append(args, *in.Notes)
		idx++
	}
	if in.CancelledReason != nil {
		sets = append(sets, fmt.Sprintf("cancelled_reason = $%d", idx))
		args = append(args, *in.CancelledReason)
		idx++
	}

	q := fmt.Sprintf(`UPDATE orders SET %s WHERE id = $%d RETURNING `, strings.Join(sets, ", "), idx) + orderColumns
	args = append(args, id)
	return r.scanOrder(r.pool.QueryRow(ctx, q, args...))
}

func (r *postgresRepo) Update(ctx context.Context, id string, in UpdateInput) (*domain.Order, error) {
	sets := []string{"updated_at = now()"}
	var args []interface{}
	idx := 1
	addSet := func(col string, arg interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, arg)
		idx++
	}
	if in.CustomerInfo != nil {
		addSet("customer_name", in.CustomerInfo.Name)
		addSet("customer_phone", in.CustomerInfo.PhoneNumber)
		addSet("customer_address", in.CustomerInfo.Address)
		addSet("table_number", in.CustomerInfo.TableNumber)
		addSet("pickup_time", in.CustomerInfo.PickupTime)
	}
	if in.Items != nil {
		itemsJSON, err := json.Marshal(in.Items)
		if err != nil {
			return nil, err
		}
		addSet("items", itemsJSON)
	}
	if in.SubtotalCents != nil {
		addSet("subtotal_cents", *in.SubtotalCents)
	}
	if in.TotalCents != nil {
		addSet("total_cents", *in.TotalCents)
	}
	if in.Notes != nil {
		addSet("notes", *in.Notes)
	}
	if in.IsVIP != nil {
		addSet("is_vip", *in.IsVIP)
	}
	if in.IsBlocked != nil {
		addSet("is_blocked", *in.IsBlocked)
	}

	q := fmt.Sprintf(`UPDATE orders SET %s WHERE id = $%d RETURNING `, strings.Join(sets, ", "), idx) + orderColumns
	args = append(args, id)
	return r.scanOrder(r.pool.QueryRow(ctx, q, args...))
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) CountAll(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *postgresRepo) collectOrders(rows pgx.Rows) ([]domain.Order, error) {
	var out []domain.Order
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var itemsJSON, couponJSON, geoJSON []byte
	err := row.Scan(
		&o.ID,
		&o.Code,
		&o.CustomerInfo.Name,
		&o.CustomerInfo.PhoneNumber,
		&o.CustomerInfo.Address,
		&o.CustomerInfo.TableNumber,
		&o.CustomerInfo.PickupTime,
		&itemsJSON,
		&o.Type,
		&o.SubtotalCents,
		&o.DeliveryFeeCents,
		&o.DiscountCents,
		&o.TotalCents,
		&couponJSON,
		&geoJSON,
		&o.ZoneID,
		&o.Status,
		&o.Notes,
		&o.IsVIP,
		&o.IsBlocked,
		&o.ConfirmedAt,
		&o.PreparedAt,
		&o.DispatchedAt,
		&o.DeliveredAt,
		&o.CancelledAt,
		&o.CancelledReason,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("order repo: scan error=%v", err)
		return nil, err
	}
	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			r.logger.Printf("order repo: decode items id=%s err=%v", o.ID, err)
			return nil, err
		}
	}
	if len(couponJSON) > 0 {
		if err := json.Unmarshal(couponJSON, &o.Coupon); err != nil {
			r.logger.Printf("order repo: decode coupon id=%s err=%v", o.ID, err)
			return nil, err
		}
	}
	if len(geoJSON) > 0 {
		if err := json.Unmarshal(geoJSON, &o.Geo); err != nil {
			r.logger.Printf("order repo: decode geo id=%s err=%v", o.ID, err)
			return nil, err
		}
	}
	return &o, nil
}
