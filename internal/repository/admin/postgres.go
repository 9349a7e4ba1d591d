package admin

import (
	"context"
	"errors"
	"strings"

	"fooddirect/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const adminColumns = `id::text, email, password_hash, name, created_at`

func (r *postgresRepo) Create(ctx context.Context, a domain.Admin) (*domain.Admin, error) {
	q := `
INSERT INTO admins (email, password_hash, name)
VALUES ($1, $2, $3)
RETURNING ` + adminColumns
	return r.scanAdmin(r.pool.QueryRow(ctx, q, strings.ToLower(a.Email), a.PasswordHash, a.Name))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	q := `SELECT ` + adminColumns + ` FROM admins WHERE lower(email) = lower($1) LIMIT 1`
	return r.scanAdmin(r.pool.QueryRow(ctx, q, email))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	q := `SELECT ` + adminColumns + ` FROM admins WHERE id = $1 LIMIT 1`
	return r.scanAdmin(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) scanAdmin(row pgx.Row) (*domain.Admin, error) {
	var a domain.Admin
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return &a, nil
}
