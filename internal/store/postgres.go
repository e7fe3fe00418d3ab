package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/addrbook/internal/config"
	"github.com/JonMunkholm/addrbook/internal/core"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS addresses (
    id           BIGSERIAL PRIMARY KEY,
    first_name   TEXT NOT NULL,
    last_name    TEXT NOT NULL,
    street       TEXT NOT NULL,
    apartment_no TEXT,
    city         TEXT NOT NULL,
    postal_code  TEXT NOT NULL,
    description  TEXT,
    label_marked BOOLEAN NOT NULL DEFAULT FALSE,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_addresses_name ON addresses(last_name, first_name, id);
CREATE INDEX IF NOT EXISTS idx_addresses_label ON addresses(label_marked) WHERE label_marked;
`

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Postgres stores records in PostgreSQL.
type Postgres struct {
	db   DBTX
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing connection. The schema must already exist;
// see Migrate.
func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

// OpenPostgres creates a pool from cfg, verifies the connection and applies
// the schema.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := &Postgres{db: pool, pool: pool}
	if err := p.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// Migrate creates the addresses table if it is missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases the pool if Postgres owns one.
func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *Postgres) FetchAll(ctx context.Context) ([]core.Address, error) {
	rows, err := p.db.Query(ctx, `SELECT `+addressColumns+` FROM addresses`+orderBy)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var out []core.Address
	for rows.Next() {
		a, err := scanPostgres(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return out, nil
}

func (p *Postgres) Get(ctx context.Context, id int64) (core.Address, error) {
	row := p.db.QueryRow(ctx, `SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id)
	a, err := scanPostgres(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Address{}, core.ErrNotFound
	}
	return a, err
}

func (p *Postgres) Insert(ctx context.Context, rec core.NewAddress) (core.Address, error) {
	row := p.db.QueryRow(ctx,
		`INSERT INTO addresses (
            first_name, last_name, street, apartment_no, city, postal_code,
            description, label_marked
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING `+addressColumns,
		rec.FirstName,
		rec.LastName,
		rec.Street,
		toPgText(rec.ApartmentNo),
		rec.City,
		rec.PostalCode,
		toPgText(rec.Description),
		rec.LabelMarked,
	)
	a, err := scanPostgres(row)
	if err != nil {
		return core.Address{}, fmt.Errorf("insert address: %w", err)
	}
	return a, nil
}

func (p *Postgres) Update(ctx context.Context, id int64, patch core.AddressPatch) (core.Address, error) {
	sets := patchAssignments(patch)
	if len(sets) == 0 {
		return p.Get(ctx, id)
	}

	clauses := make([]string, 0, len(sets)+1)
	args := make([]any, 0, len(sets)+1)
	for i, a := range sets {
		clauses = append(clauses, fmt.Sprintf("%s = $%d", a.column, i+1))
		args = append(args, a.value)
	}
	clauses = append(clauses, "updated_at = now()")
	args = append(args, id)

	row := p.db.QueryRow(ctx,
		`UPDATE addresses SET `+strings.Join(clauses, ", ")+
			fmt.Sprintf(` WHERE id = $%d RETURNING `, len(args))+addressColumns,
		args...)
	a, err := scanPostgres(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Address{}, core.ErrNotFound
	}
	if err != nil {
		return core.Address{}, fmt.Errorf("update address %d: %w", id, err)
	}
	return a, nil
}

func scanPostgres(r pgx.Row) (core.Address, error) {
	var (
		a                core.Address
		apartment, desc  pgtype.Text
		created, updated pgtype.Timestamptz
	)
	err := r.Scan(
		&a.ID, &a.FirstName, &a.LastName, &a.Street, &apartment, &a.City,
		&a.PostalCode, &desc, &a.LabelMarked, &created, &updated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Address{}, err
		}
		return core.Address{}, fmt.Errorf("scan address: %w", err)
	}
	a.ApartmentNo = apartment.String
	a.Description = desc.String
	a.CreatedAt = created.Time
	a.UpdatedAt = updated.Time
	return a, nil
}

// toPgText maps an empty string to SQL NULL.
func toPgText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
