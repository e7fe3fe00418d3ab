package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/addrbook/internal/core"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS addresses (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    first_name   TEXT NOT NULL,
    last_name    TEXT NOT NULL,
    street       TEXT NOT NULL,
    apartment_no TEXT,
    city         TEXT NOT NULL,
    postal_code  TEXT NOT NULL,
    description  TEXT,
    label_marked INTEGER NOT NULL DEFAULT 0,
    created_at   TEXT NOT NULL,
    updated_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_addresses_name ON addresses(last_name, first_name, id);
CREATE INDEX IF NOT EXISTS idx_addresses_label ON addresses(label_marked);
`

const addressColumns = `id, first_name, last_name, street, apartment_no, city, postal_code,
    description, label_marked, created_at, updated_at`

// SQLite stores records in a single SQLite file.
type SQLite struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLite{db: db, path: path, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) FetchAll(ctx context.Context) ([]core.Address, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+addressColumns+` FROM addresses`+orderBy)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var out []core.Address
	for rows.Next() {
		a, err := scanSQLite(rows)
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

func (s *SQLite) Get(ctx context.Context, id int64) (core.Address, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+addressColumns+` FROM addresses WHERE id = ?`, id)
	a, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Address{}, core.ErrNotFound
	}
	return a, err
}

func (s *SQLite) Insert(ctx context.Context, rec core.NewAddress) (core.Address, error) {
	timestamp := s.now().UTC().Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO addresses (
            first_name, last_name, street, apartment_no, city, postal_code,
            description, label_marked, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.FirstName,
		rec.LastName,
		rec.Street,
		nullableString(rec.ApartmentNo),
		rec.City,
		rec.PostalCode,
		nullableString(rec.Description),
		rec.LabelMarked,
		timestamp,
		timestamp,
	)
	if err != nil {
		return core.Address{}, fmt.Errorf("insert address: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Address{}, fmt.Errorf("last insert id: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *SQLite) Update(ctx context.Context, id int64, patch core.AddressPatch) (core.Address, error) {
	sets := patchAssignments(patch)
	if len(sets) == 0 {
		return s.Get(ctx, id)
	}

	clauses := make([]string, 0, len(sets)+1)
	args := make([]any, 0, len(sets)+2)
	for _, a := range sets {
		clauses = append(clauses, a.column+" = ?")
		args = append(args, a.value)
	}
	clauses = append(clauses, "updated_at = ?")
	args = append(args, s.now().UTC().Format(time.RFC3339Nano), id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE addresses SET `+strings.Join(clauses, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return core.Address{}, fmt.Errorf("update address %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Address{}, fmt.Errorf("update address %d: %w", id, err)
	}
	if n == 0 {
		return core.Address{}, core.ErrNotFound
	}
	return s.Get(ctx, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLite(r rowScanner) (core.Address, error) {
	var (
		a                      core.Address
		apartment, desc        sql.NullString
		createdRaw, updatedRaw string
	)
	err := r.Scan(
		&a.ID, &a.FirstName, &a.LastName, &a.Street, &apartment, &a.City,
		&a.PostalCode, &desc, &a.LabelMarked, &createdRaw, &updatedRaw,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Address{}, err
		}
		return core.Address{}, fmt.Errorf("scan address: %w", err)
	}
	a.ApartmentNo = apartment.String
	a.Description = desc.String
	a.CreatedAt = parseTimestamp(createdRaw)
	a.UpdatedAt = parseTimestamp(updatedRaw)
	return a, nil
}

func parseTimestamp(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
