// Package store persists address records.
//
// Three backends satisfy [core.AddressStore]: an in-memory store for tests
// and throwaway runs, SQLite for single-machine deployments and PostgreSQL.
// [Open] picks one from the database URL.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/addrbook/internal/config"
	"github.com/JonMunkholm/addrbook/internal/core"
)

// Store is an AddressStore that holds resources.
type Store interface {
	core.AddressStore
	Close() error
}

// Open connects to the backend named by cfg.URL:
//
//	memory:               in-process, lost on exit
//	sqlite:PATH           SQLite file at PATH
//	postgres://...        PostgreSQL (postgresql:// also accepted)
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	scheme, rest, _ := strings.Cut(cfg.URL, ":")
	switch strings.ToLower(scheme) {
	case "memory":
		return NewMemory(), nil
	case "sqlite":
		s, err := OpenSQLite(ctx, strings.TrimPrefix(rest, "//"))
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres", "postgresql":
		p, err := OpenPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported database url scheme %q", scheme)
	}
}

// Backend names the backend Open would choose for url.
func Backend(url string) string {
	scheme, _, _ := strings.Cut(url, ":")
	switch strings.ToLower(scheme) {
	case "postgresql":
		return "postgres"
	default:
		return strings.ToLower(scheme)
	}
}

// assignment is one column of an UPDATE's SET list.
type assignment struct {
	column string
	value  any
}

// patchAssignments lists the columns a patch touches, in a fixed order.
// Cleared optional columns are stored as NULL; a cleared required column
// becomes the empty string.
func patchAssignments(p core.AddressPatch) []assignment {
	var out []assignment
	str := func(column string, f core.Field[string], optional bool) {
		if f.IsUnset() {
			return
		}
		v, _ := f.Value()
		if optional {
			out = append(out, assignment{column, nullableString(v)})
			return
		}
		out = append(out, assignment{column, v})
	}

	str("first_name", p.FirstName, false)
	str("last_name", p.LastName, false)
	str("street", p.Street, false)
	str("apartment_no", p.ApartmentNo, true)
	str("city", p.City, false)
	str("postal_code", p.PostalCode, false)
	str("description", p.Description, true)

	if !p.LabelMarked.IsUnset() {
		v, _ := p.LabelMarked.Value()
		out = append(out, assignment{"label_marked", v})
	}
	return out
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

const orderBy = ` ORDER BY last_name, first_name, id`
