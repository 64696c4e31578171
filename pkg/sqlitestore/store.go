// Package sqlitestore provides SQLite-backed fetch procedures for resolve
// descriptors: a table can act as the primary source, the fallback source,
// or both. The engine itself stays storage-agnostic; this package only
// produces closures satisfying the descriptor's collaborator contracts.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "modernc.org/sqlite"

	resolve "github.com/goliatone/go-resolve"
)

// Store wraps a SQLite database used as an entity source.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: ping %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying handle for schema setup and seeding.
func (s *Store) DB() *sql.DB {
	return s.db
}

// PrimaryFetch returns a primary fetch procedure reading one row from table,
// matching every key column against the criteria. A missing row yields
// resolve.ErrNotFound; the matched row's columns populate a fresh instance
// of the descriptor's entity type through raw storage.
func (s *Store) PrimaryFetch(d *resolve.Descriptor, table string, keys ...string) resolve.PrimaryFetch {
	return func(ctx context.Context, criteria resolve.Criteria) (*resolve.Instance, error) {
		record, err := s.fetchRow(ctx, table, keys, criteria)
		if err != nil {
			return nil, err
		}
		inst := d.NewInstance()
		for column, value := range record {
			inst.RawSet(column, value)
		}
		return inst, nil
	}
}

// FallbackFetch returns a fallback fetch procedure reading one row from
// table as a raw record. A missing row yields resolve.ErrNotFound, which is
// a hard failure on the fallback path.
func (s *Store) FallbackFetch(table string, keys ...string) resolve.FallbackFetch {
	return func(ctx context.Context, criteria resolve.Criteria) (resolve.RawRecord, error) {
		return s.fetchRow(ctx, table, keys, criteria)
	}
}

func (s *Store) fetchRow(ctx context.Context, table string, keys []string, criteria resolve.Criteria) (resolve.RawRecord, error) {
	if err := validIdent(table); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("sqlitestore: table %s: at least one key column required", table)
	}

	clauses := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, key := range keys {
		if err := validIdent(key); err != nil {
			return nil, err
		}
		value, ok := criteria[key]
		if !ok {
			return nil, fmt.Errorf("sqlitestore: criteria missing key %q for table %s", key, table)
		}
		clauses = append(clauses, fmt.Sprintf("%s = ?", key))
		args = append(args, value)
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s LIMIT 1", table, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: query %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: columns %s: %w", table, err)
	}

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan %s: %w", table, err)
		}
		return nil, resolve.ErrNotFound
	}

	values := make([]any, len(columns))
	scans := make([]any, len(columns))
	for i := range values {
		scans[i] = &values[i]
	}
	if err := rows.Scan(scans...); err != nil {
		return nil, fmt.Errorf("sqlitestore: scan %s: %w", table, err)
	}

	record := make(resolve.RawRecord, len(columns))
	for i, column := range columns {
		record[column] = normalizeValue(values[i])
	}
	return record, nil
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("sqlitestore: invalid identifier %q", name)
	}
	return nil
}

// normalizeValue maps driver byte slices to strings so records compare and
// serialise cleanly.
func normalizeValue(value any) any {
	if b, ok := value.([]byte); ok {
		return string(b)
	}
	return value
}
