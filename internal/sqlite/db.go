// Package sqlite implements the physical storage layer for the freeform
// virtual schema: a thin wrapper over database/sql with the pure-Go
// SQLite driver, plus the four stores (tables, names, values, items)
// that realize virtual tables on the fixed physical layout.
package sqlite

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/freeform-db/freeform/pkg/types"
)

// Params maps parameter names (with the "@" prefix) to scalar values.
type Params map[string]types.StrNum

// Stmt is one precompiled statement for batch execution.
type Stmt struct {
	SQL    string
	Params Params
}

// DB wraps a single SQLite connection. It is exclusively owned by one
// facade instance; concurrent use is coordinated by the caller.
type DB struct {
	sqlDB *sql.DB
}

// Open opens the database file at path, creating it if absent.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer connection; WAL handles concurrent readers.
	sqlDB.SetMaxOpenConns(1)
	return &DB{sqlDB: sqlDB}, nil
}

// Close releases the connection.
func (d *DB) Close() error {
	return d.sqlDB.Close()
}

// ExecReader runs a query and returns a cursor over its rows.
// Parameters bind through engine-native named arguments.
func (d *DB) ExecReader(query string, params Params) (*Reader, error) {
	rows, err := d.sqlDB.Query(query, namedArgs(params)...)
	if err != nil {
		return nil, wrapEngineErr(err)
	}
	return newReader(rows)
}

// ExecSQL runs a non-query statement and returns the affected count.
func (d *DB) ExecSQL(query string, params Params) (int64, error) {
	res, err := d.sqlDB.Exec(query, namedArgs(params)...)
	if err != nil {
		return 0, wrapEngineErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapEngineErr(err)
	}
	return n, nil
}

// ExecInsert runs an INSERT and returns the new row id.
func (d *DB) ExecInsert(query string, params Params) (int64, error) {
	res, err := d.sqlDB.Exec(query, namedArgs(params)...)
	if err != nil {
		return 0, wrapEngineErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapEngineErr(err)
	}
	return id, nil
}

// ExecScalarInt64 runs a query and returns the first column of the
// first row. The bool result is false when no row matched.
func (d *DB) ExecScalarInt64(query string, params Params) (int64, bool, error) {
	reader, err := d.ExecReader(query, params)
	if err != nil {
		return 0, false, err
	}
	defer reader.Close()
	if !reader.Read() {
		return 0, false, reader.Err()
	}
	return reader.GetInt64(0), true, reader.Err()
}

// ExecScalarInt32 is ExecScalarInt64 narrowed to int.
func (d *DB) ExecScalarInt32(query string, params Params) (int, bool, error) {
	v, ok, err := d.ExecScalarInt64(query, params)
	return int(v), ok, err
}

// ExecScalarString runs a query and returns the first column of the
// first row stringified. The bool result is false when no row matched.
func (d *DB) ExecScalarString(query string, params Params) (string, bool, error) {
	reader, err := d.ExecReader(query, params)
	if err != nil {
		return "", false, err
	}
	defer reader.Close()
	if !reader.Read() {
		return "", false, reader.Err()
	}
	return reader.GetString(0), true, reader.Err()
}

// ExecMulti runs statements inside one transaction, rolling back on
// the first failure.
func (d *DB) ExecMulti(stmts []Stmt) error {
	tx, err := d.sqlDB.Begin()
	if err != nil {
		return wrapEngineErr(err)
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt.SQL, namedArgs(stmt.Params)...); err != nil {
			_ = tx.Rollback()
			return wrapEngineErr(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return wrapEngineErr(err)
	}
	return nil
}

// ApplyParams substitutes parameters into query as SQL literals, with
// embedded quotes doubled. This is the compatibility fallback for
// callers that need pre-rendered SQL text; the exec paths above bind
// natively instead.
func ApplyParams(query string, params Params) string {
	// Longest names first so @foobar is not clobbered by @foo.
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	for _, name := range names {
		query = strings.ReplaceAll(query, name, params[name].ToSQLLiteral())
	}
	return query
}

// namedArgs converts a param map to driver named arguments, stripping
// the "@" prefix sql.Named expects to be absent.
func namedArgs(params Params) []any {
	if len(params) == 0 {
		return nil
	}
	args := make([]any, 0, len(params))
	for name, value := range params {
		name = strings.TrimPrefix(name, "@")
		if value.IsStr() {
			s, _ := value.Str()
			args = append(args, sql.Named(name, s))
		} else {
			n, _ := value.Num()
			args = append(args, sql.Named(name, n))
		}
	}
	return args
}

// wrapEngineErr surfaces the engine message behind a stable prefix.
func wrapEngineErr(err error) error {
	return fmt.Errorf("SQLite error: %w", err)
}
