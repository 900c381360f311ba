package sqlite

import (
	"database/sql"
	"strconv"

	"github.com/freeform-db/freeform/pkg/types"
)

// Reader is a forward-only cursor over query results. Read advances to
// the next row and keeps returning false once the rows are exhausted.
// Callers own the reader for the duration of their iteration and
// should Close it when done early.
type Reader struct {
	rows *sql.Rows
	cols []string
	vals []any
	done bool
	err  error
}

func newReader(rows *sql.Rows) (*Reader, error) {
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, wrapEngineErr(err)
	}
	return &Reader{rows: rows, cols: cols, vals: make([]any, len(cols))}, nil
}

// Read advances to the next row, returning false at the end of the
// result set and on every call thereafter.
func (r *Reader) Read() bool {
	if r.done {
		return false
	}
	if !r.rows.Next() {
		r.done = true
		r.err = r.rows.Err()
		r.rows.Close()
		return false
	}
	ptrs := make([]any, len(r.vals))
	for i := range r.vals {
		ptrs[i] = &r.vals[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		r.done = true
		r.err = wrapEngineErr(err)
		r.rows.Close()
		return false
	}
	return true
}

// Err returns the first error hit while advancing, if any.
func (r *Reader) Err() error {
	return r.err
}

// Close releases the underlying rows. Safe to call more than once.
func (r *Reader) Close() error {
	r.done = true
	return r.rows.Close()
}

// GetColumnCount returns the number of result columns.
func (r *Reader) GetColumnCount() int {
	return len(r.cols)
}

// GetColumnName returns the alias of column idx.
func (r *Reader) GetColumnName(idx int) string {
	return r.cols[idx]
}

// IsNull reports whether column idx of the current row is NULL.
func (r *Reader) IsNull(idx int) bool {
	return r.vals[idx] == nil
}

// GetString stringifies column idx of the current row whatever its
// underlying type. NULL reads as "null".
func (r *Reader) GetString(idx int) string {
	switch v := r.vals[idx].(type) {
	case nil:
		return "null"
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return types.FormatNumber(v)
	case bool:
		if v {
			return "1"
		}
		return "0"
	default:
		return "blob"
	}
}

// GetDouble returns column idx as a float64, 0 when not numeric.
func (r *Reader) GetDouble(idx int) float64 {
	switch v := r.vals[idx].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case string:
		n, _ := strconv.ParseFloat(v, 64)
		return n
	case []byte:
		n, _ := strconv.ParseFloat(string(v), 64)
		return n
	default:
		return 0
	}
}

// GetInt64 returns column idx as an int64, 0 when not numeric.
func (r *Reader) GetInt64(idx int) int64 {
	switch v := r.vals[idx].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	case []byte:
		n, _ := strconv.ParseInt(string(v), 10, 64)
		return n
	default:
		return 0
	}
}

// GetInt32 returns column idx as an int, 0 when not numeric.
func (r *Reader) GetInt32(idx int) int {
	return int(r.GetInt64(idx))
}

// GetBoolean returns column idx as a bool (nonzero is true).
func (r *Reader) GetBoolean(idx int) bool {
	return r.GetInt64(idx) != 0
}
