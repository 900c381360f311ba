package freeform

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/freeform-db/freeform/internal/query"
	"github.com/freeform-db/freeform/internal/sqlite"
	"github.com/freeform-db/freeform/pkg/types"
)

// buildMu serializes first-time schema bootstrap across Contexts
// opening the same path.
var buildMu sync.Mutex

// Context is the facade over the virtual schema. It exclusively owns
// one storage connection plus the registries and their caches; it is
// not safe for unsynchronized concurrent use beyond what the registry
// mutexes protect. Multiple Contexts on one file coordinate through
// the engine's WAL.
type Context struct {
	db     *sqlite.DB
	tables *sqlite.Tables
	names  *sqlite.Names
	values *sqlite.Values
	items  *sqlite.Items
	log    *slog.Logger
	closed bool
}

// Option configures a Context at Open.
type Option func(*Context)

// WithLogger routes the Context's debug logging to log. By default
// nothing is logged.
func WithLogger(log *slog.Logger) Option {
	return func(c *Context) {
		c.log = log
	}
}

// Open opens (and on first use bootstraps) the database at path.
// Bootstrap runs under a process-wide lock so concurrent opens of a
// fresh file build the schema exactly once.
func Open(path string, opts ...Option) (*Context, error) {
	if err := bootstrap(path); err != nil {
		return nil, err
	}

	db, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}

	ctx := &Context{
		db:     db,
		tables: sqlite.NewTables(db),
		names:  sqlite.NewNames(db),
		values: sqlite.NewValues(db),
		items:  sqlite.NewItems(db),
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(ctx)
	}
	ctx.log.Debug("context opened", "path", path)
	return ctx, nil
}

func bootstrap(path string) error {
	buildMu.Lock()
	defer buildMu.Unlock()

	if _, err := os.Stat(path); err == nil {
		return nil
	}

	db, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return sqlite.RunSchema(db)
}

// Close releases the storage connection. Idempotent.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.db.Close()
}

// ClearCaches drops the registry caches, forcing re-resolution from
// storage.
func (c *Context) ClearCaches() {
	c.names.ClearCache()
	c.tables.ClearCache()
}

// Define upserts one row: the table and any new attribute names are
// created on first reference, existing attributes are overwritten,
// attributes not mentioned are left alone. The key's scalar type fixes
// the table's primary-key type on creation; each attribute value's
// type fixes that attribute's type, and a later write of the other
// type fails with ErrTypeMismatch.
func (c *Context) Define(table string, key types.StrNum, attrs map[string]types.StrNum) error {
	if c.closed {
		return types.ErrClosed
	}
	itemID, nameValueIDs, err := c.prepareDefine(table, key, attrs)
	if err != nil {
		return err
	}
	return c.items.SetItemData(itemID, nameValueIDs)
}

// DefineMany upserts a batch of rows under one transaction: either
// every attribute write in the batch becomes visible or none do. All
// keys must share one scalar type. progress, when non-nil, is called
// after each row's statements are prepared.
func (c *Context) DefineMany(table string, rows map[types.StrNum]map[string]types.StrNum, progress func(done, total int)) error {
	if c.closed {
		return types.ErrClosed
	}
	if len(rows) == 0 {
		return nil
	}

	var sawStr, sawNum bool
	for key := range rows {
		if key.IsStr() {
			sawStr = true
		} else {
			sawNum = true
		}
	}
	if sawStr && sawNum {
		return types.ErrMixedKeyTypes
	}

	var stmts []sqlite.Stmt
	done := 0
	for key, attrs := range rows {
		itemID, nameValueIDs, err := c.prepareDefine(table, key, attrs)
		if err != nil {
			return err
		}
		stmts = append(stmts, c.items.SetItemDataSQL(itemID, nameValueIDs)...)
		done++
		if progress != nil {
			progress(done, len(rows))
		}
	}

	c.log.Debug("batch define", "table", table, "rows", len(rows), "statements", len(stmts))
	return c.db.ExecMulti(stmts)
}

// prepareDefine resolves the table, key value, item, and attribute ids
// for one upsert, enforcing per-attribute type consistency.
func (c *Context) prepareDefine(table string, key types.StrNum, attrs map[string]types.StrNum) (int64, map[int]int64, error) {
	isKeyNumeric := !key.IsStr()
	tableID, err := c.tables.GetID(table, isKeyNumeric, false, false)
	if err != nil {
		return -1, nil, err
	}
	valueID, err := c.values.GetID(key)
	if err != nil {
		return -1, nil, err
	}
	itemID, err := c.items.GetID(tableID, valueID, false)
	if err != nil {
		return -1, nil, err
	}

	nameValueIDs := make(map[int]int64, len(attrs))
	for name, value := range attrs {
		isValueNumeric := !value.IsStr()

		nameID, err := c.names.GetID(tableID, name, isValueNumeric, false, false)
		if err != nil {
			return -1, nil, err
		}
		isNameNumeric, err := c.names.GetNameIsNumeric(nameID)
		if err != nil {
			return -1, nil, err
		}
		if isValueNumeric != isNameNumeric {
			return -1, nil, types.ErrTypeMismatch
		}

		nameValueIDs[nameID], err = c.values.GetID(value)
		if err != nil {
			return -1, nil, err
		}
	}
	return itemID, nameValueIDs, nil
}

// Undefine removes one attribute from one row. Removing an attribute
// the row does not carry is a no-op.
func (c *Context) Undefine(table string, key types.StrNum, name string) error {
	if c.closed {
		return types.ErrClosed
	}
	isKeyNumeric := !key.IsStr()
	tableID, err := c.tables.GetID(table, isKeyNumeric, true, false)
	if err != nil {
		return err
	}
	valueID, err := c.values.GetID(key)
	if err != nil {
		return err
	}
	itemID, err := c.items.GetID(tableID, valueID, false)
	if err != nil {
		return err
	}
	nameID, err := c.names.GetID(tableID, name, false, true, false)
	if err != nil {
		return err
	}
	return c.items.RemoveItemData(itemID, nameID)
}

// DeleteRow removes one row by primary key.
func (c *Context) DeleteRow(table string, key types.StrNum) error {
	return c.DeleteRows(table, []types.StrNum{key})
}

// DeleteRows removes rows by primary key. An unknown table or key is a
// no-op.
func (c *Context) DeleteRows(table string, keys []types.StrNum) error {
	if c.closed {
		return types.ErrClosed
	}
	tableID, err := c.tables.GetID(table, false, true, true)
	if err != nil {
		return err
	}
	if tableID < 0 {
		return nil
	}
	for _, key := range keys {
		valueID, err := c.values.GetID(key)
		if err != nil {
			return err
		}
		itemID, err := c.items.GetID(tableID, valueID, true)
		if err != nil {
			return err
		}
		if itemID < 0 {
			continue
		}
		if err := c.items.DeleteItem(itemID); err != nil {
			return err
		}
	}
	return nil
}

// Drop removes a whole virtual table: its attribute definitions, its
// rows, and their attribute values. Returns false when the table did
// not exist. A table redefined after Drop gets a fresh id.
func (c *Context) Drop(table string) (bool, error) {
	if c.closed {
		return false, types.ErrClosed
	}
	tableID, err := c.tables.GetID(table, true, true, true)
	if err != nil {
		return false, err
	}
	if tableID < 0 {
		return false, nil
	}

	params := sqlite.Params{"@tableId": types.Number(float64(tableID))}
	cascade := []string{
		`DELETE FROM itemnamevalues WHERE nameid IN (SELECT id FROM names WHERE tableid = @tableId)`,
		`DELETE FROM names WHERE tableid = @tableId`,
		`DELETE FROM items WHERE tableid = @tableId`,
		`DELETE FROM tables WHERE id = @tableId`,
	}
	for _, stmt := range cascade {
		if _, err := c.db.ExecSQL(stmt, params); err != nil {
			return false, err
		}
	}

	c.ClearCaches()
	c.log.Debug("dropped table", "table", table, "id", tableID)
	return true, nil
}

// Reset wipes all virtual data back to empty and drops the caches.
func (c *Context) Reset() error {
	if c.closed {
		return types.ErrClosed
	}
	if err := c.items.Reset(); err != nil {
		return err
	}
	if err := c.values.Reset(); err != nil {
		return err
	}
	if err := c.names.Reset(); err != nil {
		return err
	}
	return c.tables.Reset()
}

// EnsureTable registers a table name ahead of any row writes and
// returns its id.
func (c *Context) EnsureTable(name string, isNumeric bool) (int, error) {
	if c.closed {
		return -1, types.ErrClosed
	}
	return c.tables.GetID(name, isNumeric, false, false)
}

// GetSchema maps virtual table names to their column names, both in
// sorted order. With a non-empty table argument the response covers
// just that table.
func (c *Context) GetSchema(table string) (*types.Schema, error) {
	if c.closed {
		return nil, types.ErrClosed
	}

	sql := `SELECT t.name AS tablename, n.name AS colname ` +
		`FROM tables t JOIN names n ON n.tableid = t.id`
	params := sqlite.Params{}
	if table != "" {
		sql += ` WHERE t.name = @name`
		params["@name"] = types.String(table)
	}
	sql += ` ORDER BY tablename, colname`

	reader, err := c.db.ExecReader(sql, params)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	schema := &types.Schema{}
	for reader.Read() {
		schema.Add(reader.GetString(0), reader.GetString(1))
	}
	if err := reader.Err(); err != nil {
		return nil, err
	}
	return schema, nil
}

// GetRowID bridges a primary key to its row id, -1 when absent. This
// is the hook for foreign-key-like patterns across virtual tables.
func (c *Context) GetRowID(table string, key types.StrNum) (int64, error) {
	if err := types.ValidateTableName(table); err != nil {
		return -1, err
	}
	sel, err := query.Parse("SELECT id FROM " + table + " WHERE value = @value")
	if err != nil {
		return -1, err
	}
	sel.AddParam("@value", key)
	id, ok, err := c.ExecScalarInt64(sel)
	if err != nil {
		return -1, err
	}
	if !ok {
		return -1, nil
	}
	return id, nil
}

// GetRowNumberValue is the reverse bridge for numeric-keyed tables:
// row id back to primary key. The bool result is false when the row
// is absent.
func (c *Context) GetRowNumberValue(table string, rowID int64) (float64, bool, error) {
	sel, err := c.rowValueQuery(table, rowID)
	if err != nil {
		return 0, false, err
	}
	return c.ExecScalarDouble(sel)
}

// GetRowStringValue is the reverse bridge for string-keyed tables.
func (c *Context) GetRowStringValue(table string, rowID int64) (string, bool, error) {
	sel, err := c.rowValueQuery(table, rowID)
	if err != nil {
		return "", false, err
	}
	return c.ExecScalarString(sel)
}

func (c *Context) rowValueQuery(table string, rowID int64) (*types.Select, error) {
	if err := types.ValidateTableName(table); err != nil {
		return nil, err
	}
	sel, err := query.Parse("SELECT value FROM " + table + " WHERE id = @id")
	if err != nil {
		return nil, err
	}
	sel.AddParam("@id", types.Number(float64(rowID)))
	return sel, nil
}

// GetItemData returns a row's attribute ids (name id to value id) by
// item id.
func (c *Context) GetItemData(itemID int64) (map[int]int64, error) {
	if c.closed {
		return nil, types.ErrClosed
	}
	return c.items.GetItemData(itemID)
}

// GetItemMetadata resolves a name-id-to-value-id map into attribute
// names and scalar values.
func (c *Context) GetItemMetadata(ids map[int]int64) (map[string]types.StrNum, error) {
	if c.closed {
		return nil, types.ErrClosed
	}
	metadata := make(map[string]types.StrNum, len(ids))
	for nameID, valueID := range ids {
		nameObj, err := c.names.GetName(nameID)
		if err != nil {
			return nil, err
		}
		value, err := c.values.GetValue(valueID)
		if err != nil {
			return nil, err
		}
		metadata[nameObj.Name] = value
	}
	return metadata, nil
}

// Parse turns dialect text into a Select ready for adding parameters
// and executing.
func (c *Context) Parse(sql string) (*types.Select, error) {
	return query.Parse(sql)
}

// GenerateSQL compiles a parsed query against the current dynamic
// schema into physical SQL.
func (c *Context) GenerateSQL(q *types.Select) (string, error) {
	if c.closed {
		return "", types.ErrClosed
	}
	return query.GenerateSQL(query.Registries{Tables: c.tables, Names: c.names}, q)
}

// ExecQuery compiles and runs a query, returning a cursor whose
// lifetime is scoped to the caller's iteration.
func (c *Context) ExecQuery(q *types.Select) (*sqlite.Reader, error) {
	if c.closed {
		return nil, types.ErrClosed
	}
	sql, err := c.GenerateSQL(q)
	if err != nil {
		return nil, err
	}
	c.log.Debug("exec query", "query", query.Describe(q))
	return c.db.ExecReader(sql, sqlite.Params(q.Params))
}

// ExecScalarInt64 runs a query and returns the first column of the
// first row. The bool result is false when no row matched.
func (c *Context) ExecScalarInt64(q *types.Select) (int64, bool, error) {
	reader, err := c.execScalar(q)
	if err != nil || reader == nil {
		return 0, false, err
	}
	defer reader.Close()
	return reader.GetInt64(0), true, nil
}

// ExecScalarDouble is ExecScalarInt64 for float64 results.
func (c *Context) ExecScalarDouble(q *types.Select) (float64, bool, error) {
	reader, err := c.execScalar(q)
	if err != nil || reader == nil {
		return 0, false, err
	}
	defer reader.Close()
	return reader.GetDouble(0), true, nil
}

// ExecScalarString is ExecScalarInt64 for stringified results.
func (c *Context) ExecScalarString(q *types.Select) (string, bool, error) {
	reader, err := c.execScalar(q)
	if err != nil || reader == nil {
		return "", false, err
	}
	defer reader.Close()
	return reader.GetString(0), true, nil
}

func (c *Context) execScalar(q *types.Select) (*sqlite.Reader, error) {
	reader, err := c.ExecQuery(q)
	if err != nil {
		return nil, err
	}
	if !reader.Read() {
		err := reader.Err()
		reader.Close()
		if err != nil {
			return nil, err
		}
		return nil, nil
	}
	return reader, nil
}
