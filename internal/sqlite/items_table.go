package sqlite

import (
	"github.com/freeform-db/freeform/pkg/types"
)

// Items is the item store: one row per (table, primary-key value)
// pair, with the item's sparse attributes in itemnamevalues. No
// in-process locking of its own; uniqueness rides on the engine's
// (valueid, tableid) constraint.
type Items struct {
	db *DB
}

// NewItems creates the store over db.
func NewItems(db *DB) *Items {
	return &Items{db: db}
}

// GetID finds the item for (tableID, valueID), inserting it with
// created = lastmodified = now when absent. With noCreate a miss
// yields -1.
func (it *Items) GetID(tableID int, valueID int64, noCreate bool) (int64, error) {
	params := Params{
		"@tableId": types.Number(float64(tableID)),
		"@valueId": types.Number(float64(valueID)),
	}

	id, found, err := it.db.ExecScalarInt64(
		`SELECT id FROM items WHERE tableid = @tableId AND valueid = @valueId`, params)
	if err != nil {
		return -1, err
	}
	if found {
		return id, nil
	}

	if noCreate {
		return -1, nil
	}

	return it.db.ExecInsert(
		`INSERT INTO items (tableid, valueid, created, lastmodified) `+
			`VALUES (@tableId, @valueId, DATETIME('now'), DATETIME('now'))`, params)
}

// GetItemData returns the item's sparse attribute map, name id to
// value id.
func (it *Items) GetItemData(itemID int64) (map[int]int64, error) {
	reader, err := it.db.ExecReader(
		`SELECT nameid, valueid FROM itemnamevalues WHERE itemid = @itemId`,
		Params{"@itemId": types.Number(float64(itemID))})
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data := make(map[int]int64)
	for reader.Read() {
		data[reader.GetInt32(0)] = reader.GetInt64(1)
	}
	if err := reader.Err(); err != nil {
		return nil, err
	}
	return data, nil
}

// SetItemData touches the item's lastmodified and upserts every
// attribute entry, overwriting the value id where the (item, name)
// pair already exists. Statements run one at a time; only batch
// upserts take an explicit transaction.
func (it *Items) SetItemData(itemID int64, data map[int]int64) error {
	for _, stmt := range it.SetItemDataSQL(itemID, data) {
		if _, err := it.db.ExecSQL(stmt.SQL, stmt.Params); err != nil {
			return err
		}
	}
	return nil
}

// SetItemDataSQL precomputes the statements SetItemData would run, so
// batch upserts can collect several items' writes and execute them
// under one transaction with a single commit.
func (it *Items) SetItemDataSQL(itemID int64, data map[int]int64) []Stmt {
	stmts := make([]Stmt, 0, len(data)+1)
	stmts = append(stmts, Stmt{
		SQL:    `UPDATE items SET lastmodified = DATETIME('now') WHERE id = @itemId`,
		Params: Params{"@itemId": types.Number(float64(itemID))},
	})
	for nameID, valueID := range data {
		stmts = append(stmts, Stmt{
			SQL: `INSERT INTO itemnamevalues (itemid, nameid, valueid) ` +
				`VALUES (@itemId, @nameId, @valueId) ` +
				`ON CONFLICT(itemid, nameid) ` +
				`DO UPDATE SET valueid = @valueId`,
			Params: Params{
				"@itemId":  types.Number(float64(itemID)),
				"@nameId":  types.Number(float64(nameID)),
				"@valueId": types.Number(float64(valueID)),
			},
		})
	}
	return stmts
}

// RemoveItemData touches lastmodified and deletes the (item, name)
// attribute row. Deleting an absent attribute is a silent no-op.
func (it *Items) RemoveItemData(itemID int64, nameID int) error {
	_, err := it.db.ExecSQL(
		`UPDATE items SET lastmodified = DATETIME('now') WHERE id = @itemId`,
		Params{"@itemId": types.Number(float64(itemID))})
	if err != nil {
		return err
	}
	_, err = it.db.ExecSQL(
		`DELETE FROM itemnamevalues WHERE itemid = @itemId AND nameid = @nameId`,
		Params{
			"@itemId": types.Number(float64(itemID)),
			"@nameId": types.Number(float64(nameID)),
		})
	return err
}

// DeleteItem removes the item row and its attribute rows.
func (it *Items) DeleteItem(itemID int64) error {
	params := Params{"@itemId": types.Number(float64(itemID))}
	if _, err := it.db.ExecSQL(`DELETE FROM itemnamevalues WHERE itemid = @itemId`, params); err != nil {
		return err
	}
	_, err := it.db.ExecSQL(`DELETE FROM items WHERE id = @itemId`, params)
	return err
}

// Reset deletes every item and attribute row.
func (it *Items) Reset() error {
	if _, err := it.db.ExecSQL(`DELETE FROM itemnamevalues`, nil); err != nil {
		return err
	}
	_, err := it.db.ExecSQL(`DELETE FROM items`, nil)
	return err
}
