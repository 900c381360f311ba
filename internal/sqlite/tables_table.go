package sqlite

import (
	"fmt"
	"sync"

	"github.com/freeform-db/freeform/pkg/types"
)

// TableObj describes one registered virtual table. IsNumeric fixes the
// primary-key scalar type for the table's lifetime.
type TableObj struct {
	ID        int
	Name      string
	IsNumeric bool
}

// Tables is the table registry. It resolves virtual table names to
// stable integer ids, creating rows lazily. The caches are owned by
// this instance and die with it; identifier allocation is linearized
// under the mutex so content addressing holds for concurrent callers.
type Tables struct {
	db *DB

	mu        sync.Mutex
	cache     map[string]int
	cacheBack map[int]TableObj
}

// NewTables creates the registry over db.
func NewTables(db *DB) *Tables {
	return &Tables{
		db:        db,
		cache:     make(map[string]int),
		cacheBack: make(map[int]TableObj),
	}
}

// GetID resolves a table name to its id, inserting a new row with the
// given isNumeric flag when absent. With noCreate, a missing table
// yields -1 under noException, an error otherwise.
func (t *Tables) GetID(name string, isNumeric, noCreate, noException bool) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id, ok := t.cache[name]; ok {
		return id, nil
	}

	params := Params{"@name": types.String(name)}
	id, found, err := t.db.ExecScalarInt32(
		`SELECT id FROM tables WHERE name = @name`, params)
	if err != nil {
		return -1, err
	}
	if found {
		t.cache[name] = id
		return id, nil
	}

	if noCreate {
		if noException {
			return -1, nil
		}
		return -1, fmt.Errorf("tables.GetID cannot create new table %q: %w", name, types.ErrNotFound)
	}

	params["@isNumeric"] = boolParam(isNumeric)
	newID, err := t.db.ExecInsert(
		`INSERT INTO tables (name, isNumeric) VALUES (@name, @isNumeric)`, params)
	if err != nil {
		return -1, err
	}
	t.cache[name] = int(newID)
	return int(newID), nil
}

// GetTable returns the descriptor for id, nil for the -1 sentinel, and
// an error for an id that should exist but does not.
func (t *Tables) GetTable(id int) (*TableObj, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id < 0 {
		return nil, nil
	}
	if obj, ok := t.cacheBack[id]; ok {
		return &obj, nil
	}

	reader, err := t.db.ExecReader(
		`SELECT name, isNumeric FROM tables WHERE id = @id`,
		Params{"@id": types.Number(float64(id))})
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	if !reader.Read() {
		if err := reader.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("tables.GetTable fails to find record %d: %w", id, types.ErrNotFound)
	}

	obj := TableObj{ID: id, Name: reader.GetString(0), IsNumeric: reader.GetBoolean(1)}
	t.cacheBack[id] = obj
	return &obj, nil
}

// ClearCache empties both caches atomically.
func (t *Tables) ClearCache() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache = make(map[string]int)
	t.cacheBack = make(map[int]TableObj)
}

// Reset deletes every table row and invalidates the caches.
func (t *Tables) Reset() error {
	if _, err := t.db.ExecSQL(`DELETE FROM tables`, nil); err != nil {
		return err
	}
	t.ClearCache()
	return nil
}

func boolParam(b bool) types.StrNum {
	if b {
		return types.Number(1)
	}
	return types.Number(0)
}
