package sqlite

import (
	"fmt"
	"sync"

	"github.com/freeform-db/freeform/pkg/types"
)

// NameObj describes one attribute definition under a table. IsNumeric
// fixes the value scalar type for that attribute within its table.
type NameObj struct {
	ID        int
	TableID   int
	Name      string
	IsNumeric bool
}

// Names is the name registry: (table, attribute) pairs resolved to
// stable integer ids with lazy creation. The forward cache keys on
// (tableId, name); two tables sharing an attribute name never read
// each other's ids. Caches are instance-scoped and all mutations
// serialize through one mutex.
type Names struct {
	db *DB

	mu           sync.Mutex
	cache        map[string]int
	cacheBack    map[int]NameObj
	numericCache map[int]bool
}

// NewNames creates the registry over db.
func NewNames(db *DB) *Names {
	return &Names{
		db:           db,
		cache:        make(map[string]int),
		cacheBack:    make(map[int]NameObj),
		numericCache: make(map[int]bool),
	}
}

func nameCacheKey(tableID int, name string) string {
	return fmt.Sprintf("%d_%s", tableID, name)
}

// GetID resolves an attribute name under tableID to its id, inserting
// a new row with the given isNumeric flag when absent. Fails when name
// is not a valid identifier or collides with a reserved pseudo-column.
// With noCreate, a missing name yields -1 under noException, an error
// otherwise.
func (n *Names) GetID(tableID int, name string, isNumeric, noCreate, noException bool) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	cacheKey := nameCacheKey(tableID, name)
	if id, ok := n.cache[cacheKey]; ok {
		return id, nil
	}

	if !types.IsWord(name) {
		return -1, fmt.Errorf("names.GetID %q: %w", name, types.ErrInvalidName)
	}
	if types.IsNameReserved(name) {
		return -1, fmt.Errorf("names.GetID %q: %w", name, types.ErrReservedName)
	}

	params := Params{
		"@tableId": types.Number(float64(tableID)),
		"@name":    types.String(name),
	}
	id, found, err := n.db.ExecScalarInt32(
		`SELECT id FROM names WHERE tableid = @tableId AND name = @name`, params)
	if err != nil {
		return -1, err
	}
	if found {
		n.cache[cacheKey] = id
		return id, nil
	}

	if noCreate {
		if noException {
			return -1, nil
		}
		return -1, fmt.Errorf("names.GetID cannot create new name %q: %w", name, types.ErrNotFound)
	}

	params["@isNumeric"] = boolParam(isNumeric)
	newID, err := n.db.ExecInsert(
		`INSERT INTO names (tableid, name, isNumeric) VALUES (@tableId, @name, @isNumeric)`, params)
	if err != nil {
		return -1, err
	}
	n.cache[cacheKey] = int(newID)
	return int(newID), nil
}

// GetName returns the descriptor for id, failing when no row matches.
func (n *Names) GetName(id int) (*NameObj, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if obj, ok := n.cacheBack[id]; ok {
		return &obj, nil
	}

	reader, err := n.db.ExecReader(
		`SELECT tableid, name, isNumeric FROM names WHERE id = @id`,
		Params{"@id": types.Number(float64(id))})
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	if !reader.Read() {
		if err := reader.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("names.GetName fails to find record %d: %w", id, types.ErrNotFound)
	}

	obj := NameObj{
		ID:        id,
		TableID:   reader.GetInt32(0),
		Name:      reader.GetString(1),
		IsNumeric: reader.GetBoolean(2),
	}
	n.cacheBack[id] = obj
	return &obj, nil
}

// GetNameIsNumeric returns the stored type flag for id. Negative ids
// are the pseudo/absent-column sentinel and read as false.
func (n *Names) GetNameIsNumeric(id int) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if id < 0 {
		return false, nil
	}
	if isNumeric, ok := n.numericCache[id]; ok {
		return isNumeric, nil
	}

	numericNum, _, err := n.db.ExecScalarInt32(
		`SELECT isNumeric FROM names WHERE id = @id`,
		Params{"@id": types.Number(float64(id))})
	if err != nil {
		return false, err
	}
	isNumeric := numericNum != 0
	n.numericCache[id] = isNumeric
	return isNumeric, nil
}

// ClearCache empties all three caches atomically.
func (n *Names) ClearCache() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cache = make(map[string]int)
	n.cacheBack = make(map[int]NameObj)
	n.numericCache = make(map[int]bool)
}

// Reset deletes every name row and invalidates the caches.
func (n *Names) Reset() error {
	if _, err := n.db.ExecSQL(`DELETE FROM names`, nil); err != nil {
		return err
	}
	n.ClearCache()
	return nil
}
