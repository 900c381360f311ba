package sqlite

import (
	"fmt"

	"github.com/freeform-db/freeform/pkg/types"
)

// Values is the content-addressed scalar store: the same scalar always
// resolves to the same id, and a string never shares a row with a
// textually equal number. There is deliberately no cache here; values
// have far higher cardinality than tables or names, so every call
// takes the storage round-trip. A concurrent first-insert of the same
// scalar can surface a benign unique-constraint error that the caller
// may retry.
type Values struct {
	db *DB
}

// NewValues creates the store over db.
func NewValues(db *DB) *Values {
	return &Values{db: db}
}

// GetID resolves value to its id, inserting a new row (and, for
// strings, the companion full-text row) when absent.
func (v *Values) GetID(value types.StrNum) (int64, error) {
	id, err := v.getIDSelect(value)
	if err != nil {
		return -1, err
	}
	if id >= 0 {
		return id, nil
	}
	return v.getIDInsert(value)
}

// GetValue returns the scalar stored under id.
func (v *Values) GetValue(id int64) (types.StrNum, error) {
	reader, err := v.db.ExecReader(
		`SELECT isNumeric, numberValue, stringValue FROM bvalues WHERE id = @id`,
		Params{"@id": types.Number(float64(id))})
	if err != nil {
		return types.StrNum{}, err
	}
	defer reader.Close()
	if !reader.Read() {
		if err := reader.Err(); err != nil {
			return types.StrNum{}, err
		}
		return types.StrNum{}, fmt.Errorf("values.GetValue fails to find record %d: %w", id, types.ErrNotFound)
	}
	if reader.GetBoolean(0) {
		return types.Number(reader.GetDouble(1)), nil
	}
	return types.String(reader.GetString(2)), nil
}

// Reset deletes every value row and its full-text shadow.
func (v *Values) Reset() error {
	if _, err := v.db.ExecSQL(`DELETE FROM bvalues`, nil); err != nil {
		return err
	}
	if _, err := v.db.ExecSQL(`DELETE FROM bvaluetext`, nil); err != nil {
		return err
	}
	return nil
}

func (v *Values) getIDSelect(value types.StrNum) (int64, error) {
	var query string
	var params Params
	if value.IsStr() {
		query = `SELECT id FROM bvalues WHERE isNumeric = 0 AND stringValue = @stringValue`
		params = Params{"@stringValue": value}
	} else {
		query = `SELECT id FROM bvalues WHERE isNumeric = 1 AND numberValue = @numberValue`
		params = Params{"@numberValue": value}
	}
	id, found, err := v.db.ExecScalarInt64(query, params)
	if err != nil {
		return -1, err
	}
	if !found {
		return -1, nil
	}
	return id, nil
}

func (v *Values) getIDInsert(value types.StrNum) (int64, error) {
	if value.IsStr() {
		id, err := v.db.ExecInsert(
			`INSERT INTO bvalues (isNumeric, numberValue, stringValue) VALUES (0, 0.0, @stringValue)`,
			Params{"@stringValue": value})
		if err != nil {
			return -1, err
		}
		_, err = v.db.ExecInsert(
			`INSERT INTO bvaluetext (valueid, stringSearchValue) VALUES (@id, @stringValue)`,
			Params{"@id": types.Number(float64(id)), "@stringValue": value})
		if err != nil {
			return -1, err
		}
		return id, nil
	}

	return v.db.ExecInsert(
		`INSERT INTO bvalues (isNumeric, numberValue, stringValue) VALUES (1, @numberValue, '')`,
		Params{"@numberValue": value})
}
