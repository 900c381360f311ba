package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/freeform-db/freeform/internal/sqlite"
	"github.com/freeform-db/freeform/pkg/types"
)

// Registries is what the compiler needs from the dynamic schema: the
// table and name registries, resolved in no-create mode so compiling a
// query never mutates the schema.
type Registries struct {
	Tables *sqlite.Tables
	Names  *sqlite.Names
}

// GenerateSQL translates a parsed virtual query into physical SQL.
//
// An unknown table or attribute is not an error: unresolved SELECT
// columns become NULL, unresolved WHERE columns become a false
// predicate, so querying names that do not exist yet yields a
// well-defined empty result. Parameters stay as @name placeholders
// for engine-native binding.
func GenerateSQL(reg Registries, q *types.Select) (string, error) {
	if q.From == "" {
		return "", parseErr("Invalid query, FROM is missing")
	}
	if len(q.SelectCols) == 0 {
		return "", parseErr("Invalid query, SELECT is empty")
	}

	for _, order := range q.OrderBy {
		if !contains(q.SelectCols, order.Field) {
			return "", parseErr("Invalid query, ORDER BY columns must be present in SELECT column list: " + order.Field)
		}
	}

	for _, crits := range q.Where {
		for _, crit := range crits.Criteria {
			if err := types.ValidateColumnName(crit.Name); err != nil {
				return "", err
			}
			if err := types.ValidateOperator(crit.Op); err != nil {
				return "", err
			}
			if err := types.ValidateParameterName(crit.ParamName); err != nil {
				return "", err
			}
		}
	}

	// Resolve the table in no-create mode; unknown table means no
	// data, not an error.
	tableID, err := reg.Tables.GetID(q.From, false, true, true)
	if err != nil {
		return "", err
	}
	tableObj, err := reg.Tables.GetTable(tableID)
	if err != nil {
		return "", err
	}

	// Distinct set of every referenced column, in first-seen order.
	var names []string
	seen := make(map[string]bool)
	addName := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, name := range q.SelectCols {
		addName(name)
	}
	for _, order := range q.OrderBy {
		addName(order.Field)
	}
	for _, crits := range q.Where {
		for _, crit := range crits.Criteria {
			addName(crit.Name)
		}
	}

	// Resolve each to a descriptor; reserved pseudo-columns and
	// unknown attributes stay nil ("absent").
	nameObjs := make(map[string]*sqlite.NameObj, len(names))
	for _, name := range names {
		if types.IsNameReserved(name) {
			nameObjs[name] = nil
			continue
		}
		nameID, err := reg.Names.GetID(tableID, name, false, true, true)
		if err != nil {
			return "", err
		}
		if nameID < 0 {
			nameObjs[name] = nil
			continue
		}
		nameObj, err := reg.Names.GetName(nameID)
		if err != nil {
			return "", err
		}
		nameObjs[name] = nameObj
	}

	// SELECT
	var selectPart strings.Builder
	for _, name := range q.SelectCols {
		cleanName := types.CleanseName(name)

		if selectPart.Len() > 0 {
			selectPart.WriteString(",\n")
		}

		switch {
		case name == "value":
			switch {
			case tableObj == nil:
				selectPart.WriteString("NULL")
			case tableObj.IsNumeric:
				selectPart.WriteString("bv.numberValue")
			default:
				selectPart.WriteString("bv.stringValue")
			}
		case name == "id":
			selectPart.WriteString("i.id")
		case name == "created":
			selectPart.WriteString("i.created")
		case name == "lastmodified":
			selectPart.WriteString("i.lastmodified")
		case name == "count":
			selectPart.WriteString("COUNT(*)")
		case name == "rank":
			selectPart.WriteString("rank")
		case nameObjs[name] == nil:
			selectPart.WriteString("NULL")
		case nameObjs[name].IsNumeric:
			selectPart.WriteString("iv" + cleanName + ".numberValue")
		default:
			selectPart.WriteString("iv" + cleanName + ".stringValue")
		}

		selectPart.WriteString(" AS " + cleanName)
	}
	selectSQL := "SELECT\n" + selectPart.String()

	// FROM: base item table, the value join only when the value
	// pseudo-column is referenced, one left-outer-join per resolved
	// attribute.
	fromPart := "FROM\nitems AS i"
	if _, ok := nameObjs["value"]; ok {
		fromPart += "\nJOIN bvalues bv ON bv.id = i.valueid"
	}
	for _, name := range names {
		if types.IsNameReserved(name) || nameObjs[name] == nil {
			continue
		}
		cleanName := types.CleanseName(name)
		fromPart += "\nLEFT OUTER JOIN itemvalues AS iv" + cleanName +
			" ON iv" + cleanName + ".itemid = i.id" +
			" AND iv" + cleanName + ".nameid = " + strconv.Itoa(nameObjs[name].ID)
	}

	// WHERE: always anchored on the table id. MATCHES routes through
	// the full-text table and implicitly orders by rank.
	orderBy := append([]types.Order{}, q.OrderBy...)
	wherePart := "i.tableid = " + strconv.Itoa(tableID)
	for _, crits := range q.Where {
		wherePart += "\nAND\n("
		for critIdx, crit := range crits.Criteria {
			if critIdx > 0 {
				wherePart += " " + string(crits.Combine) + " "
			}

			name := crit.Name
			nameObj := nameObjs[name]
			cleanName := types.CleanseName(name)

			switch {
			case strings.EqualFold(crit.Op, "MATCHES"):
				matchTableLabel := "bvt" + cleanName
				matchColumnLabel := "iv" + cleanName + ".valueid"
				if cleanName == "value" {
					matchTableLabel = "bvtValue"
					matchColumnLabel = "i.valueid"
				}
				fromPart += "\nJOIN bvaluetext " + matchTableLabel +
					" ON " + matchColumnLabel + " = " + matchTableLabel + ".valueid"
				wherePart += matchTableLabel + ".stringSearchValue MATCH " + crit.ParamName
				orderBy = append(orderBy, types.Order{Field: "rank"})
			case cleanName == "id":
				wherePart += "i.id " + crit.Op + " " + crit.ParamName
			case cleanName == "value":
				switch {
				case tableObj == nil:
					wherePart += "1 = 0" // no table, no match
				case tableObj.IsNumeric:
					wherePart += "bv.numberValue " + crit.Op + " " + crit.ParamName
				default:
					wherePart += "bv.stringValue " + crit.Op + " " + crit.ParamName
				}
			case cleanName == "created" || cleanName == "lastmodified":
				wherePart += cleanName + " " + crit.Op + " " + crit.ParamName
			case nameObj == nil:
				wherePart += "1 = 0" // name doesn't exist, no match
			case nameObj.IsNumeric:
				wherePart += "iv" + cleanName + ".numberValue " + crit.Op + " " + crit.ParamName
			default:
				wherePart += "iv" + cleanName + ".stringValue " + crit.Op + " " + crit.ParamName
			}
		}
		wherePart += ")"
	}
	whereSQL := "WHERE\n" + wherePart

	// ORDER BY
	var orderParts []string
	for _, order := range orderBy {
		orderColumn := order.Field
		if !types.IsNameReserved(orderColumn) {
			orderColumn = types.CleanseName(orderColumn)
		}
		dir := " ASC"
		if order.Descending {
			dir = " DESC"
		}
		orderParts = append(orderParts, orderColumn+dir)
	}
	var orderSQL string
	if len(orderParts) > 0 {
		orderSQL = "ORDER BY\n" + strings.Join(orderParts, ",\n")
	}

	// LIMIT
	var limitSQL string
	if q.Limit > 0 {
		limitSQL = "LIMIT\n" + strconv.Itoa(q.Limit)
	}

	parts := []string{selectSQL, fromPart, whereSQL}
	if orderSQL != "" {
		parts = append(parts, orderSQL)
	}
	if limitSQL != "" {
		parts = append(parts, limitSQL)
	}
	return strings.Join(parts, "\n\n"), nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// Describe renders a one-line summary of a parsed query, used by the
// CLI's verbose logging.
func Describe(q *types.Select) string {
	return fmt.Sprintf("SELECT %s FROM %s (where=%d order=%d limit=%d)",
		strings.Join(q.SelectCols, ", "), q.From, len(q.Where), len(q.OrderBy), q.Limit)
}
