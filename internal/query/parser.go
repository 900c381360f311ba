// Package query implements the restrictive SQL dialect: a tokenizer
// and straight-line parser for SELECT ... FROM ... WHERE ... ORDER BY
// ... LIMIT, and the compiler that turns a parsed query plus the
// dynamic schema into physical SQL against the join-heavy layout.
package query

import (
	"strconv"
	"strings"

	"github.com/freeform-db/freeform/pkg/types"
)

// Parser states, advanced strictly forward with no backtracking.
type parseState int

const (
	stateSelect parseState = iota
	stateFrom
	stateWhere
	stateOrder
	stateLimit
)

// Tokenize splits query text on whitespace. There is no quoting or
// escaping; commas stay suffix-attached to the preceding token.
func Tokenize(s string) []string {
	return strings.Fields(s)
}

func parseErr(msg string) error {
	return &types.ParseError{Msg: msg}
}

// Parse turns dialect text into a Select ready for adding parameters
// and executing. Dialect violations fail with the fixed parse-error
// messages; identifier problems fail with validation errors.
func Parse(text string) (*types.Select, error) {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil, parseErr("No tokens")
	}

	sel := &types.Select{}
	curState := stateSelect
	idx := 0

loop:
	for idx < len(tokens) {
		currentToken := tokens[idx]
		switch curState {
		case stateSelect:
			if !strings.EqualFold(currentToken, "SELECT") {
				return nil, parseErr("No SELECT")
			}

			// Slurp up the SELECT columns.
			for {
				idx++
				if idx >= len(tokens) {
					return nil, parseErr("No SELECT columns")
				}

				currentToken = tokens[idx]

				lastColumn := !strings.HasSuffix(currentToken, ",")
				if !lastColumn {
					currentToken = currentToken[:len(currentToken)-1]
				}

				if err := types.ValidateColumnName(currentToken); err != nil {
					return nil, err
				}
				sel.SelectCols = append(sel.SelectCols, currentToken)

				if lastColumn {
					break
				}
			}

			idx++
			curState = stateFrom

		case stateFrom:
			if !strings.EqualFold(currentToken, "FROM") {
				return nil, parseErr("No FROM")
			}

			idx++
			if idx >= len(tokens) {
				return nil, parseErr("No FROM table")
			}

			currentToken = tokens[idx]
			if err := types.ValidateTableName(currentToken); err != nil {
				return nil, err
			}
			sel.From = currentToken
			idx++
			curState = stateWhere

		case stateWhere:
			if !strings.EqualFold(currentToken, "WHERE") {
				curState = stateOrder
				continue
			}

			// Gobble up criteria triples, chaining on AND.
			idx++
			crits := types.NewCriteriaSet()
			for idx+3 <= len(tokens) {
				crit := types.Criteria{
					Name:      tokens[idx],
					Op:        tokens[idx+1],
					ParamName: tokens[idx+2],
				}
				idx += 3
				if err := types.ValidateColumnName(crit.Name); err != nil {
					return nil, err
				}
				if err := types.ValidateOperator(crit.Op); err != nil {
					return nil, err
				}
				if err := types.ValidateParameterName(crit.ParamName); err != nil {
					return nil, err
				}
				crits.AddCriteria(crit)

				if idx+3 <= len(tokens) && strings.EqualFold(tokens[idx], "AND") {
					idx++
					continue
				}
				break
			}

			if len(crits.Criteria) == 0 {
				return nil, parseErr("No WHERE criteria")
			}
			sel.Where = append(sel.Where, *crits)

			curState = stateOrder

		case stateOrder:
			var nextToken string
			if idx+1 < len(tokens) {
				nextToken = tokens[idx+1]
			}
			if idx+3 > len(tokens) ||
				!strings.EqualFold(currentToken, "ORDER") ||
				!strings.EqualFold(nextToken, "BY") {
				curState = stateLimit
				continue
			}

			idx += 2

			for idx < len(tokens) {
				currentToken = tokens[idx]

				currentEnds := idx == len(tokens)-1 || strings.HasSuffix(currentToken, ",")

				nextToken = "ASC"
				if !currentEnds && idx+1 < len(tokens) {
					idx++
					nextToken = tokens[idx]
				}

				nextEnds := strings.HasSuffix(nextToken, ",")
				isLimit := strings.EqualFold(nextToken, "LIMIT")
				lastColumn := isLimit || !(currentEnds || nextEnds)

				currentToken = strings.TrimSuffix(currentToken, ",")
				nextToken = strings.TrimSuffix(nextToken, ",")

				var descending bool
				switch {
				case strings.EqualFold(nextToken, "ASC"):
					descending = false
				case strings.EqualFold(nextToken, "DESC"):
					descending = true
				case isLimit:
					descending = false
				default:
					return nil, parseErr("Invalid ORDER BY")
				}

				if err := types.ValidateColumnName(currentToken); err != nil {
					return nil, err
				}

				sel.OrderBy = append(sel.OrderBy, types.Order{Field: currentToken, Descending: descending})

				// A LIMIT seen where a direction was expected ends the
				// list without being consumed.
				if !isLimit {
					idx++
				}

				if lastColumn {
					break
				}
			}

			curState = stateLimit

		case stateLimit:
			if !strings.EqualFold(currentToken, "LIMIT") {
				return nil, parseErr("Invalid final statement")
			}

			idx++
			if idx >= len(tokens) {
				return nil, parseErr("No LIMIT value")
			}
			currentToken = tokens[idx]

			limitVal, err := strconv.Atoi(currentToken)
			if err != nil || limitVal <= 0 {
				return nil, parseErr("Invalid LIMIT value")
			}
			sel.Limit = limitVal

			idx++
			break loop
		}
	}

	if idx < len(tokens) {
		return nil, parseErr("Not all parsed")
	}

	if len(sel.SelectCols) == 0 {
		return nil, parseErr("No SELECT columns")
	}

	if sel.From == "" {
		return nil, parseErr("No FROM")
	}

	return sel, nil
}
