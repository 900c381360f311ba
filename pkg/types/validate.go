package types

import (
	"fmt"
	"strings"
	"unicode"
)

// reservedNames are the pseudo-columns that map to fixed physical
// expressions instead of resolving through the name registry, plus the
// dialect keywords. Attribute names may not collide with these.
var reservedNames = map[string]bool{
	"select":       true,
	"from":         true,
	"where":        true,
	"order":        true,
	"limit":        true,
	"value":        true,
	"id":           true,
	"count":        true,
	"created":      true,
	"lastmodified": true,
	"rank":         true,
}

// validOps are the operators accepted in WHERE criteria.
var validOps = map[string]bool{
	"=":       true,
	"==":      true,
	"!=":      true,
	"<>":      true,
	">":       true,
	">=":      true,
	"!>":      true,
	"<":       true,
	"<=":      true,
	"!<":      true,
	"matches": true,
	"like":    true,
}

// IsWord reports whether s is a valid identifier: a letter followed by
// letters, digits, underscores, or hyphens.
func IsWord(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		if i == 0 {
			if !unicode.IsLetter(c) {
				return false
			}
			continue
		}
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_' && c != '-' {
			return false
		}
	}
	return true
}

// IsNameReserved reports whether name collides with a pseudo-column or
// keyword, case-insensitively.
func IsNameReserved(name string) bool {
	return reservedNames[strings.ToLower(name)]
}

// IsValidOp reports whether op is an accepted WHERE operator.
func IsValidOp(op string) bool {
	return validOps[strings.ToLower(op)]
}

// CleanseName strips non-alphanumeric characters from name to produce
// a legal physical-SQL identifier. An empty result becomes "a".
func CleanseName(name string) string {
	var sb strings.Builder
	for _, c := range name {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			sb.WriteRune(c)
		}
	}
	if sb.Len() == 0 {
		return "a"
	}
	return sb.String()
}

// ValidateTableName fails unless name is a valid identifier.
func ValidateTableName(name string) error {
	if !IsWord(name) {
		return &ValidationError{Msg: fmt.Sprintf("Invalid table name: %s", name)}
	}
	return nil
}

// ValidateColumnName fails unless name is a valid identifier or a
// reserved pseudo-column.
func ValidateColumnName(name string) error {
	if !IsWord(name) && !IsNameReserved(name) {
		return &ValidationError{Msg: fmt.Sprintf("Invalid column name: %s", name)}
	}
	return nil
}

// ValidateOperator fails unless op is an accepted WHERE operator.
func ValidateOperator(op string) error {
	if !IsValidOp(op) {
		return &ValidationError{Msg: fmt.Sprintf("Invalid query operator: %s", op)}
	}
	return nil
}

// ValidateParameterName fails unless name is "@" followed by a valid
// identifier.
func ValidateParameterName(name string) error {
	if len(name) < 2 || name[0] != '@' || !IsWord(name[1:]) {
		return &ValidationError{Msg: fmt.Sprintf("Invalid parameter name: %s", name)}
	}
	return nil
}
