package types

import (
	"strconv"
	"strings"
)

// StrNum is a scalar that is exactly one of a string or a float64.
// It maps directly onto the bvalues row shape: a string value and a
// number value never share an identity even when textually equal.
// The zero value is the number 0.
type StrNum struct {
	isStr bool
	str   string
	num   float64
}

// String creates a string-valued StrNum.
func String(s string) StrNum {
	return StrNum{isStr: true, str: s}
}

// Number creates a number-valued StrNum.
func Number(n float64) StrNum {
	return StrNum{num: n}
}

// IsStr reports whether the value holds a string.
func (v StrNum) IsStr() bool {
	return v.isStr
}

// Str returns the string value.
// Returns ErrNotAString if the value holds a number.
func (v StrNum) Str() (string, error) {
	if !v.isStr {
		return "", ErrNotAString
	}
	return v.str, nil
}

// Num returns the number value.
// Returns ErrNotANumber if the value holds a string.
func (v StrNum) Num() (float64, error) {
	if v.isStr {
		return 0, ErrNotANumber
	}
	return v.num, nil
}

// ToSQLLiteral renders the value as a SQL literal. Embedded single
// quotes in string values are doubled. This is the escaping rule for
// any path that cannot use engine-native parameter binding.
func (v StrNum) ToSQLLiteral() string {
	if v.isStr {
		return "'" + strings.ReplaceAll(v.str, "'", "''") + "'"
	}
	return FormatNumber(v.num)
}

// FormatNumber renders a float64 with the shortest representation that
// round-trips, matching how number values appear in generated SQL.
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
