// Shared helpers for freeform CLI commands.
package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/freeform-db/freeform/pkg/freeform"
	"github.com/freeform-db/freeform/pkg/types"
)

// openContext opens the configured database. The caller must defer
// ctx.Close().
func openContext() (*freeform.Context, error) {
	path := resolveDBPath()
	ctx, err := freeform.Open(path, freeform.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return ctx, nil
}

// parseScalar reads a CLI value as a StrNum: anything that parses as a
// float is a number, a value wrapped in single quotes is forced to a
// string, anything else is a string.
func parseScalar(s string) types.StrNum {
	if len(s) >= 2 && strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'") {
		return types.String(s[1 : len(s)-1])
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return types.Number(n)
	}
	return types.String(s)
}

// parseAttrs reads name=value arguments into an attribute map.
func parseAttrs(args []string) (map[string]types.StrNum, error) {
	attrs := make(map[string]types.StrNum, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected name=value, got %q", arg)
		}
		attrs[name] = parseScalar(value)
	}
	return attrs, nil
}

// renderValue formats a StrNum for display.
func renderValue(v types.StrNum) string {
	if v.IsStr() {
		s, _ := v.Str()
		return s
	}
	n, _ := v.Num()
	return types.FormatNumber(n)
}
