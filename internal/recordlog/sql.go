package recordlog

import (
	"fmt"
	"strings"
)

// Both SQL backends keep one table per log: an auto-incrementing seq column
// that fixes append order, then one TEXT column per header field.

func tableName(schemaName string) string {
	return schemaName + "_log"
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func columnList(header []string) string {
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = quoteIdent(h)
	}
	return strings.Join(cols, ", ")
}

func columnDefs(header []string) string {
	defs := make([]string, len(header))
	for i, h := range header {
		defs[i] = quoteIdent(h) + " TEXT NOT NULL DEFAULT ''"
	}
	return strings.Join(defs, ", ")
}

func placeholders(n int, mark func(i int) string) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = mark(i + 1)
	}
	return strings.Join(ps, ", ")
}

func dollar(i int) string { return fmt.Sprintf("$%d", i) }

func question(int) string { return "?" }
