// Package quoting provides shared SQL identifier quoting.
package quoting

import "strings"

// Backtick quotes a SQL identifier using backticks (MySQL-style), the
// dialect this compiler targets for TableColumn field names that need
// quoting. Internal backticks are escaped by doubling them.
func Backtick(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}
