// Package migrations holds the numbered schema migrations of the history
// database. Files are named NNN_name.up.sql and applied in order.
package migrations

import "embed"

// FS contains the migration files.
//
//go:embed *.sql
var FS embed.FS
