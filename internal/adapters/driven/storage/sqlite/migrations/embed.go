// Package migrations embeds the SQL migration files for the SQLite
// store. Files are named NNN_description.up.sql and applied in order.
package migrations

import "embed"

// FS contains all migration files.
//
//go:embed *.sql
var FS embed.FS
