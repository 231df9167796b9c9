// Package pgmigrations embeds the SQL schema migrations for the batch store.
package pgmigrations

import "embed"

// FS holds the numbered up/down migration files.
//
//go:embed *.sql
var FS embed.FS
