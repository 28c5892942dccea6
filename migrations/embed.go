// Package migrations embeds the SQL schema migrations, one directory per dialect.
package migrations

import "embed"

// FS holds the sqlite and postgres migration sets.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
