// Package postgres embeds the PostgreSQL migrations of the account directory.
package postgres

import "embed"

// FS contains the directory migrations.
//
//go:embed directory/*.sql
var FS embed.FS

// Dir is the directory within FS where migrations live.
const Dir = "directory"
