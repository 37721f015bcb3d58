package db

import "embed"

// MigrationFS holds the SQL migration files under internal/db/migrations,
// applied by the migrate runner (cmd/migrate).
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
