package db

import "embed"

// MigrationFS holds the schema migration SQL applied by cmd/migrate. Files
// are paired NNNN_name.{up,down}.sql under internal/db/migrations.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
