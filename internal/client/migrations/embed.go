// Package migrations embeds the goose SQL migrations for the local
// key/value store, one directory per dialect.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var Migrations embed.FS

const (
	DirSQLite   = "sqlite"
	DirPostgres = "postgres"
)
