package migrations

import (
	"github.com/uptrace/bun/migrate"
)

// Migrations is the collection of schema migrations. Each file registers
// itself from init with Migrations.MustRegister.
var Migrations = migrate.NewMigrations()

const (
	TableName      = "bun_migrations"
	LocksTableName = "bun_migration_locks"
)
