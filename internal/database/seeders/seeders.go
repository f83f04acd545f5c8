package seeders

import (
	"github.com/uptrace/bun/migrate"
)

// Seeds holds every data seeder. It is tracked apart from schema migrations so
// undoing seeds never touches the schema.
var Seeds = migrate.NewMigrations()

const (
	TableName      = "bun_seeds"
	LocksTableName = "bun_seed_locks"
)
