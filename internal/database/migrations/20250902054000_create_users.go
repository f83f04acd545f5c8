package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"ms-seeder/internal/models"
)

func init() {
	Migrations.MustRegister(createUsersUp, createUsersDown)
}

func createUsersUp(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*models.User)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create %s table: %w", models.UsersTable, err)
	}
	return nil
}

func createUsersDown(ctx context.Context, db *bun.DB) error {
	_, err := db.NewDropTable().
		Model((*models.User)(nil)).
		IfExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to drop %s table: %w", models.UsersTable, err)
	}
	return nil
}
