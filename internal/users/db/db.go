package db

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"ms-seeder/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// BulkInsert appends all rows to table in a single INSERT.
func (d *DB) BulkInsert(ctx context.Context, table string, users []models.User) error {
	if len(users) == 0 {
		return nil
	}
	_, err := d.Bun.NewInsert().
		Model(&users).
		ModelTableExpr("?", bun.Ident(table)).
		Exec(ctx)
	return err
}

// BulkDelete removes every row of table and reports how many were deleted.
func (d *DB) BulkDelete(ctx context.Context, table string) (int64, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.User)(nil)).
		ModelTableExpr("?", bun.Ident(table)).
		Where("1 = 1").
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (d *DB) CountUsers(ctx context.Context) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.User)(nil)).
		Count(ctx)
}

func (d *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := d.Bun.NewSelect().
		Model(&users).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (d *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
