package seeders

import (
	"context"
	"time"

	"ms-seeder/internal/models"
)

// Store is the bulk API the demo-user seed is written against.
type Store interface {
	BulkInsert(ctx context.Context, table string, users []models.User) error
	BulkDelete(ctx context.Context, table string) (int64, error)
}

// DemoUsers returns the fixed development users, stamped with now.
func DemoUsers(now time.Time) []models.User {
	return []models.User{
		{
			Name:      "Arjun",
			Email:     "arjun@gmail.com",
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			Name:      "User",
			Email:     "user@gmail.com",
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

type DemoUser struct {
	Store Store
	Now   func() time.Time
}

// Up inserts the demo users. Store errors are returned as is.
func (s DemoUser) Up(ctx context.Context) error {
	return s.Store.BulkInsert(ctx, models.UsersTable, DemoUsers(s.now()))
}

// Down clears the whole Users table, not only the rows Up inserted.
func (s DemoUser) Down(ctx context.Context) error {
	_, err := s.Store.BulkDelete(ctx, models.UsersTable)
	return err
}

func (s DemoUser) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
