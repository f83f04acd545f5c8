package seeders

import (
	"context"

	"github.com/uptrace/bun"

	"ms-seeder/internal/users/db"
)

func init() {
	Seeds.MustRegister(demoUserUp, demoUserDown)
}

func demoUserUp(ctx context.Context, bunDB *bun.DB) error {
	return DemoUser{Store: &db.DB{Bun: bunDB}}.Up(ctx)
}

func demoUserDown(ctx context.Context, bunDB *bun.DB) error {
	return DemoUser{Store: &db.DB{Bun: bunDB}}.Down(ctx)
}
