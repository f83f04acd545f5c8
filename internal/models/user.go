package models

import (
	"time"

	"github.com/uptrace/bun"
)

// UsersTable is the collection the demo seed writes to and clears.
const UsersTable = "Users"

type User struct {
	bun.BaseModel `bun:"table:Users,alias:u"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Email     string    `bun:"email,notnull,unique" json:"email"`
	CreatedAt time.Time `bun:"createdAt,notnull" json:"createdAt"`
	UpdatedAt time.Time `bun:"updatedAt,notnull" json:"updatedAt"`
}
