package model

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// Users are owned by the external identity service; this side only reads
// them. Upsert exists for seeding and tests.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID    string `bun:"id,pk,notnull,unique"`
	Name  string `bun:"name,notnull"`
	Email string `bun:"email,notnull"`
}

func (u *User) Upsert(ctx context.Context, db bun.IDB) error {
	if u.ID == "" {
		return fmt.Errorf("user id is empty")
	}

	_, err := db.
		NewInsert().
		Model(u).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("email = EXCLUDED.email").
		Exec(ctx)

	return err
}
