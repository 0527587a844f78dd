package model

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
)

func CreateSchema(db *bun.DB) error {
	if err := db.RunInTx(context.Background(), &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, model := range []interface{}{
			(*User)(nil),
			(*Banner)(nil),
			(*Meetup)(nil),
			(*Subscription)(nil),
		} {
			if _, err := tx.
				NewCreateTable().
				Model(model).
				IfNotExists().
				Exec(ctx); err != nil {
				return err
			}
		}

		// concurrent TryAdmit calls race past the pre-checks; these close the gap
		if _, err := tx.NewCreateIndex().
			Model((*Subscription)(nil)).
			Index("subscriptions_user_meetup_idx").
			Unique().
			Column("user_id", "meetup_id").
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewCreateIndex().
			Model((*Subscription)(nil)).
			Index("subscriptions_user_slot_idx").
			Unique().
			Column("user_id", "starts_at").
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}

		return nil
	}); err != nil {
		return fmt.Errorf("CreateSchema: %w", err)
	}

	return nil
}
