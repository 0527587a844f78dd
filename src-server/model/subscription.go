package model

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Subscription struct {
	bun.BaseModel `bun:"table:subscriptions"`

	ID       string `bun:"id,pk"`
	UserID   string `bun:"user_id,notnull"`
	MeetupID string `bun:"meetup_id,notnull"`

	// denormalized copy of the meetup's instant, kept in sync by
	// (*Meetup).Update; backs the user/slot unique index
	StartsAtUnixUTC int64 `bun:"starts_at,notnull"`

	CreatedAt int64 `bun:"created_at,notnull"`

	User   *User   `bun:"rel:belongs-to,join:user_id=id"`
	Meetup *Meetup `bun:"rel:belongs-to,join:meetup_id=id"`
}

// TryAdmit decides "can userID subscribe to meetupID right now" and, when
// every rule passes, persists the subscription. Checks run in order and
// short-circuit:
//
//  1. the meetup exists
//  2. the subscriber isn't its organizer
//  3. the meetup hasn't elapsed
//  4. the user isn't already subscribed
//  5. the user holds no subscription at the identical instant
//
// Conflict means the exact same instant; meetups carry no duration.
func TryAdmit(ctx context.Context, db bun.IDB, userID, meetupID string) (*Subscription, error) {
	meetupModel := new(Meetup)
	err := db.NewSelect().
		Model(meetupModel).
		Where("id = ?", meetupID).
		Scan(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrMeetupNotFound
	case err != nil:
		return nil, fmt.Errorf("TryAdmit: can't get meetup: %w", err)
	}

	if meetupModel.OrganizerID == userID {
		return nil, ErrSelfSubscription
	}
	if meetupModel.Elapsed() {
		return nil, ErrMeetupElapsed
	}

	duplicated, err := db.NewSelect().
		Model((*Subscription)(nil)).
		Where("user_id = ?", userID).
		Where("meetup_id = ?", meetupID).
		Exists(ctx)
	switch {
	case err != nil:
		return nil, fmt.Errorf("TryAdmit: can't check duplicate: %w", err)
	case duplicated:
		return nil, ErrAlreadySubscribed
	}

	conflicted, err := db.NewSelect().
		Model((*Subscription)(nil)).
		Where("user_id = ?", userID).
		Where("starts_at = ?", meetupModel.StartsAtUnixUTC).
		Exists(ctx)
	switch {
	case err != nil:
		return nil, fmt.Errorf("TryAdmit: can't check conflict: %w", err)
	case conflicted:
		return nil, ErrTimeConflict
	}

	subscriptionModel := &Subscription{
		ID:              uuid.NewString(),
		UserID:          userID,
		MeetupID:        meetupID,
		StartsAtUnixUTC: meetupModel.StartsAtUnixUTC,
		CreatedAt:       time.Now().UTC().Unix(),
	}
	if _, err := db.NewInsert().
		Model(subscriptionModel).
		Exec(ctx); err != nil {
		// a racer may have slipped past the pre-checks
		return nil, admissionErrFromDB(err)
	}

	return subscriptionModel, nil
}
