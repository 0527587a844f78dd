package model

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type MeetupIDCtxKeyType string

const MeetupIDCtxKey MeetupIDCtxKeyType = "meetup-id"

type Meetup struct {
	bun.BaseModel `bun:"table:meetups"`

	ID          string `bun:"id,pk"`          // required
	Title       string `bun:"title,notnull"`  // required
	Description string `bun:"description"`    // required, >= 10 chars
	Location    string `bun:"location,notnull"`

	StartsAtUnixUTC int64 `bun:"starts_at,notnull"` // required, strictly in the future on create

	OrganizerID string `bun:"organizer_id,notnull"` // required, never reassigned implicitly
	BannerID    string `bun:"banner_id,notnull"`    // required

	CreatedAt int64 `bun:"created_at,notnull"`
	UpdatedAt int64 `bun:"updated_at"`

	Organizer     *User           `bun:"rel:belongs-to,join:organizer_id=id"`
	Banner        *Banner         `bun:"rel:belongs-to,join:banner_id=id"`
	Subscriptions []*Subscription `bun:"rel:has-many,join:id=meetup_id"`
}

// Whether the meetup's scheduled instant is at or before now.
func (m *Meetup) Elapsed() bool {
	return m.StartsAtUnixUTC <= time.Now().UTC().Unix()
}

func (m *Meetup) validate() error {
	switch {
	case m.ID == "":
		return fmt.Errorf("%w: id is blank", ErrValidation)
	case m.Title == "":
		return fmt.Errorf("%w: title is blank", ErrValidation)
	case len(m.Description) < 10:
		return fmt.Errorf("%w: description must be at least 10 characters", ErrValidation)
	case m.Location == "":
		return fmt.Errorf("%w: location is blank", ErrValidation)
	case m.StartsAtUnixUTC == 0:
		return fmt.Errorf("%w: starts_at is blank", ErrValidation)
	case m.OrganizerID == "":
		return fmt.Errorf("%w: organizer id is blank", ErrValidation)
	case m.BannerID == "":
		return fmt.Errorf("%w: banner id is blank", ErrValidation)
	}
	return nil
}

func (m *Meetup) Insert(ctx context.Context, db bun.IDB) error {
	if err := m.validate(); err != nil {
		return fmt.Errorf("(*Meetup).Insert: %w", err)
	}
	if m.Elapsed() {
		return fmt.Errorf("(*Meetup).Insert: %w", ErrPastDate)
	}
	if m.CreatedAt == 0 {
		m.CreatedAt = time.Now().UTC().Unix()
	}

	if _, err := db.NewInsert().
		Model(m).
		Exec(ctx); err != nil {
		return fmt.Errorf("(*Meetup).Insert: %w", err)
	}

	return nil
}

// Persists an already-patched meetup and rewrites the denormalized
// starts_at on its subscription rows so the time-conflict index keeps
// matching reality after a reschedule.
func (m *Meetup) Update(ctx context.Context, db bun.IDB) error {
	if err := m.validate(); err != nil {
		return fmt.Errorf("(*Meetup).Update: %w", err)
	}
	m.UpdatedAt = time.Now().UTC().Unix()

	if _, err := db.NewUpdate().
		Model(m).
		WherePK().
		Exec(ctx); err != nil {
		return fmt.Errorf("(*Meetup).Update: %w", err)
	}

	if _, err := db.NewUpdate().
		Model((*Subscription)(nil)).
		Set("starts_at = ?", m.StartsAtUnixUTC).
		Where("meetup_id = ?", m.ID).
		Exec(ctx); err != nil {
		return fmt.Errorf("(*Meetup).Update: can't sync subscriptions: %w", err)
	}

	return nil
}

var _ bun.AfterDeleteHook = (*Meetup)(nil)

// Cascade: a deleted meetup takes its subscriptions with it.
func (m *Meetup) AfterDelete(ctx context.Context, query *bun.DeleteQuery) error {
	if query.DB() == nil {
		return fmt.Errorf("Meetup.AfterDelete: db is nil")
	}

	switch meetupID := ctx.Value(MeetupIDCtxKey).(type) {
	case string:
		if meetupID == "" {
			return fmt.Errorf("Meetup.AfterDelete: meetup id is blank")
		}
		if _, err := query.DB().NewDelete().
			Model((*Subscription)(nil)).
			Where("meetup_id = ?", meetupID).
			Exec(ctx); err != nil {
			return fmt.Errorf("Meetup.AfterDelete: can't delete subscriptions: %w", err)
		}
	case nil:
		return fmt.Errorf("Meetup.AfterDelete: meetup id is nil")
	default:
		return fmt.Errorf("Meetup.AfterDelete: wrong meetup id type | type=%T", meetupID)
	}

	return nil
}
