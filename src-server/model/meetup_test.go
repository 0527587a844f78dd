package model_test

import (
	"context"
	"database/sql"
	"meetupd/src-server/model"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	bundb := bun.NewDB(db, sqlitedialect.New())
	require.NoError(t, model.CreateSchema(bundb))
	return bundb
}

func seedUser(t *testing.T, db *bun.DB, name, email string) *model.User {
	t.Helper()
	userModel := &model.User{ID: uuid.NewString(), Name: name, Email: email}
	require.NoError(t, userModel.Upsert(context.Background(), db))
	return userModel
}

func seedBanner(t *testing.T, db *bun.DB) *model.Banner {
	t.Helper()
	bannerModel := &model.Banner{ID: uuid.NewString(), Path: "banners/test.png", URL: "http://localhost/banners/test.png"}
	_, err := db.NewInsert().Model(bannerModel).Exec(context.Background())
	require.NoError(t, err)
	return bannerModel
}

// inserts directly, skipping (*Meetup).Insert, so tests can seed elapsed meetups
func seedMeetup(t *testing.T, db *bun.DB, organizerID, bannerID string, startsAt int64) *model.Meetup {
	t.Helper()
	meetupModel := &model.Meetup{
		ID:              uuid.NewString(),
		Title:           "Go devs meetup",
		Description:     "monthly go meetup",
		Location:        "downtown",
		StartsAtUnixUTC: startsAt,
		OrganizerID:     organizerID,
		BannerID:        bannerID,
		CreatedAt:       time.Now().UTC().Unix(),
	}
	_, err := db.NewInsert().Model(meetupModel).Exec(context.Background())
	require.NoError(t, err)
	return meetupModel
}

func TestMeetupInsertValidation(t *testing.T) {
	db := newTestDB(t)
	organizer := seedUser(t, db, "ana", "ana@example.com")
	banner := seedBanner(t, db)
	future := time.Now().UTC().Add(time.Hour).Unix()

	base := func() model.Meetup {
		return model.Meetup{
			ID:              uuid.NewString(),
			Title:           "Go devs meetup",
			Description:     "0123456789",
			Location:        "downtown",
			StartsAtUnixUTC: future,
			OrganizerID:     organizer.ID,
			BannerID:        banner.ID,
		}
	}

	// description boundary: 9 chars fails, 10 succeeds
	short := base()
	short.Description = "012345678"
	assert.ErrorIs(t, short.Insert(context.Background(), db), model.ErrValidation)

	exact := base()
	require.NoError(t, exact.Insert(context.Background(), db))

	missingTitle := base()
	missingTitle.Title = ""
	assert.ErrorIs(t, missingTitle.Insert(context.Background(), db), model.ErrValidation)

	missingLocation := base()
	missingLocation.Location = ""
	assert.ErrorIs(t, missingLocation.Insert(context.Background(), db), model.ErrValidation)

	missingBanner := base()
	missingBanner.BannerID = ""
	assert.ErrorIs(t, missingBanner.Insert(context.Background(), db), model.ErrValidation)

	missingDate := base()
	missingDate.StartsAtUnixUTC = 0
	assert.ErrorIs(t, missingDate.Insert(context.Background(), db), model.ErrValidation)
}

func TestMeetupInsertPastDate(t *testing.T) {
	db := newTestDB(t)
	organizer := seedUser(t, db, "ana", "ana@example.com")
	banner := seedBanner(t, db)

	past := model.Meetup{
		ID:              uuid.NewString(),
		Title:           "Go devs meetup",
		Description:     "monthly go meetup",
		Location:        "downtown",
		StartsAtUnixUTC: time.Now().UTC().Add(-time.Hour).Unix(),
		OrganizerID:     organizer.ID,
		BannerID:        banner.ID,
	}
	assert.ErrorIs(t, past.Insert(context.Background(), db), model.ErrPastDate)
}

func TestMeetupUpdateSyncsSubscriptions(t *testing.T) {
	db := newTestDB(t)
	organizer := seedUser(t, db, "ana", "ana@example.com")
	subscriber := seedUser(t, db, "bob", "bob@example.com")
	banner := seedBanner(t, db)

	startsAt := time.Now().UTC().Add(2 * time.Hour).Unix()
	meetupModel := seedMeetup(t, db, organizer.ID, banner.ID, startsAt)

	subscriptionModel, err := model.TryAdmit(context.Background(), db, subscriber.ID, meetupModel.ID)
	require.NoError(t, err)
	require.Equal(t, startsAt, subscriptionModel.StartsAtUnixUTC)

	// reschedule; the denormalized copy on the subscription must follow
	meetupModel.StartsAtUnixUTC = startsAt + 3600
	require.NoError(t, meetupModel.Update(context.Background(), db))

	reloaded := new(model.Subscription)
	require.NoError(t, db.NewSelect().
		Model(reloaded).
		Where("id = ?", subscriptionModel.ID).
		Scan(context.Background()))
	assert.Equal(t, startsAt+3600, reloaded.StartsAtUnixUTC)
}

func TestMeetupDeleteCascadesSubscriptions(t *testing.T) {
	db := newTestDB(t)
	organizer := seedUser(t, db, "ana", "ana@example.com")
	subscriber := seedUser(t, db, "bob", "bob@example.com")
	banner := seedBanner(t, db)

	meetupModel := seedMeetup(t, db, organizer.ID, banner.ID, time.Now().UTC().Add(time.Hour).Unix())
	_, err := model.TryAdmit(context.Background(), db, subscriber.ID, meetupModel.ID)
	require.NoError(t, err)

	_, err = db.NewDelete().
		Model((*model.Meetup)(nil)).
		Where("id = ?", meetupModel.ID).
		Exec(context.WithValue(context.Background(), model.MeetupIDCtxKey, meetupModel.ID))
	require.NoError(t, err)

	count, err := db.NewSelect().
		Model((*model.Subscription)(nil)).
		Where("meetup_id = ?", meetupModel.ID).
		Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
