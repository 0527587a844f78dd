package scheduler_test

import (
	"meetupd/src-server/queue"
	"meetupd/src-server/scheduler"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMeetupDate(t *testing.T) {
	cases := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2026, time.January, 2, 15, 4, 0, 0, time.UTC), "dia 02 de janeiro, às 15:04h"},
		{time.Date(2026, time.September, 30, 9, 5, 0, 0, time.UTC), "dia 30 de setembro, às 9:05h"},
		{time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), "dia 01 de março, às 0:00h"},
		{time.Date(2026, time.December, 25, 23, 59, 0, 0, time.UTC), "dia 25 de dezembro, às 23:59h"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, scheduler.FormatMeetupDate(c.in))
	}
}

func TestRenderMailBody(t *testing.T) {
	job := &queue.SubscriptionMailJob{
		Kind: queue.SubscriptionMailKind,
		Meetup: queue.MeetupSnapshot{
			ID:       "m1",
			Title:    "Go devs meetup",
			Location: "downtown",
			StartsAtUnixUTC: time.Date(2026, time.January, 2, 15, 4, 0, 0, time.UTC).
				Unix(),
			Organizer: queue.UserSummary{Name: "ana clara", Email: "ana@example.com"},
		},
		Subscriber: queue.UserSummary{Name: "bob marley", Email: "bob@example.com"},
	}

	body, err := scheduler.RenderMailBody(job, time.UTC)
	require.NoError(t, err)

	// names come out title-cased, the date localized
	assert.Contains(t, body, "Olá, Bob Marley!")
	assert.Contains(t, body, "Ana Clara confirmou sua inscrição no meetup Go devs meetup.")
	assert.Contains(t, body, "Local: downtown")
	assert.Contains(t, body, "Quando: dia 02 de janeiro, às 15:04h")
}
