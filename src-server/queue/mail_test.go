package queue_test

import (
	"context"
	"encoding/json"
	"meetupd/src-server/queue"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJob() queue.SubscriptionMailJob {
	return queue.SubscriptionMailJob{
		Kind: queue.SubscriptionMailKind,
		Meetup: queue.MeetupSnapshot{
			ID:              "m1",
			Title:           "Go devs meetup",
			Location:        "downtown",
			StartsAtUnixUTC: 1700000000,
			Organizer:       queue.UserSummary{ID: "u1", Name: "ana", Email: "ana@example.com"},
		},
		Subscriber: queue.UserSummary{ID: "u2", Name: "bob", Email: "bob@example.com"},
	}
}

func TestEnqueue(t *testing.T) {
	rdb, rmock := redismock.NewClientMock()

	job := testJob()
	data, err := json.Marshal(job)
	require.NoError(t, err)

	rmock.ExpectLPush(queue.SubscriptionMailKey, data).SetVal(1)
	require.NoError(t, queue.Enqueue(context.Background(), rdb, job))
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestEnqueueFillsKind(t *testing.T) {
	rdb, rmock := redismock.NewClientMock()

	job := testJob()
	job.Kind = ""
	want := testJob()
	data, err := json.Marshal(want)
	require.NoError(t, err)

	rmock.ExpectLPush(queue.SubscriptionMailKey, data).SetVal(1)
	require.NoError(t, queue.Enqueue(context.Background(), rdb, job))
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestDequeue(t *testing.T) {
	rdb, rmock := redismock.NewClientMock()

	job := testJob()
	data, err := json.Marshal(job)
	require.NoError(t, err)

	rmock.ExpectBRPop(5*time.Second, queue.SubscriptionMailKey).
		SetVal([]string{queue.SubscriptionMailKey, string(data)})

	got, err := queue.Dequeue(context.Background(), rdb, 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, job, *got)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestDequeueEmpty(t *testing.T) {
	rdb, rmock := redismock.NewClientMock()

	rmock.ExpectBRPop(5*time.Second, queue.SubscriptionMailKey).RedisNil()

	got, err := queue.Dequeue(context.Background(), rdb, 5*time.Second)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRetryRequeues(t *testing.T) {
	rdb, rmock := redismock.NewClientMock()

	job := testJob()
	want := job
	want.Attempts = 1
	data, err := json.Marshal(want)
	require.NoError(t, err)

	rmock.ExpectLPush(queue.SubscriptionMailKey, data).SetVal(1)
	require.NoError(t, queue.Retry(context.Background(), rdb, job))
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestRetryDeadLetters(t *testing.T) {
	rdb, rmock := redismock.NewClientMock()

	job := testJob()
	job.Attempts = queue.MaxAttempts - 1
	want := job
	want.Attempts = queue.MaxAttempts
	data, err := json.Marshal(want)
	require.NoError(t, err)

	rmock.ExpectLPush(queue.SubscriptionMailDeadKey, data).SetVal(1)
	require.NoError(t, queue.Retry(context.Background(), rdb, job))
	assert.NoError(t, rmock.ExpectationsWereMet())
}
