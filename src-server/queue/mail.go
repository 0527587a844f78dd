package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	SubscriptionMailKind = "SubscriptionMail"

	// redis list the request side pushes onto and the worker pops from
	SubscriptionMailKey = "mailqueue:subscription"
	// jobs that exhausted their retries are parked here
	SubscriptionMailDeadKey = "mailqueue:subscription:dead"

	MaxAttempts = 3
)

type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type MeetupSnapshot struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Location        string      `json:"location"`
	StartsAtUnixUTC int64       `json:"startsAtUnixUTC"`
	Organizer       UserSummary `json:"organizer"`
}

// What crosses the queue: a frozen copy of the meetup as it looked when the
// subscription was admitted, plus who subscribed. The worker never goes back
// to the database.
type SubscriptionMailJob struct {
	Kind       string         `json:"jobKind"`
	Meetup     MeetupSnapshot `json:"meetup"`
	Subscriber UserSummary    `json:"subscriber"`
	Attempts   int            `json:"attempts"`
}

// Enqueue is fire-and-forget from the caller's point of view: the
// subscription is already committed and a failure here is only logged.
func Enqueue(ctx context.Context, rdb *redis.Client, job SubscriptionMailJob) error {
	if job.Kind == "" {
		job.Kind = SubscriptionMailKind
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue.Enqueue: %w", err)
	}
	if err := rdb.LPush(ctx, SubscriptionMailKey, data).Err(); err != nil {
		return fmt.Errorf("queue.Enqueue: %w", err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next job; returns (nil, nil) when the
// queue stayed empty.
func Dequeue(ctx context.Context, rdb *redis.Client, timeout time.Duration) (*SubscriptionMailJob, error) {
	res, err := rdb.BRPop(ctx, timeout, SubscriptionMailKey).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("queue.Dequeue: %w", err)
	case len(res) != 2:
		return nil, fmt.Errorf("queue.Dequeue: unexpected BRPOP reply length %d", len(res))
	}

	var job SubscriptionMailJob
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("queue.Dequeue: can't unmarshal job: %w", err)
	}
	return &job, nil
}

// Retry puts a failed job back on the queue, or parks it on the dead-letter
// list once it has burned through MaxAttempts.
func Retry(ctx context.Context, rdb *redis.Client, job SubscriptionMailJob) error {
	job.Attempts++
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue.Retry: %w", err)
	}

	key := SubscriptionMailKey
	if job.Attempts >= MaxAttempts {
		key = SubscriptionMailDeadKey
	}
	if err := rdb.LPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("queue.Retry: %w", err)
	}
	return nil
}

// Depth reports how many jobs are waiting; polled by the metric collector.
func Depth(ctx context.Context, rdb *redis.Client) (int64, error) {
	return rdb.LLen(ctx, SubscriptionMailKey).Result()
}
