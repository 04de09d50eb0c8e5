package queue

import (
	"assignment_desk/internal/domain/model"
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// ErrEmpty is returned by Pop when no event arrived before the timeout.
var ErrEmpty = errors.New("event queue empty")

// EventQueue carries assignment events from the request path to the
// notification worker over a Redis list.
type EventQueue struct {
	rdb      *redis.Client
	name     string
	dedupTTL time.Duration
	consumer string // value written into claim keys owned by this process
}

func NewEventQueue(rdb *redis.Client, name string, dedupTTL time.Duration) *EventQueue {
	return &EventQueue{rdb: rdb, name: name, dedupTTL: dedupTTL, consumer: uuid.NewString()}
}

// releaseScript deletes a claim only while this consumer still owns it.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

func (q *EventQueue) claimKey(eventID string) string {
	return q.name + ":claimed:" + eventID
}

func (q *EventQueue) Publish(ctx context.Context, event model.AssignmentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal assignment event")
	}
	if err := q.rdb.LPush(ctx, q.name, payload).Err(); err != nil {
		return errors.Wrapf(err, "push event %s to %s", event.ID, q.name)
	}
	return nil
}

// Pop blocks up to timeout for the oldest event.
func (q *EventQueue) Pop(ctx context.Context, timeout time.Duration) (*model.AssignmentEvent, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrEmpty
		}
		return nil, err
	}
	// res is [queueName, value]
	if len(res) < 2 || res[1] == "" {
		return nil, ErrEmpty
	}
	var event model.AssignmentEvent
	if err := json.Unmarshal([]byte(res[1]), &event); err != nil {
		return nil, errors.Wrap(err, "decode assignment event")
	}
	return &event, nil
}

// Claim marks an event as handled. It returns false if some consumer already
// claimed it within the dedup window.
func (q *EventQueue) Claim(ctx context.Context, eventID string) (bool, error) {
	ok, err := q.rdb.SetNX(ctx, q.claimKey(eventID), q.consumer, q.dedupTTL).Result()
	if err != nil {
		return false, errors.Wrapf(err, "claim event %s", eventID)
	}
	return ok, nil
}

// Release drops a claim so a failed event can be retried. A claim that
// expired and was taken by another consumer is left alone.
func (q *EventQueue) Release(ctx context.Context, eventID string) error {
	deleted, err := releaseScript.Run(ctx, q.rdb, []string{q.claimKey(eventID)}, q.consumer).Int64()
	if err != nil {
		return errors.Wrapf(err, "release event %s", eventID)
	}
	if deleted == 0 {
		log.Printf("WARN: claim on event %s was no longer held by this consumer", eventID)
	}
	return nil
}

// Requeue pushes an event back to the tail so it is consumed next.
func (q *EventQueue) Requeue(ctx context.Context, event model.AssignmentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal assignment event")
	}
	if err := q.rdb.RPush(ctx, q.name, payload).Err(); err != nil {
		return errors.Wrapf(err, "requeue event %s", event.ID)
	}
	return nil
}
