package worker

import (
	"assignment_desk/internal/domain/model"
	"assignment_desk/internal/platform/queue"
	"context"
	"errors"
	"log"
	"time"
)

// EventSource is the consuming side of the assignment event queue.
type EventSource interface {
	Pop(ctx context.Context, timeout time.Duration) (*model.AssignmentEvent, error)
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
	Requeue(ctx context.Context, event model.AssignmentEvent) error
}

// Deliverer turns one event into stored notifications.
type Deliverer interface {
	Deliver(ctx context.Context, event model.AssignmentEvent) error
}

// DefaultMaxAttempts bounds delivery tries for one event before it is dropped.
const DefaultMaxAttempts = 5

type NotificationWorker struct {
	source      EventSource
	deliverer   Deliverer
	pollTimeout time.Duration
	backoff     time.Duration
	maxAttempts int
}

func NewNotificationWorker(source EventSource, deliverer Deliverer) *NotificationWorker {
	return &NotificationWorker{
		source:      source,
		deliverer:   deliverer,
		pollTimeout: 5 * time.Second,
		backoff:     5 * time.Second,
		maxAttempts: DefaultMaxAttempts,
	}
}

// Start consumes events until ctx is cancelled.
func (w *NotificationWorker) Start(ctx context.Context) {
	log.Println("INFO: notification worker started")
	for {
		select {
		case <-ctx.Done():
			log.Println("INFO: notification worker stopping")
			return
		default:
		}

		event, err := w.source.Pop(ctx, w.pollTimeout)
		if err != nil {
			if errors.Is(err, queue.ErrEmpty) {
				continue
			}
			if ctx.Err() != nil {
				continue
			}
			log.Printf("ERROR: failed to pop assignment event: %v", err)
			w.sleep(ctx)
			continue
		}
		w.handle(ctx, *event)
	}
}

func (w *NotificationWorker) handle(ctx context.Context, event model.AssignmentEvent) {
	ok, err := w.source.Claim(ctx, event.ID)
	if err != nil {
		log.Printf("ERROR: failed to claim event %s: %v", event.ID, err)
		w.requeue(ctx, event)
		return
	}
	if !ok {
		log.Printf("INFO: event %s already handled, skipping", event.ID)
		return
	}

	if err := w.deliverer.Deliver(ctx, event); err != nil {
		event.Attempts++
		log.Printf("ERROR: failed to deliver %s event %s (attempt %d/%d): %v", event.Kind, event.ID, event.Attempts, w.maxAttempts, err)
		if event.Attempts >= w.maxAttempts {
			// The claim is kept so a duplicate copy is skipped too.
			log.Printf("ERROR: dropping %s event %s after %d attempts", event.Kind, event.ID, event.Attempts)
			return
		}
		if err := w.source.Release(ctx, event.ID); err != nil {
			log.Printf("ERROR: failed to release event %s: %v", event.ID, err)
		}
		w.requeue(ctx, event)
		w.sleep(ctx)
		return
	}
	log.Printf("INFO: delivered %s event %s to %d recipient(s)", event.Kind, event.ID, len(event.RecipientIDs))
}

func (w *NotificationWorker) requeue(ctx context.Context, event model.AssignmentEvent) {
	if err := w.source.Requeue(ctx, event); err != nil {
		log.Printf("ERROR: failed to requeue event %s: %v", event.ID, err)
	}
}

func (w *NotificationWorker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.backoff):
	}
}
