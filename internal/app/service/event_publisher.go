package service

import (
	"assignment_desk/internal/domain/model"
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// EventPublisher hands assignment events to the notification pipeline.
type EventPublisher interface {
	Publish(ctx context.Context, event model.AssignmentEvent) error
}

type noopPublisher struct{}

// NewNoopPublisher is used when no event queue is configured.
func NewNoopPublisher() EventPublisher { return noopPublisher{} }

func (noopPublisher) Publish(context.Context, model.AssignmentEvent) error { return nil }

func newEvent(kind model.EventKind, a *model.Assignment, actorID string, recipients []string) model.AssignmentEvent {
	return model.AssignmentEvent{
		ID:           uuid.NewString(),
		Kind:         kind,
		AssignmentID: a.ID,
		ActorID:      actorID,
		RecipientIDs: append([]string(nil), recipients...),
		Task:         a.Task,
		Feedback:     a.Feedback,
		OccurredAt:   time.Now().UTC(),
	}
}

// publish runs after the write has been persisted, so a failure here is
// logged rather than returned to the caller.
func publish(ctx context.Context, p EventPublisher, event model.AssignmentEvent) {
	if err := p.Publish(ctx, event); err != nil {
		log.Printf("ERROR: failed to publish %s event %s for assignment %s: %v", event.Kind, event.ID, event.AssignmentID, err)
	}
}
