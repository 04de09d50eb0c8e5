package service

import (
	"assignment_desk/internal/common"
	"assignment_desk/internal/domain/model"
	"assignment_desk/internal/domain/repository"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type NotificationService struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
}

func NewNotificationService(notificationRepo repository.NotificationRepository, userRepo repository.UserRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo, userRepo: userRepo}
}

func (s *NotificationService) ListForUser(ctx context.Context, userID string) ([]model.Notification, error) {
	notifications, err := s.notificationRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, common.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// Deliver stores one notification per recipient of event. Storing is
// idempotent per (event, recipient), so a retried event does not duplicate.
func (s *NotificationService) Deliver(ctx context.Context, event model.AssignmentEvent) error {
	actorName := event.ActorID
	if actor, err := s.userRepo.FindByID(ctx, event.ActorID); err == nil {
		actorName = actor.FullName
	}
	message := describeEvent(event, actorName)

	for _, recipient := range event.RecipientIDs {
		if recipient == event.ActorID {
			continue
		}
		n := &model.Notification{
			ID:           uuid.NewString(),
			UserID:       recipient,
			AssignmentID: event.AssignmentID,
			EventID:      event.ID,
			Kind:         event.Kind,
			Message:      message,
			CreatedAt:    event.OccurredAt,
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = time.Now().UTC()
		}
		if err := s.notificationRepo.Create(ctx, n); err != nil {
			return common.Errorf("failed to store notification for %s: %w", recipient, err)
		}
	}
	return nil
}

func describeEvent(event model.AssignmentEvent, actorName string) string {
	switch event.Kind {
	case model.EventAssignmentCreated:
		return fmt.Sprintf("%s assigned you a new task: %q", actorName, event.Task)
	case model.EventAssignmentUpdated:
		return fmt.Sprintf("%s updated the task %q", actorName, event.Task)
	case model.EventAssignmentDeleted:
		return fmt.Sprintf("%s withdrew the task %q", actorName, event.Task)
	case model.EventAssignmentAccepted:
		if event.Feedback != "" {
			return fmt.Sprintf("%s accepted your task %q: %s", actorName, event.Task, event.Feedback)
		}
		return fmt.Sprintf("%s accepted your task %q", actorName, event.Task)
	case model.EventAssignmentRejected:
		return fmt.Sprintf("%s rejected your task %q: %s", actorName, event.Task, event.Feedback)
	}
	return fmt.Sprintf("Task %q changed", event.Task)
}
