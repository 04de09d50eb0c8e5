package model

import "time"

type EventKind string

const (
	EventAssignmentCreated  EventKind = "assignment_created"
	EventAssignmentUpdated  EventKind = "assignment_updated"
	EventAssignmentDeleted  EventKind = "assignment_deleted"
	EventAssignmentAccepted EventKind = "assignment_accepted"
	EventAssignmentRejected EventKind = "assignment_rejected"
)

// AssignmentEvent is published after a successful write and consumed by the
// notification worker.
type AssignmentEvent struct {
	ID           string    `json:"id"`
	Kind         EventKind `json:"kind"`
	AssignmentID string    `json:"assignmentId"`
	ActorID      string    `json:"actorId"`
	RecipientIDs []string  `json:"recipientIds"`
	Task         string    `json:"task"`
	Feedback     string    `json:"feedback,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
	// Attempts counts failed deliveries so far.
	Attempts int `json:"attempts,omitempty"`
}

type Notification struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	AssignmentID string    `json:"assignmentId"`
	EventID      string    `json:"-"`
	Kind         EventKind `json:"kind"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"createdAt"`
}
