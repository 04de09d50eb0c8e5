package model

import "time"

type AssignmentStatus string

const (
	StatusPending  AssignmentStatus = "pending"
	StatusAccepted AssignmentStatus = "accepted"
	StatusRejected AssignmentStatus = "rejected"
)

// CanTransitionTo reports whether a review may move an assignment from s to next.
// Only pending assignments can be reviewed; accepted and rejected are terminal.
func (s AssignmentStatus) CanTransitionTo(next AssignmentStatus) bool {
	if s != StatusPending {
		return false
	}
	return next == StatusAccepted || next == StatusRejected
}

type Assignment struct {
	ID             string           `json:"id"`
	UserID         string           `json:"userId"` // creator
	Task           string           `json:"task"`
	AssignedAdmins []string         `json:"assignedAdmins"` // admin user IDs, in request order
	Status         AssignmentStatus `json:"status"`
	Feedback       string           `json:"feedback,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// IsAssignedTo reports whether userID is one of the assignment's reviewers.
func (a *Assignment) IsAssignedTo(userID string) bool {
	for _, id := range a.AssignedAdmins {
		if id == userID {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with a.
func (a *Assignment) Clone() *Assignment {
	c := *a
	c.AssignedAdmins = append([]string(nil), a.AssignedAdmins...)
	return &c
}

// AssignmentView is the serialized shape of an assignment with its relations
// expanded. Fields left nil are omitted for the view that suppresses them.
type AssignmentView struct {
	ID             string           `json:"id"`
	Creator        UserSummary      `json:"userId"`
	Task           string           `json:"task"`
	AssignedAdmins []UserSummary    `json:"assignedAdmins,omitempty"`
	Status         AssignmentStatus `json:"status"`
	Feedback       string           `json:"feedback,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      *time.Time       `json:"updatedAt,omitempty"`
}
