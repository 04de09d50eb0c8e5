package service

import (
	"assignment_desk/internal/common"
	"assignment_desk/internal/domain/model"
	"assignment_desk/internal/domain/repository"
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
)

const (
	msgInvalidAdmins      = "Admin usernames are invalid or Users aren't admin"
	msgAssignmentNotFound = "Assignment not found"
	msgReviewNotFound     = "Assignment not found or you aren't authorized user"
)

type AssignmentService struct {
	assignmentRepo repository.AssignmentRepository
	userRepo       repository.UserRepository
	events         EventPublisher
}

func NewAssignmentService(assignmentRepo repository.AssignmentRepository, userRepo repository.UserRepository, events EventPublisher) *AssignmentService {
	if events == nil {
		events = NewNoopPublisher()
	}
	return &AssignmentService{assignmentRepo: assignmentRepo, userRepo: userRepo, events: events}
}

type CreateAssignmentRequest struct {
	Task           string   `json:"task" validate:"required"`
	AssignedAdmins []string `json:"assignedAdmins" validate:"required,min=1,dive,required"`
}

// UpdateAssignmentRequest fields are optional: an empty task or admin list
// leaves the stored value untouched.
type UpdateAssignmentRequest struct {
	Task           string   `json:"task"`
	AssignedAdmins []string `json:"assignedAdmins"`
}

type ReviewRequest struct {
	Feedback string `json:"feedback"`
}

// view selects which fields of an expanded assignment are serialized.
type view int

const (
	viewCreated view = iota // relations expanded, updatedAt hidden
	viewFull                // everything
	viewCreator             // creator's list: relations expanded, updatedAt hidden
	viewReviewer            // admin's list: creator expanded, admin list hidden
)

func (s *AssignmentService) Create(ctx context.Context, actorID string, req CreateAssignmentRequest) (*model.AssignmentView, error) {
	actor, err := currentUser(ctx, s.userRepo, actorID)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin {
		return nil, common.NewError(common.ErrForbidden, "Admins cannot create assignments")
	}
	if err := validateRequest(req, "Task and at least one assigned admin are required"); err != nil {
		return nil, err
	}

	adminIDs, err := s.resolveAdmins(ctx, req.AssignedAdmins)
	if err != nil {
		return nil, err
	}

	assignment := &model.Assignment{
		ID:             uuid.NewString(),
		UserID:         actor.ID,
		Task:           req.Task,
		AssignedAdmins: adminIDs,
		Status:         model.StatusPending,
	}
	if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, common.Errorf("failed to create assignment: %w", err)
	}
	log.Printf("INFO: assignment %s created by %s for %d admin(s)", assignment.ID, actor.ID, len(adminIDs))

	publish(ctx, s.events, newEvent(model.EventAssignmentCreated, assignment, actor.ID, assignment.AssignedAdmins))
	return s.expandOne(ctx, assignment, viewCreated)
}

func (s *AssignmentService) Update(ctx context.Context, assignmentID, actorID string, req UpdateAssignmentRequest) (*model.AssignmentView, error) {
	assignment, err := s.findOwned(ctx, assignmentID, actorID, "You are not authorized to update this assignment")
	if err != nil {
		return nil, err
	}

	var adminIDs []string
	if len(req.AssignedAdmins) > 0 {
		adminIDs, err = s.resolveAdmins(ctx, req.AssignedAdmins)
		if err != nil {
			return nil, err
		}
	}

	if req.Task != "" {
		assignment.Task = req.Task
	}
	if len(adminIDs) > 0 {
		assignment.AssignedAdmins = adminIDs
	}

	if err := s.assignmentRepo.Update(ctx, assignment); err != nil {
		return nil, common.Errorf("failed to update assignment %s: %w", assignment.ID, err)
	}

	publish(ctx, s.events, newEvent(model.EventAssignmentUpdated, assignment, actorID, assignment.AssignedAdmins))
	return s.expandOne(ctx, assignment, viewFull)
}

func (s *AssignmentService) Delete(ctx context.Context, assignmentID, actorID string) error {
	assignment, err := s.findOwned(ctx, assignmentID, actorID, "You are not authorized to delete this assignment")
	if err != nil {
		return err
	}
	if err := s.assignmentRepo.Delete(ctx, assignment.ID); err != nil {
		return common.Errorf("failed to delete assignment %s: %w", assignment.ID, err)
	}
	log.Printf("INFO: assignment %s deleted by %s", assignment.ID, actorID)

	publish(ctx, s.events, newEvent(model.EventAssignmentDeleted, assignment, actorID, assignment.AssignedAdmins))
	return nil
}

// List returns the assignments routed to an administrator, or the ones a
// regular user created.
func (s *AssignmentService) List(ctx context.Context, actorID string) ([]model.AssignmentView, error) {
	actor, err := currentUser(ctx, s.userRepo, actorID)
	if err != nil {
		return nil, err
	}

	var (
		assignments []model.Assignment
		v           view
	)
	if actor.IsAdmin {
		assignments, err = s.assignmentRepo.ListByAdmin(ctx, actor.ID)
		v = viewReviewer
	} else {
		assignments, err = s.assignmentRepo.ListByCreator(ctx, actor.ID)
		v = viewCreator
	}
	if err != nil {
		return nil, common.Errorf("failed to list assignments: %w", err)
	}
	return s.expand(ctx, assignments, v)
}

func (s *AssignmentService) Accept(ctx context.Context, assignmentID, actorID string, req ReviewRequest) (*model.AssignmentView, error) {
	assignment, err := s.findAssigned(ctx, assignmentID, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(assignment, model.StatusAccepted); err != nil {
		return nil, err
	}
	if req.Feedback != "" {
		assignment.Feedback = req.Feedback
	}
	return s.saveReview(ctx, assignment, actorID, model.EventAssignmentAccepted)
}

func (s *AssignmentService) Reject(ctx context.Context, assignmentID, actorID string, req ReviewRequest) (*model.AssignmentView, error) {
	assignment, err := s.findAssigned(ctx, assignmentID, actorID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Feedback) == "" {
		return nil, common.NewError(common.ErrValidation, "Feedback is required when rejecting an assignment")
	}
	if err := s.transition(assignment, model.StatusRejected); err != nil {
		return nil, err
	}
	assignment.Feedback = req.Feedback
	return s.saveReview(ctx, assignment, actorID, model.EventAssignmentRejected)
}

func (s *AssignmentService) transition(a *model.Assignment, next model.AssignmentStatus) error {
	if !a.Status.CanTransitionTo(next) {
		return common.NewError(common.ErrInvalidTransition, "Assignment has already been "+string(a.Status))
	}
	a.Status = next
	return nil
}

func (s *AssignmentService) saveReview(ctx context.Context, a *model.Assignment, actorID string, kind model.EventKind) (*model.AssignmentView, error) {
	if err := s.assignmentRepo.Update(ctx, a); err != nil {
		return nil, common.Errorf("failed to save review of assignment %s: %w", a.ID, err)
	}
	log.Printf("INFO: assignment %s %s by %s", a.ID, a.Status, actorID)

	publish(ctx, s.events, newEvent(kind, a, actorID, []string{a.UserID}))
	return s.expandOne(ctx, a, viewFull)
}

// findOwned loads an assignment for a creator-only operation. Missing and
// foreign assignments are reported separately.
func (s *AssignmentService) findOwned(ctx context.Context, assignmentID, actorID, forbiddenMsg string) (*model.Assignment, error) {
	assignment, err := s.assignmentRepo.FindByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewError(common.ErrNotFound, msgAssignmentNotFound)
		}
		return nil, common.Errorf("failed to load assignment %s: %w", assignmentID, err)
	}
	if assignment.UserID != actorID {
		return nil, common.NewError(common.ErrForbidden, forbiddenMsg)
	}
	return assignment, nil
}

// findAssigned loads an assignment for review. An unknown id and an
// assignment the actor is not assigned to are indistinguishable.
func (s *AssignmentService) findAssigned(ctx context.Context, assignmentID, actorID string) (*model.Assignment, error) {
	assignment, err := s.assignmentRepo.FindByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewError(common.ErrNotFound, msgReviewNotFound)
		}
		return nil, common.Errorf("failed to load assignment %s: %w", assignmentID, err)
	}
	if !assignment.IsAssignedTo(actorID) {
		return nil, common.NewError(common.ErrNotFound, msgReviewNotFound)
	}
	return assignment, nil
}

// resolveAdmins maps usernames to administrator ids in request order. Every
// username must name a distinct administrator; nothing is silently dropped.
func (s *AssignmentService) resolveAdmins(ctx context.Context, usernames []string) ([]string, error) {
	admins, err := s.userRepo.FindAdminsByUsernames(ctx, usernames)
	if err != nil {
		return nil, common.Errorf("failed to resolve admins: %w", err)
	}
	if len(admins) != len(usernames) {
		return nil, common.NewError(common.ErrValidation, msgInvalidAdmins)
	}

	byName := make(map[string]string, len(admins))
	for _, a := range admins {
		byName[a.Username] = a.ID
	}
	ids := make([]string, 0, len(usernames))
	for _, name := range usernames {
		id, ok := byName[name]
		if !ok {
			return nil, common.NewError(common.ErrValidation, msgInvalidAdmins)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *AssignmentService) expandOne(ctx context.Context, a *model.Assignment, v view) (*model.AssignmentView, error) {
	views, err := s.expand(ctx, []model.Assignment{*a}, v)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// expand replaces user references with summaries using one lookup for the
// whole batch.
func (s *AssignmentService) expand(ctx context.Context, assignments []model.Assignment, v view) ([]model.AssignmentView, error) {
	var ids []string
	for i := range assignments {
		ids = append(ids, assignments[i].UserID)
		if v != viewReviewer {
			ids = append(ids, assignments[i].AssignedAdmins...)
		}
	}
	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, common.Errorf("failed to expand assignment users: %w", err)
	}
	summaries := make(map[string]model.UserSummary, len(users))
	for i := range users {
		summaries[users[i].ID] = users[i].Summary()
	}
	summary := func(id string) model.UserSummary {
		if sum, ok := summaries[id]; ok {
			return sum
		}
		return model.UserSummary{ID: id}
	}

	out := make([]model.AssignmentView, 0, len(assignments))
	for i := range assignments {
		a := &assignments[i]
		item := model.AssignmentView{
			ID:        a.ID,
			Creator:   summary(a.UserID),
			Task:      a.Task,
			Status:    a.Status,
			Feedback:  a.Feedback,
			CreatedAt: a.CreatedAt,
		}
		if v != viewReviewer {
			item.AssignedAdmins = make([]model.UserSummary, 0, len(a.AssignedAdmins))
			for _, id := range a.AssignedAdmins {
				item.AssignedAdmins = append(item.AssignedAdmins, summary(id))
			}
		}
		if v == viewFull || v == viewReviewer {
			updatedAt := a.UpdatedAt
			item.UpdatedAt = &updatedAt
		}
		out = append(out, item)
	}
	return out, nil
}
