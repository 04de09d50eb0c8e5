package handler

import (
	"assignment_desk/internal/app/service"
	"assignment_desk/internal/common"
	"assignment_desk/internal/domain/model"
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type AssignmentHandler struct {
	responder
	assignmentService *service.AssignmentService
}

func NewAssignmentHandler(assignmentService *service.AssignmentService, debug bool) *AssignmentHandler {
	return &AssignmentHandler{responder: responder{debug: debug}, assignmentService: assignmentService}
}

func (h *AssignmentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/create", h.create)
	r.Post("/update/{id}", h.update)
	r.Post("/delete/{id}", h.delete)
	r.Post("/accept/{id}", h.accept)
	r.Post("/reject/{id}", h.reject)
}

func (h *AssignmentHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	assignments, err := h.assignmentService.List(r.Context(), userID)
	if err != nil {
		h.fail(w, "list assignments", err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, assignments)
}

func (h *AssignmentHandler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req service.CreateAssignmentRequest
	if err := decodeBody(r, &req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	assignment, err := h.assignmentService.Create(r.Context(), userID, req)
	if err != nil {
		h.fail(w, "create assignment", err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, assignment)
}

func (h *AssignmentHandler) update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req service.UpdateAssignmentRequest
	if err := decodeBody(r, &req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	assignment, err := h.assignmentService.Update(r.Context(), chi.URLParam(r, "id"), userID, req)
	if err != nil {
		h.fail(w, "update assignment", err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, assignment)
}

func (h *AssignmentHandler) delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	if err := h.assignmentService.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		h.fail(w, "delete assignment", err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Assignment deleted successfully")
}

func (h *AssignmentHandler) accept(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "accept assignment", h.assignmentService.Accept)
}

func (h *AssignmentHandler) reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "reject assignment", h.assignmentService.Reject)
}

type reviewFunc func(ctx context.Context, assignmentID, actorID string, req service.ReviewRequest) (*model.AssignmentView, error)

func (h *AssignmentHandler) review(w http.ResponseWriter, r *http.Request, op string, do reviewFunc) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req service.ReviewRequest
	if err := decodeBody(r, &req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	assignment, err := do(r.Context(), chi.URLParam(r, "id"), userID, req)
	if err != nil {
		h.fail(w, op, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, assignment)
}
