package handler

import (
	"assignment_desk/internal/app/service"
	"assignment_desk/internal/common"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type NotificationHandler struct {
	responder
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService, debug bool) *NotificationHandler {
	return &NotificationHandler{responder: responder{debug: debug}, notificationService: notificationService}
}

func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
}

func (h *NotificationHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	notifications, err := h.notificationService.ListForUser(r.Context(), userID)
	if err != nil {
		h.fail(w, "list notifications", err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, notifications)
}
