package handler

import (
	"assignment_desk/internal/app/service"
	"assignment_desk/internal/common"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	responder
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService, debug bool) *UserHandler {
	return &UserHandler{responder: responder{debug: debug}, userService: userService}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/admin", h.listAdmins)
}

func (h *UserHandler) listAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.userService.ListAdministrators(r.Context())
	if err != nil {
		h.fail(w, "list admins", err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, admins)
}
