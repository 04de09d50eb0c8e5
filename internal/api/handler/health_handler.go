package handler

import (
	"assignment_desk/internal/common"
	"net/http"
	"time"
)

type HealthResponse struct {
	Status string  `json:"status"`
	Uptime float64 `json:"uptime"` // seconds
}

type HealthHandler struct {
	startedAt time.Time
}

func NewHealthHandler(startedAt time.Time) *HealthHandler {
	return &HealthHandler{startedAt: startedAt}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Uptime: time.Since(h.startedAt).Seconds(),
	})
}
