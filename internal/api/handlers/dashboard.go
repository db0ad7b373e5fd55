package handlers

import (
	"net/http"

	"github.com/wonny/fundwatch/internal/dashboard"
	"github.com/wonny/fundwatch/pkg/logger"
)

// DashboardHandler serves the live evaluation
// ⭐ SSOT: 대시보드 API 핸들러는 이 구조체에서만
type DashboardHandler struct {
	service *dashboard.Service
	logger  *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service *dashboard.Service, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{service: service, logger: log}
}

// GetEvaluation returns the cached evaluation, refreshing it first when
// nothing is cached yet or refresh=true is given
// GET /api/evaluation?refresh=true
func (h *DashboardHandler) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	snap := h.service.Latest()

	if snap.Evaluation == nil || r.URL.Query().Get("refresh") == "true" {
		if _, err := h.service.Refresh(r.Context()); err != nil {
			h.logger.WithError(err).Warn("Evaluation refresh failed")
		}
		snap = h.service.Latest()
	}

	respondJSON(w, http.StatusOK, snap)
}
