package handlers

import (
	"net/http"
	"strconv"

	"task-management/backend/middleware"
	"task-management/backend/services"
)

// Default recent-task list sizes for the two dashboard variants.
const (
	defaultAdminRecentLimit = 3
	defaultUserRecentLimit  = 4
)

type DashboardHandler struct {
	service *services.MetricsService
}

func NewDashboardHandler(service *services.MetricsService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

func recentLimit(r *http.Request, fallback int) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit >= 0 {
			return limit
		}
	}
	return fallback
}

func (h *DashboardHandler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.AdminDashboard(r.Context(), recentLimit(r, defaultAdminRecentLimit))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// UserDashboard scopes the metrics to the authenticated user taken from the
// session context.
func (h *DashboardHandler) UserDashboard(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Authorization required", http.StatusUnauthorized)
		return
	}

	snapshot, err := h.service.UserDashboard(r.Context(), session.UserID, recentLimit(r, defaultUserRecentLimit))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}
