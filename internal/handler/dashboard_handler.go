package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/primepath/primepath-backend/internal/response"
	"github.com/primepath/primepath-backend/internal/service"
)

// DashboardHandler handles the teacher dashboard.
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetDashboardData godoc
// GET /api/v1/admin/dashboard
// Returns exam counts by kind, today's and completed sessions, assigned classes and recent completions.
func (h *DashboardHandler) GetDashboardData(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	data, err := h.dashboardService.GetDashboardData(c.Request.Context(), actor.TeacherID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, data)
}
