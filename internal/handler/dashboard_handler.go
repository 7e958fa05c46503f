package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-vacancy-api/internal/service"
	"github.com/noah-isme/course-vacancy-api/pkg/response"
)

// DashboardHandler serves the aggregated staffing overview.
type DashboardHandler struct {
	dashboard *service.DashboardService
	metrics   *service.MetricsService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService, metrics *service.MetricsService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, metrics: metrics}
}

// Overview godoc
// @Summary Aggregated staffing overview
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	overview, fromCache, err := h.dashboard.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordCacheLookup(fromCache)
	h.metrics.SetVacantCourses(overview.VacantCourses)
	response.JSON(c, http.StatusOK, overview, nil, map[string]interface{}{"cached": fromCache})
}
