package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DashboardSummary handles GET /api/v1/dashboard/summary.
func (h *Handler) DashboardSummary(c *gin.Context) {
	sum, err := h.svc.DashboardSummary(c.Request.Context())
	if err != nil {
		h.fail(c, "dashboard summary failed", err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// BatchPerformance handles GET /api/v1/dashboard/batch-performance.
func (h *Handler) BatchPerformance(c *gin.Context) {
	rows, err := h.svc.BatchPerformance(c.Request.Context())
	if err != nil {
		h.fail(c, "batch performance failed", err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GradeDistribution handles GET /api/v1/dashboard/grades.
func (h *Handler) GradeDistribution(c *gin.Context) {
	counts, err := h.svc.GradeDistribution(c.Request.Context())
	if err != nil {
		h.fail(c, "grade distribution failed", err)
		return
	}
	c.JSON(http.StatusOK, counts)
}
