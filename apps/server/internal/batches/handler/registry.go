package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tilsley/hgraph/pkg/api"
)

// Root handles GET /.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": APIName,
		"version": APIVersion,
		"status":  "active",
	})
}

// Health handles GET /health. It reports 503 when the store is unreachable.
func (h *Handler) Health(c *gin.Context) {
	if err := h.svc.Health(c.Request.Context()); err != nil {
		h.log.Warn("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "disconnected",
			"error":    err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "connected"})
}

// CreateMilestone handles POST /api/v1/milestones.
func (h *Handler) CreateMilestone(c *gin.Context) {
	var in api.MilestoneInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	m, err := h.svc.CreateMilestone(c.Request.Context(), in)
	if err != nil {
		h.fail(c, "failed to create milestone", err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// ListMilestones handles GET /api/v1/milestones.
func (h *Handler) ListMilestones(c *gin.Context) {
	list, err := h.svc.ListMilestones(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to list milestones", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateEquipment handles POST /api/v1/equipment.
func (h *Handler) CreateEquipment(c *gin.Context) {
	var in api.EquipmentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	e, err := h.svc.CreateEquipment(c.Request.Context(), in)
	if err != nil {
		h.fail(c, "failed to create equipment", err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// ListEquipment handles GET /api/v1/equipment.
func (h *Handler) ListEquipment(c *gin.Context) {
	list, err := h.svc.ListEquipment(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to list equipment", err)
		return
	}
	c.JSON(http.StatusOK, list)
}
